package feed

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"
)

type Deps struct {
	Source port.PriceSource
	Clock  port.Clock
	Logger *zerolog.Logger // optional, defaults to the global logger

	// OnCandleClosed is called from the polling loop whenever a candle closes.
	OnCandleClosed CandleClosedFunc
}

// Service is the live price feed: subscription registry, polling loop, cache and candles.
type Service struct {
	cfg    Config
	source port.PriceSource
	clock  port.Clock
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	limiter *RateLimiter
	cache   *Cache
	candles *Aggregator
	sched   *scheduler

	// mu guards reg and closed; scheduler start/stop happen under it.
	mu     sync.Mutex
	reg    *registry
	closed bool
}

func NewService(cfg Config, deps Deps) *Service {
	cfg = cfg.withDefaults()

	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:     cfg,
		source:  deps.Source,
		clock:   deps.Clock,
		log:     logger.With().Str("component", "feed").Str("source", deps.Source.Name()).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		limiter: NewRateLimiter(cfg),
		cache:   NewCache(deps.Clock, cfg.CacheTTL),
		candles: NewAggregator(cfg.BucketWidth, cfg.MaxCandles, deps.OnCandleClosed),
		reg:     newRegistry(),
	}
	s.sched = newScheduler(s)
	return s
}

// Subscribe registers onPrice for token and starts polling if it was idle.
// A fresh cached price is delivered once, asynchronously, before the next cycle.
// The returned func releases the subscription; calling it more than once is a no-op.
func (s *Service) Subscribe(token string, onPrice PriceFunc) (unsubscribe func()) {
	if strings.TrimSpace(token) == "" || onPrice == nil {
		s.log.Warn().Str("token", token).Msg("ignoring empty subscription")
		return func() {}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.reg.add(token, onPrice)
	s.sched.start()
	s.mu.Unlock()

	if price, ok := s.cache.Get(token); ok {
		s.clock.AfterFunc(0, func() {
			s.mu.Lock()
			live := s.reg.has(token, id)
			s.mu.Unlock()
			if live {
				s.invoke(token, onPrice, price)
			}
		})
	}

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(token, id) })
	}
}

// SubscribeMany subscribes every token and calls onPrices with the full map of
// last-seen prices on each constituent tick. Early calls carry partial maps.
func (s *Service) SubscribeMany(tokens []string, onPrices PricesFunc) (unsubscribe func()) {
	ids := uniqueTokens(tokens)

	var mu sync.Mutex
	last := make(map[string]float64, len(ids))

	unsubs := make([]func(), 0, len(ids))
	for _, id := range ids {
		unsubs = append(unsubs, s.Subscribe(id, func(price float64) {
			mu.Lock()
			last[id] = price
			snap := maps.Clone(last)
			mu.Unlock()
			onPrices(snap)
		}))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
		})
	}
}

// uniqueTokens drops blank and repeated ids, keeping the caller's spelling and order.
// Ids are opaque: "So11" and "so11" are different tokens.
func uniqueTokens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *Service) unsubscribe(token string, id uuid.UUID) {
	s.mu.Lock()
	gone := s.reg.remove(token, id)
	if s.reg.empty() {
		s.sched.stop()
	}
	s.mu.Unlock()

	if gone {
		s.cache.Delete(token)
		s.log.Debug().Str("token", token).Msg("token no longer tracked")
	}
}

// Close stops polling and refuses new subscriptions.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.sched.stop()
	s.mu.Unlock()
	s.cancel()
}

func (s *Service) activeTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.active()
}

func (s *Service) tracked(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.refCount(token) > 0
}

// deliver fans a price out to the token's current callbacks, in subscription order.
func (s *Service) deliver(token string, price float64) {
	s.mu.Lock()
	cbs := s.reg.callbacks(token)
	s.mu.Unlock()

	for _, fn := range cbs {
		s.invoke(token, fn, price)
	}
}

func (s *Service) invoke(token string, fn PriceFunc, price float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("token", token).
				Interface("panic", r).
				Msg("subscriber callback panicked")
		}
	}()
	fn(price)
}

// Running reports whether the polling loop is active.
func (s *Service) Running() bool { return s.sched.isRunning() }

// ActiveTokens returns the tokens with at least one subscriber.
func (s *Service) ActiveTokens() []string { return s.activeTokens() }

// RefCount returns the number of live subscriptions for token.
func (s *Service) RefCount(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.refCount(token)
}

// LastFetchAt returns when token was last sent to the price source.
func (s *Service) LastFetchAt(token string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.lastFetchAt(token)
}

// Price returns the cached price if it is still within TTL.
func (s *Service) Price(token string) (float64, bool) {
	return s.cache.Get(token)
}

// Candles returns the token's candle window, oldest first.
func (s *Service) Candles(token string) []domain.Candle {
	return s.candles.Candles(token)
}

// PercentChange returns the clamped change against the previous closed candle.
func (s *Service) PercentChange(token string) (float64, bool) {
	return s.candles.PercentChange(token)
}

func (s *Service) RateLimitState() RateLimitState { return s.limiter.State() }

func (s *Service) Config() Config { return s.cfg }
