package feed

import (
	"context"
	"math"
	"sync"
	"time"

	"livefeed/internal/application/port"
)

// scheduler is the single polling loop. Each step schedules the next one on the clock,
// so at most one step runs at a time. stop bumps gen, which makes any step already
// in progress abandon its remaining work.
type scheduler struct {
	svc *Service

	mu      sync.Mutex
	running bool
	gen     uint64
	timer   port.Timer
}

func newScheduler(svc *Service) *scheduler {
	return &scheduler{svc: svc}
}

// start is idempotent.
func (s *scheduler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.gen++
	s.scheduleCycleLocked(s.gen)
	s.svc.log.Debug().Msg("fetch scheduler started")
}

// stop cancels the pending timer.
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.svc.log.Debug().Msg("fetch scheduler stopped")
}

func (s *scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *scheduler) alive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

func (s *scheduler) scheduleCycleLocked(gen uint64) {
	delay := s.svc.limiter.NextDelay(s.svc.clock.Now())
	s.timer = s.svc.clock.AfterFunc(delay, func() { s.runCycle(gen) })
}

// after schedules fn for generation gen unless the loop was stopped in between.
func (s *scheduler) after(gen uint64, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.gen != gen {
		return false
	}
	s.timer = s.svc.clock.AfterFunc(d, fn)
	return true
}

func (s *scheduler) reschedule(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.gen != gen {
		return
	}
	s.scheduleCycleLocked(gen)
}

func (s *scheduler) runCycle(gen uint64) {
	if !s.alive(gen) {
		return
	}
	s.step(gen, s.svc.activeTokens(), 0)
}

// step walks tokens[i:] sequentially, pausing between adapter calls.
func (s *scheduler) step(gen uint64, tokens []string, i int) {
	for ; i < len(tokens); i++ {
		if !s.alive(gen) {
			return
		}
		// a cooldown opened mid-cycle: leave the rest for the next cycle
		if s.svc.limiter.BackingOff(s.svc.clock.Now()) {
			break
		}

		token := tokens[i]
		if !s.svc.tracked(token) {
			continue
		}
		if _, fresh := s.svc.cache.Get(token); fresh {
			continue
		}

		s.svc.fetch(token)

		if i+1 < len(tokens) {
			next := i + 1
			s.after(gen, s.svc.cfg.InterCallPause, func() { s.step(gen, tokens, next) })
			return
		}
	}
	s.reschedule(gen)
}

// fetch performs one adapter call and routes the outcome.
func (svc *Service) fetch(token string) {
	ctx, cancel := context.WithTimeout(svc.ctx, svc.cfg.FetchTimeout)
	price, err := svc.source.FetchPrice(ctx, token)
	cancel()

	now := svc.clock.Now()
	svc.mu.Lock()
	svc.reg.markFetched(token, now)
	svc.mu.Unlock()

	if err == nil && (price <= 0 || math.IsNaN(price) || math.IsInf(price, 0)) {
		err = port.NewFetchError(port.KindMalformed, token, port.ErrMalformed)
	}
	if err != nil {
		kind := port.KindOf(err)
		svc.limiter.OnError(kind, now)
		st := svc.limiter.State()
		svc.log.Warn().
			Err(err).
			Str("token", token).
			Str("kind", kind.String()).
			Int("consecutive_errors", st.ConsecutiveErrors).
			Dur("interval", st.CurrentInterval).
			Msg("price fetch failed")
		return
	}

	svc.limiter.OnSuccess()
	svc.cache.Set(token, price)
	svc.candles.Apply(token, now, price, 0)
	svc.deliver(token, price)
}
