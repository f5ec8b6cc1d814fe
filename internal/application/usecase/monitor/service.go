package monitor

import (
	"context"
	"errors"
	"time"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"

	"github.com/rs/zerolog/log"
)

// 回调通道容量, 满时丢弃
const queueSize = 256

type ServiceDeps struct {
	Feed          Feed
	Source        string // 价格源名称, 持久化最新价时使用
	Tokens        []string
	PrintEveryMin int
	Sink          port.Sink
	Repo          port.Repository

	// SnapshotEvery overrides PrintEveryMin when set.
	SnapshotEvery time.Duration
}

type closedCandle struct {
	token  string
	candle domain.Candle
}

type Service struct {
	deps    ServiceDeps
	st      *State
	fmt     *Formatter
	updates chan map[string]float64
	candles chan closedCandle
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		deps:    deps,
		st:      NewState(deps.Tokens),
		fmt:     NewFormatter(deps.Source),
		updates: make(chan map[string]float64, queueSize),
		candles: make(chan closedCandle, queueSize),
	}
}

// HandleCandleClosed 由 feed 在 K 线收盘时调用, 交给 Run 循环持久化
func (s *Service) HandleCandleClosed(token string, c domain.Candle) {
	select {
	case s.candles <- closedCandle{token: token, candle: c}:
	default:
		log.Warn().Str("token", token).Msg("candle queue full, dropping closed candle")
	}
}

func (s *Service) snapshotEvery() time.Duration {
	if s.deps.SnapshotEvery > 0 {
		return s.deps.SnapshotEvery
	}
	minutes := s.deps.PrintEveryMin
	if minutes <= 0 {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) Run(ctx context.Context) error {
	tokens := s.st.Tokens()
	if len(tokens) == 0 {
		return errors.New("no tokens")
	}
	if s.deps.Feed == nil {
		return errors.New("no feed")
	}

	unsubscribe := s.deps.Feed.SubscribeMany(tokens, func(prices map[string]float64) {
		select {
		case s.updates <- prices:
		default:
			// 后续回调携带完整价格表, 丢一次不会丢数据
			log.Debug().Msg("monitor update queue full")
		}
	})
	defer unsubscribe()

	log.Info().Strs("tokens", tokens).Str("source", s.deps.Source).Msg("monitor subscribed")

	// snapshot ticker
	snapTicker := time.NewTicker(s.snapshotEvery())
	defer snapTicker.Stop()

	// initial live line
	_ = s.deps.Sink.WriteLive(s.fmt.Render(s.st, RenderLive))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case now := <-snapTicker.C:
			line := s.fmt.Render(s.st, RenderSnapshot)
			_ = s.deps.Sink.WriteSnapshot(now, line)
			if err := s.deps.Repo.InsertSnapshot(ctx, now.UnixMilli(), line); err != nil {
				log.Warn().Err(err).Msg("persist snapshot failed")
			}

		case prices := <-s.updates:
			now := time.Now()
			changed := s.st.Apply(prices, now)
			for _, t := range changed {
				pct, ok := s.deps.Feed.PercentChange(t)
				s.st.SetChange(t, pct, ok)
			}
			if len(changed) > 0 {
				_ = s.deps.Sink.WriteLive(s.fmt.Render(s.st, RenderLive))
			}
			for _, t := range changed {
				if err := s.deps.Repo.UpsertLatestPrice(ctx, s.deps.Source, t, prices[t], now.UnixMilli()); err != nil {
					log.Warn().Err(err).Str("token", t).Msg("persist latest price failed")
				}
			}

		case cc := <-s.candles:
			if err := s.deps.Repo.InsertCandle(ctx, cc.token, cc.candle); err != nil {
				log.Warn().Err(err).Str("token", cc.token).Msg("persist candle failed")
			}
		}
	}
}
