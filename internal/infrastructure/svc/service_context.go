package svc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"livefeed/internal/application/port"
	"livefeed/internal/application/usecase/feed"
	"livefeed/internal/application/usecase/monitor"
	"livefeed/internal/domain"
	"livefeed/internal/infrastructure/clock"
	"livefeed/internal/infrastructure/config"
	"livefeed/internal/infrastructure/container"
	"livefeed/internal/infrastructure/pricesource"
	"livefeed/internal/interfaces/console"
	"livefeed/internal/interfaces/wsapi"

	// 价格源通过 init() 自注册
	_ "livefeed/internal/infrastructure/exchange/binance"
	_ "livefeed/internal/infrastructure/exchange/bybit"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	container *container.Container
	source    port.PriceSource
	clock     port.Clock

	// 输出端口
	Sink port.Sink

	// 应用业务组件（依赖基础设施）
	feed    *feed.Service
	monitor *monitor.Service
	wsapi   *wsapi.Server

	closeOnce sync.Once
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	return NewWith(ctx, cfg, nil, console.NewSink())
}

// NewWith 允许注入价格源与输出端, source 为 nil 时按配置从注册表创建
func NewWith(ctx context.Context, cfg *config.Config, source port.PriceSource, sink port.Sink) (*ServiceContext, error) {
	if source == nil {
		factory, ok := pricesource.Get(cfg.Source.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownSource,
				cfg.Source.Name, strings.Join(pricesource.Names(), ", "))
		}
		source = factory(pricesource.Options{
			BaseURL: cfg.Source.BaseURL,
			Quote:   cfg.Tokens.Quote,
			Timeout: time.Duration(cfg.Feed.FetchTimeoutMs) * time.Millisecond,
		})
	}

	c, err := container.New(ctx, cfg)
	if err != nil {
		return nil, errors.Join(ErrStorageInitFailed, err)
	}

	sc := &ServiceContext{
		Ctx:       ctx,
		Config:    cfg,
		container: c,
		source:    source,
		clock:     clock.New(),
		Sink:      sink,
	}
	sc.initializeComponents()
	return sc, nil
}

// initializeComponents 按依赖顺序初始化应用组件
// monitor 依赖 feed, feed 的收盘回调又转交给 monitor 持久化
func (sc *ServiceContext) initializeComponents() {
	var mon *monitor.Service
	sc.feed = feed.NewService(sc.Config.FeedConfig(), feed.Deps{
		Source: sc.source,
		Clock:  sc.clock,
		OnCandleClosed: func(token string, c domain.Candle) {
			if mon != nil {
				mon.HandleCandleClosed(token, c)
			}
		},
	})

	mon = monitor.NewService(monitor.ServiceDeps{
		Feed:          sc.feed,
		Source:        sc.source.Name(),
		Tokens:        sc.Config.Tokens.List,
		PrintEveryMin: sc.Config.App.PrintEveryMin,
		Sink:          sc.Sink,
		Repo:          sc.container.Repository(),
	})
	sc.monitor = mon

	if sc.Config.WSAPI.Enabled {
		sc.wsapi = wsapi.New(sc.feed, sc.Config.WSAPI.Addr)
	}

	log.Info().
		Str("source", sc.source.Name()).
		Int("tokens", len(sc.Config.Tokens.List)).
		Bool("wsapi", sc.wsapi != nil).
		Msg("all components initialized")
}

// Feed 获取行情服务
func (sc *ServiceContext) Feed() *feed.Service {
	return sc.feed
}

// Monitor 获取控制台监控
func (sc *ServiceContext) Monitor() *monitor.Service {
	return sc.monitor
}

// WSAPI 获取 websocket 桥, 未启用时为 nil
func (sc *ServiceContext) WSAPI() *wsapi.Server {
	return sc.wsapi
}

// Container 获取存储容器
func (sc *ServiceContext) Container() *container.Container {
	return sc.container
}

// Run 运行 monitor 与 websocket 桥直到 ctx 取消, 任一退出时另一个也随之停止
func (sc *ServiceContext) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if sc.wsapi != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			if err := sc.wsapi.Run(runCtx); err != nil {
				errCh <- fmt.Errorf("wsapi: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := sc.monitor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("monitor: %w", err)
		}
	}()

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close 关闭 ServiceContext 中的所有资源
// 先停止轮询, 再关闭存储
func (sc *ServiceContext) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		if sc.wsapi != nil {
			sc.wsapi.CloseAll()
		}
		if sc.feed != nil {
			sc.feed.Close()
		}
		if sc.container != nil {
			err = sc.container.Close()
		}
	})
	return err
}
