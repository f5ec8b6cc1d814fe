package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"livefeed/internal/application/usecase/feed"
	"livefeed/internal/domain"
)

type Config struct {
	App struct {
		PrintEveryMin int    `toml:"print_every_min"`
		LogLevel      string `toml:"log_level"`
	} `toml:"app"`

	Tokens struct {
		List  []string `toml:"list"`
		Quote string   `toml:"quote"`
	} `toml:"tokens"`

	Feed struct {
		BaseIntervalMs   int `toml:"base_interval_ms"`
		MaxIntervalMs    int `toml:"max_interval_ms"`
		CacheTTLMs       int `toml:"cache_ttl_ms"`
		BucketMs         int `toml:"bucket_ms"`
		MaxCandles       int `toml:"max_candles"`
		InterCallPauseMs int `toml:"inter_call_pause_ms"`
		FetchTimeoutMs   int `toml:"fetch_timeout_ms"`
	} `toml:"feed"`

	Source struct {
		Name    string `toml:"name"`
		BaseURL string `toml:"base_url"` // 留空使用交易所默认地址
	} `toml:"source"`

	Storage struct {
		Redis struct {
			Enabled       bool   `toml:"enabled"`
			Addr          string `toml:"addr"`
			Password      string `toml:"password"`
			DB            int    `toml:"db"`
			Prefix        string `toml:"prefix"`
			TTLSeconds    int    `toml:"ttl_seconds"`
			CandleStream  string `toml:"candle_stream"`
			CandleChannel string `toml:"candle_channel"`
		} `toml:"redis"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`

	WSAPI struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"wsapi"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse 从字符串加载配置, 主要用于测试
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	d := feed.DefaultConfig()

	if cfg.App.PrintEveryMin <= 0 {
		cfg.App.PrintEveryMin = 5
	}
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Tokens.Quote) == "" {
		cfg.Tokens.Quote = "USDT"
	}
	if strings.TrimSpace(cfg.Source.Name) == "" {
		cfg.Source.Name = "binance"
	}

	if cfg.Feed.BaseIntervalMs <= 0 {
		cfg.Feed.BaseIntervalMs = int(d.BaseInterval / time.Millisecond)
	}
	if cfg.Feed.MaxIntervalMs <= 0 {
		cfg.Feed.MaxIntervalMs = int(d.MaxInterval / time.Millisecond)
	}
	if cfg.Feed.CacheTTLMs <= 0 {
		cfg.Feed.CacheTTLMs = int(d.CacheTTL / time.Millisecond)
	}
	if cfg.Feed.BucketMs <= 0 {
		cfg.Feed.BucketMs = int(d.BucketWidth / time.Millisecond)
	}
	if cfg.Feed.MaxCandles <= 0 {
		cfg.Feed.MaxCandles = d.MaxCandles
	}
	if cfg.Feed.InterCallPauseMs < 0 {
		cfg.Feed.InterCallPauseMs = 0
	}
	if cfg.Feed.FetchTimeoutMs <= 0 {
		cfg.Feed.FetchTimeoutMs = int(d.FetchTimeout / time.Millisecond)
	}

	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "livefeed"
	}
	if cfg.Storage.Redis.CandleStream == "" {
		cfg.Storage.Redis.CandleStream = cfg.Storage.Redis.Prefix + ":candles"
	}
	if cfg.Storage.Redis.CandleChannel == "" {
		cfg.Storage.Redis.CandleChannel = cfg.Storage.Redis.Prefix + ":candles:live"
	}
	if cfg.WSAPI.Addr == "" {
		cfg.WSAPI.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	cfg.Tokens.List = domain.NormalizeTokens(cfg.Tokens.List)
	if len(cfg.Tokens.List) == 0 {
		return errors.New("tokens.list is empty")
	}
	cfg.Tokens.Quote = strings.ToUpper(strings.TrimSpace(cfg.Tokens.Quote))
	cfg.Source.Name = strings.ToLower(strings.TrimSpace(cfg.Source.Name))

	if cfg.Feed.MaxIntervalMs < cfg.Feed.BaseIntervalMs {
		return fmt.Errorf("feed.max_interval_ms (%d) < feed.base_interval_ms (%d)",
			cfg.Feed.MaxIntervalMs, cfg.Feed.BaseIntervalMs)
	}

	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.SQLite.Enabled && strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		return errors.New("storage.sqlite.path empty but enabled")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.WSAPI.Enabled && strings.TrimSpace(cfg.WSAPI.Addr) == "" {
		return errors.New("wsapi.addr empty but enabled")
	}
	return nil
}

// FeedConfig 将 [feed] 表转换为 feed.Config, 其余调参项取默认值
func (c *Config) FeedConfig() feed.Config {
	fc := feed.DefaultConfig()
	fc.BaseInterval = ms(c.Feed.BaseIntervalMs)
	fc.MaxInterval = ms(c.Feed.MaxIntervalMs)
	fc.CacheTTL = ms(c.Feed.CacheTTLMs)
	fc.BucketWidth = ms(c.Feed.BucketMs)
	fc.MaxCandles = c.Feed.MaxCandles
	fc.InterCallPause = ms(c.Feed.InterCallPauseMs)
	fc.FetchTimeout = ms(c.Feed.FetchTimeoutMs)
	return fc
}

// StorageEnabled 是否启用了任一持久化后端
func (c *Config) StorageEnabled() bool {
	return c.Storage.Redis.Enabled || c.Storage.SQLite.Enabled || c.Storage.Postgres.Enabled
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
