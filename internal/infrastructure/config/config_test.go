package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Parse(`
[tokens]
list = [" btc", "ETH", "btc", ""]
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := strings.Join(cfg.Tokens.List, ","); got != "BTC,ETH" {
		t.Errorf("tokens = %s, want BTC,ETH", got)
	}
	if cfg.Tokens.Quote != "USDT" {
		t.Errorf("quote = %s", cfg.Tokens.Quote)
	}
	if cfg.Source.Name != "binance" {
		t.Errorf("source = %s", cfg.Source.Name)
	}
	if cfg.App.PrintEveryMin != 5 || cfg.App.LogLevel != "info" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Storage.Redis.CandleStream != "livefeed:candles" {
		t.Errorf("candle stream = %s", cfg.Storage.Redis.CandleStream)
	}

	fc := cfg.FeedConfig()
	if fc.BaseInterval != 500*time.Millisecond || fc.MaxInterval != 5*time.Second {
		t.Errorf("intervals = %v/%v", fc.BaseInterval, fc.MaxInterval)
	}
	if fc.CacheTTL != time.Second || fc.BucketWidth != time.Minute || fc.MaxCandles != 100 {
		t.Errorf("feed config = %+v", fc)
	}
	if cfg.StorageEnabled() {
		t.Error("no storage should be enabled by default")
	}
}

func TestLoadFeedOverrides(t *testing.T) {
	cfg, err := Parse(`
[tokens]
list = ["sol"]
quote = "usdc"

[source]
name = "Bybit"

[feed]
base_interval_ms = 250
max_interval_ms = 8000
cache_ttl_ms = 400
bucket_ms = 5000
max_candles = 20
inter_call_pause_ms = 0
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Source.Name != "bybit" || cfg.Tokens.Quote != "USDC" {
		t.Errorf("source=%s quote=%s", cfg.Source.Name, cfg.Tokens.Quote)
	}

	fc := cfg.FeedConfig()
	if fc.BaseInterval != 250*time.Millisecond || fc.MaxInterval != 8*time.Second {
		t.Errorf("intervals = %v/%v", fc.BaseInterval, fc.MaxInterval)
	}
	if fc.CacheTTL != 400*time.Millisecond || fc.BucketWidth != 5*time.Second {
		t.Errorf("ttl=%v bucket=%v", fc.CacheTTL, fc.BucketWidth)
	}
	if fc.MaxCandles != 20 || fc.InterCallPause != 0 {
		t.Errorf("max=%d pause=%v", fc.MaxCandles, fc.InterCallPause)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"empty tokens": `
[tokens]
list = ["  "]
`,
		"max below base": `
[tokens]
list = ["BTC"]
[feed]
base_interval_ms = 2000
max_interval_ms = 1000
`,
		"redis without addr": `
[tokens]
list = ["BTC"]
[storage.redis]
enabled = true
`,
		"sqlite without path": `
[tokens]
list = ["BTC"]
[storage.sqlite]
enabled = true
`,
		"postgres without dsn": `
[tokens]
list = ["BTC"]
[storage.postgres]
enabled = true
`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(data); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[app]
print_every_min = 1
log_level = "debug"

[tokens]
list = ["BTC", "ETH"]

[storage.sqlite]
enabled = true
path = "data/livefeed.db"

[wsapi]
enabled = true
addr = "127.0.0.1:9090"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.PrintEveryMin != 1 || cfg.App.LogLevel != "debug" {
		t.Errorf("app = %+v", cfg.App)
	}
	if !cfg.StorageEnabled() || cfg.Storage.SQLite.Path != "data/livefeed.db" {
		t.Errorf("sqlite = %+v", cfg.Storage.SQLite)
	}
	if !cfg.WSAPI.Enabled || cfg.WSAPI.Addr != "127.0.0.1:9090" {
		t.Errorf("wsapi = %+v", cfg.WSAPI)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
