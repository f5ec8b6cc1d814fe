package svc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"livefeed/internal/infrastructure/config"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchPrice(_ context.Context, token string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return 100 + float64(s.calls), nil
}

type nopSink struct{}

func (nopSink) WriteLive(string) error { return nil }
func (nopSink) WriteSnapshot(time.Time, string) error { return nil }
func (nopSink) NewLine() error { return nil }

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(`
[tokens]
list = ["BTC"]

[feed]
base_interval_ms = 10
max_interval_ms = 100
cache_ttl_ms = 50
inter_call_pause_ms = 0
` + extra)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestServiceContextWiresFeedToStorage(t *testing.T) {
	cfg := testConfig(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc, err := NewWith(ctx, cfg, &stubSource{}, nopSink{})
	if err != nil {
		t.Fatalf("NewWith failed: %v", err)
	}
	defer sc.Close()

	if sc.WSAPI() != nil {
		t.Error("wsapi should be disabled by default")
	}

	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	mem := sc.Container().MemoryRepo()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if lp, ok := mem.Latest("stub", "BTC"); ok && lp.Price > 100 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("latest price never persisted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !sc.Feed().Running() {
		t.Error("feed should be polling while monitor is subscribed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if sc.Feed().Running() {
		t.Error("feed should stop once the monitor unsubscribes")
	}
}

func TestServiceContextUnknownSource(t *testing.T) {
	cfg := testConfig(t, `
[source]
name = "nowhere"
`)
	_, err := NewWith(context.Background(), cfg, nil, nopSink{})
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestServiceContextRegisteredSources(t *testing.T) {
	for _, name := range []string{"binance", "bybit"} {
		cfg := testConfig(t, `
[source]
name = "` + name + `"
`)
		sc, err := NewWith(context.Background(), cfg, nil, nopSink{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if sc.source.Name() != name {
			t.Errorf("source = %s, want %s", sc.source.Name(), name)
		}
		_ = sc.Close()
	}
}
