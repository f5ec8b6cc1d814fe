package feed

import (
	"testing"
	"time"

	"livefeed/internal/infrastructure/clock"
)

func TestCacheTTLBoundary(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := NewCache(clk, time.Second)

	c.Set("BTC", 42)

	clk.Advance(999 * time.Millisecond)
	if p, ok := c.Get("BTC"); !ok || p != 42 {
		t.Fatalf("at TTL-1ms: got %v ok=%v, want 42", p, ok)
	}

	clk.Advance(2 * time.Millisecond)
	if _, ok := c.Get("BTC"); ok {
		t.Fatal("at TTL+1ms: expected miss")
	}

	if p, _, ok := c.Peek("BTC"); !ok || p != 42 {
		t.Errorf("peek = %v ok=%v, want stale 42", p, ok)
	}
}

func TestCacheExactTTLIsMiss(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := NewCache(clk, time.Second)

	c.Set("ETH", 1)
	clk.Advance(time.Second)
	if _, ok := c.Get("ETH"); ok {
		t.Fatal("entry exactly TTL old must be a miss")
	}
}

func TestCacheOverwriteAndDelete(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := NewCache(clk, time.Second)

	c.Set("SOL", 1)
	clk.Advance(900 * time.Millisecond)
	c.Set("SOL", 2)
	clk.Advance(900 * time.Millisecond)

	if p, ok := c.Get("SOL"); !ok || p != 2 {
		t.Fatalf("got %v ok=%v, want 2", p, ok)
	}

	c.Delete("SOL")
	if _, _, ok := c.Peek("SOL"); ok {
		t.Fatal("deleted entry still present")
	}
}
