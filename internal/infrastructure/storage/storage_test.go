package storage

import (
	"context"
	"testing"
	"time"

	"livefeed/internal/domain"
)

func TestMemoryRepositoryLatest(t *testing.T) {
	r := NewMemoryRepository(10)
	ctx := context.Background()

	_ = r.UpsertLatestPrice(ctx, "binance", "BTC", 100, 1)
	_ = r.UpsertLatestPrice(ctx, "binance", "BTC", 101, 2)

	lp, ok := r.Latest("binance", "BTC")
	if !ok || lp.Price != 101 || lp.Ts != 2 {
		t.Fatalf("unexpected latest: %+v ok=%v", lp, ok)
	}
	if _, ok := r.Latest("bybit", "BTC"); ok {
		t.Error("expected no bybit price")
	}
}

func TestMemoryRepositoryCandlesBounded(t *testing.T) {
	r := NewMemoryRepository(3)
	ctx := context.Background()
	base := time.Unix(1_700_000_040, 0)

	for i := 0; i < 5; i++ {
		c := domain.Candle{BucketStart: base.Add(time.Duration(i) * time.Minute), Close: float64(i)}
		if err := r.InsertCandle(ctx, "BTC", c); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := r.ListCandles(ctx, "BTC", 10)
	if len(all) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(all))
	}
	if all[0].Close != 2 || all[2].Close != 4 {
		t.Errorf("expected most recent retained, got %v..%v", all[0].Close, all[2].Close)
	}

	last, _ := r.ListCandles(ctx, "BTC", 1)
	if len(last) != 1 || last[0].Close != 4 {
		t.Errorf("unexpected tail: %+v", last)
	}
}

func TestMemoryRepositorySnapshots(t *testing.T) {
	r := NewMemoryRepository(0)
	_ = r.InsertSnapshot(context.Background(), 5, "BTC 1.00")
	got := r.Snapshots()
	if len(got) != 1 || got[0].Payload != "BTC 1.00" {
		t.Fatalf("unexpected snapshots: %+v", got)
	}
}
