package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"livefeed/internal/domain"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepoUpsertPrice(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.UpsertLatestPrice(ctx, "binance", "BTC", 45000.0, 1000); err != nil {
		t.Fatalf("UpsertLatestPrice failed: %v", err)
	}
	if err := repo.UpsertLatestPrice(ctx, "binance", "BTC", 45100.5, 2000); err != nil {
		t.Fatalf("UpsertLatestPrice failed: %v", err)
	}

	price, ts, err := repo.GetLatestPrice(ctx, "binance", "BTC")
	if err != nil {
		t.Fatalf("GetLatestPrice failed: %v", err)
	}
	if price != 45100.5 || ts != 2000 {
		t.Errorf("expected price=45100.5 ts=2000, got %v %v", price, ts)
	}
}

func TestSQLiteRepoCandles(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_040_000)

	for i := 0; i < 5; i++ {
		c := domain.Candle{
			BucketStart: base.Add(time.Duration(i) * time.Minute),
			Open:        float64(100 + i),
			High:        float64(110 + i),
			Low:         float64(90 + i),
			Close:       float64(105 + i),
		}
		if err := repo.InsertCandle(ctx, "ETH", c); err != nil {
			t.Fatalf("InsertCandle failed: %v", err)
		}
	}
	// 重复 bucket 覆盖
	if err := repo.InsertCandle(ctx, "ETH", domain.Candle{
		BucketStart: base.Add(4 * time.Minute), Open: 104, High: 120, Low: 94, Close: 119,
	}); err != nil {
		t.Fatalf("InsertCandle failed: %v", err)
	}

	got, err := repo.ListCandles(ctx, "ETH", 3)
	if err != nil {
		t.Fatalf("ListCandles failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	if !got[0].BucketStart.Equal(base.Add(2*time.Minute)) || !got[2].BucketStart.Equal(base.Add(4*time.Minute)) {
		t.Errorf("unexpected order: %v .. %v", got[0].BucketStart, got[2].BucketStart)
	}
	if got[2].High != 120 || got[2].Close != 119 {
		t.Errorf("expected overwritten candle, got %+v", got[2])
	}

	other, err := repo.ListCandles(ctx, "BTC", 10)
	if err != nil {
		t.Fatalf("ListCandles failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no BTC candles, got %d", len(other))
	}
}

func TestSQLiteRepoSnapshots(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		if err := repo.InsertSnapshot(ctx, 1000+i, "BTC 45000.00"); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}
	n, err := repo.CountSnapshots(ctx)
	if err != nil {
		t.Fatalf("CountSnapshots failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 snapshots, got %d", n)
	}
}
