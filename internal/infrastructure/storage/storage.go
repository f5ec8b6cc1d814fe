package storage

import (
	"context"
	"sync"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"
)

// LatestPrice represents the last persisted price of a token
type LatestPrice struct {
	Source string
	Token  string
	Price  float64
	Ts     int64
}

// Snapshot represents a single snapshot line
type Snapshot struct {
	Ts      int64
	Payload string
}

// MemoryRepository is an in-process Repository used when no backend is configured.
// Candle history per token is capped at maxCandles.
type MemoryRepository struct {
	mu         sync.RWMutex
	maxCandles int
	latest     map[string]LatestPrice
	candles    map[string][]domain.Candle
	snapshots  []Snapshot
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository(maxCandles int) *MemoryRepository {
	if maxCandles <= 0 {
		maxCandles = 1000
	}
	return &MemoryRepository{
		maxCandles: maxCandles,
		latest:     make(map[string]LatestPrice),
		candles:    make(map[string][]domain.Candle),
	}
}

func (r *MemoryRepository) UpsertLatestPrice(ctx context.Context, source, token string, price float64, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[source+":"+token] = LatestPrice{Source: source, Token: token, Price: price, Ts: ts}
	return nil
}

// Latest returns the last price stored for source/token
func (r *MemoryRepository) Latest(source, token string) (LatestPrice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lp, ok := r.latest[source+":"+token]
	return lp, ok
}

func (r *MemoryRepository) InsertCandle(ctx context.Context, token string, c domain.Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.candles[token]
	if n := len(list); n > 0 && list[n-1].BucketStart.Equal(c.BucketStart) {
		list[n-1] = c
		return nil
	}
	list = append(list, c)
	if len(list) > r.maxCandles {
		list = append([]domain.Candle(nil), list[len(list)-r.maxCandles:]...)
	}
	r.candles[token] = list
	return nil
}

func (r *MemoryRepository) ListCandles(ctx context.Context, token string, limit int) ([]domain.Candle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.candles[token]
	if limit <= 0 {
		return nil, nil
	}
	if limit < len(list) {
		list = list[len(list)-limit:]
	}
	return append([]domain.Candle(nil), list...), nil
}

func (r *MemoryRepository) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, Snapshot{Ts: ts, Payload: payload})
	return nil
}

// Snapshots returns a copy of the stored snapshots
func (r *MemoryRepository) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Snapshot(nil), r.snapshots...)
}

func (r *MemoryRepository) Close() error {
	return nil
}

var (
	_ port.Repository   = (*MemoryRepository)(nil)
	_ port.CandleReader = (*MemoryRepository)(nil)
)
