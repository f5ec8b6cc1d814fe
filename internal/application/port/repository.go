package port

import (
	"context"

	"livefeed/internal/domain"
)

type Repository interface {
	// Price operations
	UpsertLatestPrice(ctx context.Context, source, token string, price float64, ts int64) error

	// Candle operations
	InsertCandle(ctx context.Context, token string, c domain.Candle) error

	// Snapshot operations
	InsertSnapshot(ctx context.Context, ts int64, payload string) error

	// Connection management
	Close() error
}

// CandleReader is implemented by repositories that can serve candle history back.
type CandleReader interface {
	ListCandles(ctx context.Context, token string, limit int) ([]domain.Candle, error)
}
