package composite

import (
	"context"
	"errors"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"
)

// Repo 将写操作扇出到多个仓储, 读操作取第一个支持 CandleReader 的仓储
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, token string, price float64, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestPrice(ctx, source, token, price, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertCandle(ctx context.Context, token string, c domain.Candle) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertCandle(ctx, token, c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertSnapshot(ctx, ts, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) ListCandles(ctx context.Context, token string, limit int) ([]domain.Candle, error) {
	for _, repo := range r.repos {
		if reader, ok := repo.(port.CandleReader); ok {
			return reader.ListCandles(ctx, token, limit)
		}
	}
	return nil, nil
}

// Close 关闭全部子仓储, 返回合并后的错误
func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ port.Repository   = (*Repo)(nil)
	_ port.CandleReader = (*Repo)(nil)
)
