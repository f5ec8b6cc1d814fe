package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_prices (
  source TEXT NOT NULL,
  token TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  PRIMARY KEY (source, token)
);

CREATE TABLE IF NOT EXISTS candles (
  id BIGSERIAL PRIMARY KEY,
  token TEXT NOT NULL,
  bucket_ms BIGINT NOT NULL,
  open DOUBLE PRECISION NOT NULL,
  high DOUBLE PRECISION NOT NULL,
  low DOUBLE PRECISION NOT NULL,
  close DOUBLE PRECISION NOT NULL,
  volume DOUBLE PRECISION NOT NULL,
  UNIQUE (token, bucket_ms)
);

CREATE TABLE IF NOT EXISTS snapshots (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, token string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_prices(source, token, price, ts_ms) VALUES($1, $2, $3, $4)
		ON CONFLICT (source, token) DO UPDATE SET price = EXCLUDED.price, ts_ms = EXCLUDED.ts_ms
	`, source, token, price, ts)
	return err
}

func (r *Repo) InsertCandle(ctx context.Context, token string, c domain.Candle) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO candles(token, bucket_ms, open, high, low, close, volume)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token, bucket_ms) DO UPDATE SET
		open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		close = EXCLUDED.close, volume = EXCLUDED.volume
	`, token, c.BucketStart.UnixMilli(), c.Open, c.High, c.Low, c.Close, c.Volume)
	return err
}

// ListCandles 返回最近 limit 根 K 线, 按时间升序
func (r *Repo) ListCandles(ctx context.Context, token string, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT bucket_ms, open, high, low, close, volume FROM (
		  SELECT * FROM candles WHERE token = $1 ORDER BY bucket_ms DESC LIMIT $2
		) t ORDER BY bucket_ms ASC
	`, token, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candle
	for rows.Next() {
		var bucket int64
		var c domain.Candle
		if err := rows.Scan(&bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.BucketStart = time.UnixMilli(bucket)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots(ts_ms, payload) VALUES($1, $2)`, ts, payload)
	return err
}

var (
	_ port.Repository   = (*Repo)(nil)
	_ port.CandleReader = (*Repo)(nil)
)
