package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"livefeed/internal/application/port"
	"livefeed/internal/domain"

	"github.com/redis/go-redis/v9"
)

// 最近快照保留条数
const snapshotKeep = 500

type Repo struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	keyLatest    string // prefix + ":latest"
	keySnapshots string // prefix + ":snapshots"
	candleStream string
	candleChan   string
}

type LatestPrice struct {
	Source string  `json:"source"`
	Token  string  `json:"token"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"`
}

// CandleMessage 收盘 K 线的 PUBLISH 负载
type CandleMessage struct {
	Token       string  `json:"token"`
	BucketStart int64   `json:"bucket_start_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, candleStream, candleChan string) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "livefeed"
	}
	if strings.TrimSpace(candleStream) == "" {
		candleStream = prefix + ":candles"
	}
	if strings.TrimSpace(candleChan) == "" {
		candleChan = prefix + ":candles:live"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		keyLatest:    prefix + ":latest",
		keySnapshots: prefix + ":snapshots",
		candleStream: candleStream,
		candleChan:   candleChan,
	}
}

func (r *Repo) Close() error { return r.rdb.Close() }

// LatestField 最新价 hash 的字段名, 例: "binance:BTC"
func LatestField(source, token string) string {
	return fmt.Sprintf("%s:%s", source, token)
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, token string, price float64, ts int64) error {
	if price <= 0 {
		return nil
	}
	b, err := json.Marshal(LatestPrice{Source: source, Token: token, Price: price, Ts: ts})
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, LatestField(source, token), string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertCandle(ctx context.Context, token string, c domain.Candle) error {
	msg := candleMessage(token, c)

	// 1) Stream: XADD <stream> * token bucket ohlcv
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.candleStream,
		Values: map[string]any{
			"token":           msg.Token,
			"bucket_start_ms": msg.BucketStart,
			"open":            msg.Open,
			"high":            msg.High,
			"low":             msg.Low,
			"close":           msg.Close,
			"volume":          msg.Volume,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.candleStream, err)
	}

	// 2) PubSub: PUBLISH <channel> json
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.candleChan, string(b)).Err()
}

// InsertSnapshot 写入快照列表, 只保留最近 snapshotKeep 条
func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	pipe := r.rdb.Pipeline()
	pipe.LPush(ctx, r.keySnapshots, fmt.Sprintf("%d|%s", ts, payload))
	pipe.LTrim(ctx, r.keySnapshots, 0, snapshotKeep-1)
	_, err := pipe.Exec(ctx)
	return err
}

func candleMessage(token string, c domain.Candle) CandleMessage {
	return CandleMessage{
		Token:       token,
		BucketStart: c.BucketStart.UnixMilli(),
		Open:        c.Open,
		High:        c.High,
		Low:         c.Low,
		Close:       c.Close,
		Volume:      c.Volume,
	}
}

var _ port.Repository = (*Repo)(nil)
