package wsapi

import (
	"time"

	"livefeed/internal/domain"
)

// 客户端请求
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// 服务端推送类型
const (
	TypeWelcome = "welcome"
	TypePrices  = "prices"
	TypeAck     = "ack"
	TypeError   = "error"
)

// Request 客户端消息, 例: {"op":"subscribe","tokens":["BTC","ETH"]}
type Request struct {
	Op     string   `json:"op"`
	Tokens []string `json:"tokens,omitempty"`
}

// Frame 服务端消息
type Frame struct {
	Type     string             `json:"type"`
	ClientID string             `json:"client_id,omitempty"`
	Tokens   []string           `json:"tokens,omitempty"`
	Prices   map[string]float64 `json:"prices,omitempty"`
	Error    string             `json:"error,omitempty"`
	Ts       int64              `json:"ts"`
}

// CandleView /candles 接口的单根 K 线
type CandleView struct {
	BucketStart int64   `json:"bucket_start_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

// CandlesResponse /candles 响应
type CandlesResponse struct {
	Token         string       `json:"token"`
	Candles       []CandleView `json:"candles"`
	PercentChange *float64     `json:"percent_change,omitempty"`
}

// StatusResponse /status 响应
type StatusResponse struct {
	Running           bool     `json:"running"`
	ActiveTokens      []string `json:"active_tokens"`
	IntervalMs        int64    `json:"interval_ms"`
	RateLimitedUntil  int64    `json:"rate_limited_until_ms,omitempty"`
	ConsecutiveErrors int      `json:"consecutive_errors"`
	Clients           int      `json:"clients"`
	// 每个活跃 token 最近一次拉取的时间, 未拉取过的不出现
	LastFetch map[string]int64 `json:"last_fetch_ms,omitempty"`
}

func candleViews(cs []domain.Candle) []CandleView {
	out := make([]CandleView, 0, len(cs))
	for _, c := range cs {
		out = append(out, CandleView{
			BucketStart: c.BucketStart.UnixMilli(),
			Open:        c.Open,
			High:        c.High,
			Low:         c.Low,
			Close:       c.Close,
			Volume:      c.Volume,
		})
	}
	return out
}

func nowMs() int64 { return time.Now().UnixMilli() }
