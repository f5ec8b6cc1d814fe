package domain

import (
	"math"
	"time"
)

// MaxPercentChange bounds the display percent change in both directions.
const MaxPercentChange = 50.0

// Candle is the OHLC summary of all ticks inside one bucket.
type Candle struct {
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// BucketStart floors t to a multiple of width, aligned to the Unix epoch.
func BucketStart(t time.Time, width time.Duration) time.Time {
	w := width.Milliseconds()
	if w <= 0 {
		return t
	}
	ms := t.UnixMilli()
	b := ms / w * w
	if ms < 0 && ms%w != 0 {
		b -= w
	}
	return time.UnixMilli(b)
}

// CandleSeries is the bounded, time-ordered candle window of one token.
// The last candle is the open one; every earlier candle is closed.
type CandleSeries struct {
	width   time.Duration
	max     int
	candles []Candle
}

func NewCandleSeries(width time.Duration, max int) *CandleSeries {
	if max < 1 {
		max = 1
	}
	return &CandleSeries{
		width:   width,
		max:     max,
		candles: make([]Candle, 0, max),
	}
}

// Apply folds one tick into the series.
// accepted is false when the tick belongs to a bucket older than the open candle.
// closed is non-nil when the tick started a new bucket; it is the candle that just closed.
func (s *CandleSeries) Apply(at time.Time, price, volume float64) (closed *Candle, accepted bool) {
	bucket := BucketStart(at, s.width)

	n := len(s.candles)
	if n == 0 {
		s.candles = append(s.candles, Candle{
			BucketStart: bucket,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Volume:      volume,
		})
		return nil, true
	}

	last := &s.candles[n-1]
	switch {
	case bucket.Equal(last.BucketStart):
		last.High = math.Max(last.High, price)
		last.Low = math.Min(last.Low, price)
		last.Close = price
		last.Volume += volume
		return nil, true
	case bucket.Before(last.BucketStart):
		return nil, false
	}

	prev := *last
	// 新桶以首笔成交开盘, 保证 low <= open <= high
	next := Candle{
		BucketStart: bucket,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      volume,
	}
	if n >= s.max {
		// drop the oldest in place so the backing array never grows past max
		copy(s.candles, s.candles[1:])
		s.candles[n-1] = next
	} else {
		s.candles = append(s.candles, next)
	}
	return &prev, true
}

// Len returns the number of candles held.
func (s *CandleSeries) Len() int { return len(s.candles) }

// Candles returns a copy of the window, oldest first.
func (s *CandleSeries) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Trailing returns the open candle.
func (s *CandleSeries) Trailing() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// PercentChange compares the open candle's close against the close of the candle right
// before it, clamped to ±MaxPercentChange. ok is false until two candles exist.
func (s *CandleSeries) PercentChange() (pct float64, ok bool) {
	n := len(s.candles)
	if n < 2 {
		return 0, false
	}
	base := s.candles[n-2].Close
	if base == 0 {
		return 0, false
	}
	pct = (s.candles[n-1].Close - base) / base * 100
	return ClampPercent(pct), true
}

// ClampPercent limits pct to [-MaxPercentChange, MaxPercentChange].
func ClampPercent(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return math.Max(-MaxPercentChange, math.Min(MaxPercentChange, pct))
}
