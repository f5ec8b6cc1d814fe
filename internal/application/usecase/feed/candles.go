package feed

import (
	"sync"
	"time"

	"livefeed/internal/domain"
)

// CandleClosedFunc is called when a tick rolls a token's series into a new bucket.
type CandleClosedFunc func(token string, c domain.Candle)

type tokenSeries struct {
	mu     sync.Mutex
	series *domain.CandleSeries
}

// Aggregator keeps one bounded candle series per token. Each series has its own lock.
type Aggregator struct {
	mu       sync.RWMutex
	width    time.Duration
	max      int
	series   map[string]*tokenSeries
	onClosed CandleClosedFunc
}

func NewAggregator(width time.Duration, max int, onClosed CandleClosedFunc) *Aggregator {
	return &Aggregator{
		width:    width,
		max:      max,
		series:   make(map[string]*tokenSeries),
		onClosed: onClosed,
	}
}

func (a *Aggregator) get(token string, create bool) *tokenSeries {
	a.mu.RLock()
	ts := a.series[token]
	a.mu.RUnlock()
	if ts != nil || !create {
		return ts
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if ts = a.series[token]; ts == nil {
		ts = &tokenSeries{series: domain.NewCandleSeries(a.width, a.max)}
		a.series[token] = ts
	}
	return ts
}

// Apply folds a tick into the token's series. Returns false if the tick was dropped as stale.
func (a *Aggregator) Apply(token string, at time.Time, price, volume float64) bool {
	ts := a.get(token, true)

	ts.mu.Lock()
	closed, ok := ts.series.Apply(at, price, volume)
	ts.mu.Unlock()

	if closed != nil && a.onClosed != nil {
		a.onClosed(token, *closed)
	}
	return ok
}

// Candles returns a copy of the token's window, oldest first.
func (a *Aggregator) Candles(token string) []domain.Candle {
	ts := a.get(token, false)
	if ts == nil {
		return nil
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.series.Candles()
}

// PercentChange is the clamped change of the open candle against the previous close.
func (a *Aggregator) PercentChange(token string) (float64, bool) {
	ts := a.get(token, false)
	if ts == nil {
		return 0, false
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.series.PercentChange()
}
