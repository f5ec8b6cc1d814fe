package feed

import "time"

// Config holds feed tuning. All values are fixed at construction.
type Config struct {
	BaseInterval   time.Duration // fastest poll cadence (default: 500ms)
	MaxInterval    time.Duration // slowest poll cadence (default: 5s)
	CacheTTL       time.Duration // max age of a served price (default: 1s)
	BucketWidth    time.Duration // candle width (default: 1m)
	MaxCandles     int           // candles kept per token (default: 100)
	InterCallPause time.Duration // pause between two adapter calls in one cycle (default: 50ms)
	FetchTimeout   time.Duration // per-call timeout (default: 5s)

	BackoffStep          time.Duration // cooldown added per consecutive rate limit (default: 2s)
	MaxConsecutiveErrors int           // errors before the extended cooldown (default: 5)
	ExtendedCooldown     time.Duration // (default: 30s)

	SuccessDecay    float64 // interval multiplier on success (default: 0.8)
	RateLimitGrowth float64 // interval multiplier on rate limit (default: 1.5)
	ErrorGrowth     float64 // interval multiplier on other errors (default: 1.2)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseInterval:         500 * time.Millisecond,
		MaxInterval:          5 * time.Second,
		CacheTTL:             time.Second,
		BucketWidth:          time.Minute,
		MaxCandles:           100,
		InterCallPause:       50 * time.Millisecond,
		FetchTimeout:         5 * time.Second,
		BackoffStep:          2 * time.Second,
		MaxConsecutiveErrors: 5,
		ExtendedCooldown:     30 * time.Second,
		SuccessDecay:         0.8,
		RateLimitGrowth:      1.5,
		ErrorGrowth:          1.2,
	}
}

// withDefaults fills zero fields from DefaultConfig and keeps MaxInterval >= BaseInterval.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseInterval <= 0 {
		c.BaseInterval = d.BaseInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.MaxInterval < c.BaseInterval {
		c.MaxInterval = c.BaseInterval
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.BucketWidth <= 0 {
		c.BucketWidth = d.BucketWidth
	}
	if c.MaxCandles <= 0 {
		c.MaxCandles = d.MaxCandles
	}
	if c.InterCallPause < 0 {
		c.InterCallPause = 0
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.BackoffStep <= 0 {
		c.BackoffStep = d.BackoffStep
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = d.MaxConsecutiveErrors
	}
	if c.ExtendedCooldown <= 0 {
		c.ExtendedCooldown = d.ExtendedCooldown
	}
	if c.SuccessDecay <= 0 || c.SuccessDecay > 1 {
		c.SuccessDecay = d.SuccessDecay
	}
	if c.RateLimitGrowth < 1 {
		c.RateLimitGrowth = d.RateLimitGrowth
	}
	if c.ErrorGrowth < 1 {
		c.ErrorGrowth = d.ErrorGrowth
	}
	return c
}
