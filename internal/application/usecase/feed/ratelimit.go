package feed

import (
	"math"
	"sync"
	"time"

	"livefeed/internal/application/port"
)

// RateLimitState is the adaptive polling state. Backing off means RateLimitedUntil is in the future.
type RateLimitState struct {
	CurrentInterval   time.Duration
	RateLimitedUntil  time.Time
	ConsecutiveErrors int
}

// RateLimiter owns the polling interval and the cooldown window.
// BaseInterval <= CurrentInterval <= MaxInterval holds after every transition.
type RateLimiter struct {
	mu  sync.Mutex
	cfg Config
	st  RateLimitState
}

func NewRateLimiter(cfg Config) *RateLimiter {
	cfg = cfg.withDefaults()
	return &RateLimiter{
		cfg: cfg,
		st:  RateLimitState{CurrentInterval: cfg.BaseInterval},
	}
}

// State returns a copy of the current state.
func (r *RateLimiter) State() RateLimitState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st
}

// BackingOff reports whether now falls inside the cooldown window.
func (r *RateLimiter) BackingOff(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Before(r.st.RateLimitedUntil)
}

// NextDelay returns how long the scheduler waits before the next cycle.
// Inside a cooldown window it is the remaining cooldown, floored at the current
// interval: a short first cooldown step must not undercut a grown interval.
func (r *RateLimiter) NextDelay(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Before(r.st.RateLimitedUntil) {
		if d := r.st.RateLimitedUntil.Sub(now); d > r.st.CurrentInterval {
			return d
		}
	}
	return r.st.CurrentInterval
}

// OnSuccess decays the interval toward BaseInterval and clears the error streak.
func (r *RateLimiter) OnSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.st.ConsecutiveErrors = 0
	r.st.CurrentInterval = r.clamp(scale(r.st.CurrentInterval, r.cfg.SuccessDecay))
}

// OnError applies the transition for a failed fetch observed at now.
func (r *RateLimiter) OnError(kind port.ErrorKind, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.st.ConsecutiveErrors++

	switch kind {
	case port.KindRateLimited:
		r.st.RateLimitedUntil = now.Add(time.Duration(r.st.ConsecutiveErrors) * r.cfg.BackoffStep)
		r.st.CurrentInterval = r.clamp(scale(r.st.CurrentInterval, r.cfg.RateLimitGrowth))
	case port.KindNetwork:
		r.st.CurrentInterval = r.clamp(scale(r.st.CurrentInterval, r.cfg.ErrorGrowth))
	case port.KindMalformed:
		// payload ignored, cadence unchanged
	}

	if r.st.ConsecutiveErrors >= r.cfg.MaxConsecutiveErrors {
		r.st.RateLimitedUntil = now.Add(r.cfg.ExtendedCooldown)
	}
}

func (r *RateLimiter) clamp(d time.Duration) time.Duration {
	if d < r.cfg.BaseInterval {
		return r.cfg.BaseInterval
	}
	if d > r.cfg.MaxInterval {
		return r.cfg.MaxInterval
	}
	return d
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(math.Round(float64(d) * f))
}
