package moderation

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum spacing between remote moderation calls.
const DefaultMinInterval = 1000 * time.Millisecond

// RateLimiter admits at most one call per interval, process-wide.
// A rejected caller is expected to fall back, never to wait.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter creates a limiter with the given minimum interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Allow reports whether a call may start at now. An allowed call is recorded
// before Allow returns, so concurrent callers cannot both pass.
func (l *RateLimiter) Allow(now time.Time) bool {
	return l.limiter.AllowN(now, 1)
}

// Interval returns the configured minimum interval.
func (l *RateLimiter) Interval() time.Duration {
	return l.interval
}
