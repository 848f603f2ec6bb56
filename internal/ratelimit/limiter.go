// Package ratelimit implements fixed-window request limits keyed by caller.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return time.Duration(math.Ceil(wait.Seconds())) * time.Second
}

// Limiter counts requests per key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Close() error
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
