// Package ratelimit counts attempts per client key inside a time window.
//
// Memory keeps counters in-process and suits a single instance; Redis
// shares counters between instances. Callers depend only on Limiter.
package ratelimit

import (
	"context"
	"time"
)

// Limiter throttles repeated attempts from one key (usually a client address).
type Limiter interface {
	// IsLimited reports whether key has reached the attempt ceiling.
	IsLimited(ctx context.Context, key string) (bool, error)
	// RecordAttempt counts one attempt and restarts the window for key.
	RecordAttempt(ctx context.Context, key string) error
	// Clear forgets every attempt recorded for key.
	Clear(ctx context.Context, key string) error
}

// Policy is the attempt ceiling and the window it applies to.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Window <= 0 {
		p.Window = 15 * time.Minute
	}
	return p
}
