// Package ratelimit throttles outbound calls to the extraction backend.
// YouTube blocks request bursts long before it blocks volume, so a minimum
// spacing between calls is enforced process-wide.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between granted acquisitions. It is
// safe for concurrent use; waiters are served in FIFO order by the
// underlying token bucket.
type Limiter struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	granted     int64
	lastGrant   time.Time
	minInterval time.Duration
}

// New creates a limiter with the given minimum spacing. A zero or negative
// interval disables throttling.
func New(minInterval time.Duration) *Limiter {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Limiter{
		limiter:     rate.NewLimiter(limit, 1),
		minInterval: minInterval,
	}
}

// Acquire blocks until at least the configured interval has elapsed since
// the last grant, then records the new grant. Returns the context error if
// the wait is interrupted.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.granted++
	l.lastGrant = time.Now()
	l.mu.Unlock()
	return nil
}

// Stats describes limiter activity for status reporting.
type Stats struct {
	Granted     int64         `json:"granted"`
	LastGrant   time.Time     `json:"last_grant"`
	MinInterval time.Duration `json:"min_interval"`
}

// Stats returns a snapshot of limiter activity.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Granted:     l.granted,
		LastGrant:   l.lastGrant,
		MinInterval: l.minInterval,
	}
}
