// Package entrez provides the shared plumbing for NCBI E-utilities clients:
// request pacing and a paced HTTP client.
package entrez

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum interval between consecutive metadata
// requests. NCBI asks unauthenticated callers to stay under three requests
// per second; a conservative single-caller spacing of 340ms keeps us there.
const DefaultInterval = 340 * time.Millisecond

// Pacer enforces a minimum wall-clock interval between consecutive calls to
// a rate-limited operation. The interval is measured from the end of the
// previous permission to the start of the next. It is safe for concurrent
// use: callers serialize only on the limiter's internal timestamp, not on
// the calls themselves.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer creates a pacer with the given minimum interval between calls.
// A non-positive interval falls back to DefaultInterval.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pacer{
		interval: interval,
		// Burst of one makes the token bucket degenerate into pure
		// min-interval spacing.
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next call is permitted or the context is canceled,
// then records the call. Concurrent callers are each delayed so that no two
// permissions are closer together than the configured interval.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Allow reports whether a call is permitted right now without waiting,
// consuming the slot if so.
func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}

// Interval returns the configured minimum interval between calls.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
