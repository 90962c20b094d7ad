package kalshi

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds outbound venue calls to maxRequests per sliding window.
// Acquire blocks until a request can be issued without exceeding the limit.
// Safe for concurrent use; the bot's single control loop is the usual caller
// but a parallel scan must be able to share one instance.
type RateLimiter struct {
	mu         sync.Mutex
	maxReqs    int
	window     time.Duration
	timestamps []time.Time
}

// NewRateLimiter creates a rate limiter allowing maxRequests per window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxReqs: maxRequests,
		window:  window,
	}
}

// Acquire blocks until a request slot is available or the context is
// cancelled. Worst case wait is one window duration per contending caller.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		r.prune(now)

		if len(r.timestamps) < r.maxReqs {
			r.timestamps = append(r.timestamps, now)
			r.mu.Unlock()
			return nil
		}

		// Wait until the oldest recorded request leaves the window, then
		// re-contend for a slot.
		wait := r.timestamps[0].Add(r.window).Sub(now)
		r.mu.Unlock()

		RateLimitWaits.Inc()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset clears the request history.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timestamps = r.timestamps[:0]
}

// prune drops timestamps older than one window. Caller must hold mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.timestamps) && r.timestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		r.timestamps = append(r.timestamps[:0], r.timestamps[i:]...)
	}
}
