package drive

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Conservative defaults, well below Drive's 10 req/sec/user limit.
const (
	defaultRequestsPerSecond = 8.0
	defaultBurstSize         = 10
	defaultBackoffSeconds    = 60
)

// RateLimiter is a token bucket in front of every Drive call, with a
// backoff window for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter with the default Drive budget.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurstSize),
	}
}

// Wait blocks until a request can be made, respecting any backoff
// period recorded from a previous throttle response.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordThrottle records a throttle response and opens a backoff
// window. Called on 429s from the Drive API.
func (r *RateLimiter) RecordThrottle(retryAfterSeconds int) {
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = defaultBackoffSeconds
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}
