package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter answers whether a caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyRateLimiter keeps one token bucket per key. Handlers compose keys from a
// scope and the client address, so login and refresh attempts are throttled
// independently per caller.
type keyRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	sweepAt time.Time
	now     func() time.Time
}

// NewIPRateLimiter allows up to requests events per window for each key, plus
// burst capacity on top. Idle buckets are dropped after ttl.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &keyRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *keyRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	// Sweep idle buckets at most once per ttl, not on every request.
	if now.After(l.sweepAt) {
		for k, old := range l.buckets {
			if now.Sub(old.lastSeen) > l.ttl {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(l.ttl)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.Allow()
}

// WithNowFunc overrides the time source for tests.
func (l *keyRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
