package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/models"
)

type countEntry struct {
	count   int64
	expires time.Time
}

// CachingCounter wraps a LikeCounter with a TTL-based in-memory cache. Counts
// are read far more often than they change; a short TTL keeps the public
// count endpoint off the store without meaningfully staling the number.
type CachingCounter struct {
	base LikeCounter
	ttl  time.Duration

	mu    sync.RWMutex
	items map[models.TargetRef]countEntry
}

// NewCachingCounter returns a LikeCounter that caches counts for the provided TTL.
func NewCachingCounter(base LikeCounter, ttl time.Duration) *CachingCounter {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingCounter{
		base:  base,
		ttl:   ttl,
		items: make(map[models.TargetRef]countEntry),
	}
}

// CountForTarget returns the cached count when fresh, otherwise it delegates
// to the underlying counter and stores the result.
func (c *CachingCounter) CountForTarget(ctx context.Context, target models.TargetRef) (int64, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[target]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.count, nil
	}

	count, err := c.base.CountForTarget(ctx, target)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.items[target] = countEntry{count: count, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return count, nil
}

// Invalidate drops the cached count for a target after a like or unlike.
func (c *CachingCounter) Invalidate(target models.TargetRef) {
	c.mu.Lock()
	delete(c.items, target)
	c.mu.Unlock()
}
