package infrastructure

import (
	"context"
	"sync"
	"time"

	"fleetsync/internal/fleet/domain"
)

var _ domain.Cache = (*MemoryCache)(nil)

type cacheEntry struct {
	snapshot domain.Snapshot
	expireAt time.Time
}

// MemoryCache is an in-process snapshot cache. Entries expire passively.
type MemoryCache struct {
	mu    sync.RWMutex
	entry *cacheEntry
	now   func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

// NewMemoryCacheWithClock creates a cache that reads time from now.
func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{now: now}
}

func (c *MemoryCache) Get(ctx context.Context) (domain.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || !c.now().Before(c.entry.expireAt) {
		return nil, false
	}
	return c.entry.snapshot.Clone(), true
}

func (c *MemoryCache) Set(ctx context.Context, snapshot domain.Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	entry := &cacheEntry{
		snapshot: snapshot.Clone(),
		expireAt: c.now().Add(ttl),
	}
	if entry.snapshot == nil {
		entry.snapshot = domain.Snapshot{}
	}

	c.mu.Lock()
	c.entry = entry
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}
