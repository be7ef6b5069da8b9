package domain

import (
	"context"
	"time"
)

// Cache holds the "all entities" snapshot. Implementations never return
// errors: an unreachable backend behaves as a permanent miss.
type Cache interface {
	// Get returns the cached snapshot, or false on a miss or expiry.
	Get(ctx context.Context) (Snapshot, bool)
	// Set replaces the entry wholesale.
	Set(ctx context.Context, snapshot Snapshot, ttl time.Duration)
	// Invalidate drops the entry. Calling it with no entry is a no-op.
	Invalidate(ctx context.Context)
}
