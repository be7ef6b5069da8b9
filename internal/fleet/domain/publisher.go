package domain

import "context"

// Change describes one committed mutation for observers.
type Change struct {
	// Entities is the full post-mutation snapshot.
	Entities Snapshot
	// Removed lists ids deleted by the mutation.
	Removed []int64
}

// Publisher fans a change out to live observers. Publish must not block on
// any single observer.
type Publisher interface {
	Publish(ctx context.Context, change Change)
}
