package domain

import "context"

// Coordinator is the single entry point for state-changing operations and
// the cached read path.
type Coordinator interface {
	List(ctx context.Context) (Snapshot, error)
	Create(ctx context.Context, req NewEntity) (Entity, error)
	MoveOne(ctx context.Context, id int64, jitter float64) (Entity, error)
	MoveAll(ctx context.Context, jitter float64) ([]Entity, error)
	Remove(ctx context.Context, id int64) error

	// Subscribe passes the current snapshot to join while no broadcast can
	// run, so an observer registered inside join misses no later change.
	Subscribe(ctx context.Context, join func(Snapshot) error) error
}
