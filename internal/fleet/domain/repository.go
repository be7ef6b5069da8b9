package domain

import "context"

// PositionUpdate is one row of a batched position write.
type PositionUpdate struct {
	ID       int64
	Position Position
	Status   Status
}

// Store is the narrow port over the durable store. Every method is durable
// on return. Failures other than ErrNotFound are reported as *StoreError.
type Store interface {
	// LoadAll returns every entity ordered by ID ascending.
	LoadAll(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id int64) (Entity, error)
	Insert(ctx context.Context, name string, pos Position, status Status) (Entity, error)
	// UpdatePosition returns ErrNotFound when id does not exist.
	UpdatePosition(ctx context.Context, id int64, pos Position, status Status) (Entity, error)
	// UpdatePositions writes the batch in one transaction. Rows deleted
	// concurrently are skipped and absent from the result.
	UpdatePositions(ctx context.Context, updates []PositionUpdate) ([]Entity, error)
	// Delete returns ErrNotFound when id does not exist.
	Delete(ctx context.Context, id int64) error
}
