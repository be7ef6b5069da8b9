package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fleetsync/internal/fleet/domain"
	"fleetsync/internal/infrastructure/database/queries"
)

var _ domain.Store = (*Repository)(nil)

// Repository implements the entity store using SQLite
type Repository struct {
	readDB     *queries.Queries
	writeDB    *queries.Queries
	rawWriteDB *sql.DB
	now        func() time.Time
}

// NewRepository creates a new SQLite entity repository
func NewRepository(readDB *queries.Queries, writeDB *queries.Queries, rawWriteDB *sql.DB) *Repository {
	return &Repository{
		readDB:     readDB,
		writeDB:    writeDB,
		rawWriteDB: rawWriteDB,
		now:        time.Now,
	}
}

// LoadAll returns every entity ordered by id
func (r *Repository) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	rows, err := r.readDB.ListEntities(ctx)
	if err != nil {
		return nil, domain.NewStoreError("load all", err)
	}

	result := make(domain.Snapshot, len(rows))
	for i, row := range rows {
		result[i] = toDomain(row)
	}
	return result, nil
}

// Get returns a single entity
func (r *Repository) Get(ctx context.Context, id int64) (domain.Entity, error) {
	row, err := r.readDB.GetEntity(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Entity{}, domain.NewStoreError("get", err)
	}
	return toDomain(row), nil
}

// Insert creates an entity; the store assigns the id
func (r *Repository) Insert(ctx context.Context, name string, pos domain.Position, status domain.Status) (domain.Entity, error) {
	if status == "" {
		status = domain.StatusIdle
	}

	row, err := r.writeDB.InsertEntity(ctx, queries.InsertEntityParams{
		Name:      name,
		Status:    string(status),
		Lat:       pos.Lat,
		Lon:       pos.Lon,
		UpdatedAt: r.now().UnixNano(),
	})
	if err != nil {
		return domain.Entity{}, domain.NewStoreError("insert", err)
	}
	return toDomain(row), nil
}

// UpdatePosition writes a new position and status for one entity
func (r *Repository) UpdatePosition(ctx context.Context, id int64, pos domain.Position, status domain.Status) (domain.Entity, error) {
	row, err := r.writeDB.UpdateEntityPosition(ctx, updateParams(id, pos, status, r.now()))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Entity{}, domain.NewStoreError("update position", err)
	}
	return toDomain(row), nil
}

// UpdatePositions applies a batch of position writes in one transaction
func (r *Repository) UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) ([]domain.Entity, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	tx, err := r.rawWriteDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStoreError("begin batch", err)
	}
	defer tx.Rollback()

	q := r.writeDB.WithTx(tx)
	now := r.now()
	result := make([]domain.Entity, 0, len(updates))
	for _, u := range updates {
		row, err := q.UpdateEntityPosition(ctx, updateParams(u.ID, u.Position, u.Status, now))
		if errors.Is(err, sql.ErrNoRows) {
			// Deleted since the batch was planned.
			continue
		}
		if err != nil {
			return nil, domain.NewStoreError(fmt.Sprintf("update position %d", u.ID), err)
		}
		result = append(result, toDomain(row))
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStoreError("commit batch", err)
	}
	return result, nil
}

// Delete removes an entity
func (r *Repository) Delete(ctx context.Context, id int64) error {
	n, err := r.writeDB.DeleteEntity(ctx, id)
	if err != nil {
		return domain.NewStoreError("delete", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func updateParams(id int64, pos domain.Position, status domain.Status, now time.Time) queries.UpdateEntityPositionParams {
	return queries.UpdateEntityPositionParams{
		Lat:       pos.Lat,
		Lon:       pos.Lon,
		Status:    string(status),
		UpdatedAt: now.UnixNano(),
		ID:        id,
	}
}

func toDomain(row queries.Entity) domain.Entity {
	return domain.Entity{
		ID:        row.ID,
		Name:      row.Name,
		Position:  domain.Position{Lat: row.Lat, Lon: row.Lon},
		Status:    domain.Status(row.Status),
		UpdatedAt: time.Unix(0, row.UpdatedAt).UTC(),
	}
}
