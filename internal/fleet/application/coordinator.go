package application

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
	"fleetsync/internal/shared/validation"
)

// DefaultCacheTTL bounds how long a snapshot may be served from the cache.
const DefaultCacheTTL = 10 * time.Second

var _ domain.Coordinator = (*Coordinator)(nil)

// Options tunes a Coordinator. Zero values select the defaults.
type Options struct {
	CacheTTL time.Duration
	// Uniform returns a number in [0, 1). Defaults to math/rand/v2.
	Uniform func() float64
}

// Coordinator serializes every state change through one pipeline:
// durable write, then cache invalidation, then broadcast. It takes no
// application-level locks around store writes; concurrent writers to the
// same row are ordered by the store alone and the last write wins.
type Coordinator struct {
	logger    sharedlogger.Logger
	store     domain.Store
	cache     domain.Cache
	publisher domain.Publisher
	cacheTTL  time.Duration
	uniform   func() float64
	tracer    trace.Tracer

	// cacheMu orders cache repopulation against invalidation. generation is
	// bumped by every committed mutation; a reader only stores the snapshot
	// it loaded if no mutation committed while it was loading.
	cacheMu    sync.Mutex
	generation uint64

	// publishMu keeps broadcasts in the order their snapshots were read, so
	// the last push observers receive is never older than an earlier one.
	publishMu sync.Mutex
}

// NewCoordinator creates a coordinator over the given collaborators
func NewCoordinator(logger sharedlogger.Logger, store domain.Store, cache domain.Cache, publisher domain.Publisher, opts Options) *Coordinator {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Uniform == nil {
		opts.Uniform = rand.Float64
	}
	return &Coordinator{
		logger:    logger,
		store:     store,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  opts.CacheTTL,
		uniform:   opts.Uniform,
		tracer:    otel.Tracer("fleetsync/internal/fleet/application"),
	}
}

// List returns the cached snapshot, or loads it from the store and caches it
func (c *Coordinator) List(ctx context.Context) (domain.Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "fleet.List")
	defer span.End()

	if snapshot, ok := c.cache.Get(ctx); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		c.logger.Debug("Serving entities from cache", "count", len(snapshot))
		return snapshot, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	c.cacheMu.Lock()
	gen := c.generation
	c.cacheMu.Unlock()

	snapshot, err := c.store.LoadAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("list entities: %w", err)
	}
	c.logger.Debug("Loaded entities from store", "count", len(snapshot))

	c.cacheMu.Lock()
	if c.generation == gen {
		c.cache.Set(context.WithoutCancel(ctx), snapshot, c.cacheTTL)
	} else {
		c.logger.Debug("Skipping cache fill, a mutation committed during load", "loaded_generation", gen, "current_generation", c.generation)
	}
	c.cacheMu.Unlock()

	return snapshot, nil
}

// Create validates and inserts a new entity
func (c *Coordinator) Create(ctx context.Context, req domain.NewEntity) (domain.Entity, error) {
	ctx, span := c.tracer.Start(ctx, "fleet.Create")
	defer span.End()

	if err := req.Validate(ctx); err != nil {
		recordError(span, err)
		return domain.Entity{}, err
	}
	req.Normalize()

	entity, err := c.store.Insert(ctx, strings.TrimSpace(req.Name), req.Position, req.Status)
	if err != nil {
		recordError(span, err)
		return domain.Entity{}, fmt.Errorf("create entity: %w", err)
	}
	span.SetAttributes(attribute.Int64("entity.id", entity.ID))
	c.logger.Info("Entity created", "entity_id", entity.ID, "name", entity.Name, "position", entity.Position.String())

	c.commit(ctx, "create", nil)
	return entity, nil
}

// MoveOne nudges a single entity by up to jitter/2 on each axis and marks it moving
func (c *Coordinator) MoveOne(ctx context.Context, id int64, jitter float64) (domain.Entity, error) {
	ctx, span := c.tracer.Start(ctx, "fleet.MoveOne", trace.WithAttributes(attribute.Int64("entity.id", id)))
	defer span.End()

	if err := checkJitter(jitter); err != nil {
		recordError(span, err)
		return domain.Entity{}, err
	}

	current, err := c.store.Get(ctx, id)
	if err != nil {
		recordError(span, err)
		return domain.Entity{}, fmt.Errorf("move entity %d: %w", id, err)
	}

	next := c.jitter(current.Position, jitter)
	if !next.Finite() {
		err := validation.NewValidationError(map[string]string{
			"position": fmt.Sprintf("move from %s leaves the finite range", current.Position),
		}, "move")
		recordError(span, err)
		return domain.Entity{}, err
	}

	moved, err := c.store.UpdatePosition(ctx, id, next, domain.StatusMoving)
	if err != nil {
		recordError(span, err)
		return domain.Entity{}, fmt.Errorf("move entity %d: %w", id, err)
	}
	c.logger.Debug("Entity moved", "entity_id", id, "from", current.Position.String(), "to", moved.Position.String())

	c.commit(ctx, "move", nil)
	return moved, nil
}

// MoveAll moves every entity in one batch, followed by a single invalidation
// and a single broadcast
func (c *Coordinator) MoveAll(ctx context.Context, jitter float64) ([]domain.Entity, error) {
	ctx, span := c.tracer.Start(ctx, "fleet.MoveAll")
	defer span.End()

	if err := checkJitter(jitter); err != nil {
		recordError(span, err)
		return nil, err
	}

	current, err := c.store.LoadAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("move all: %w", err)
	}
	if len(current) == 0 {
		return nil, nil
	}

	updates := make([]domain.PositionUpdate, 0, len(current))
	for _, e := range current {
		next := c.jitter(e.Position, jitter)
		if !next.Finite() {
			c.logger.Warn("Skipping entity, move leaves the finite range", "entity_id", e.ID, "position", e.Position.String())
			continue
		}
		updates = append(updates, domain.PositionUpdate{
			ID:       e.ID,
			Position: next,
			Status:   domain.StatusMoving,
		})
	}
	if len(updates) == 0 {
		return nil, nil
	}

	moved, err := c.store.UpdatePositions(ctx, updates)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("move all: %w", err)
	}
	span.SetAttributes(attribute.Int("entities.moved", len(moved)))
	c.logger.Debug("Moved entities", "count", len(moved))

	c.commit(ctx, "move all", nil)
	return moved, nil
}

// Remove deletes an entity and tells observers it is gone
func (c *Coordinator) Remove(ctx context.Context, id int64) error {
	ctx, span := c.tracer.Start(ctx, "fleet.Remove", trace.WithAttributes(attribute.Int64("entity.id", id)))
	defer span.End()

	if err := c.store.Delete(ctx, id); err != nil {
		recordError(span, err)
		return fmt.Errorf("remove entity %d: %w", id, err)
	}
	c.logger.Info("Entity removed", "entity_id", id)

	c.commit(ctx, "remove", []int64{id})
	return nil
}

// Subscribe loads the snapshot from the store and hands it to join under
// publishMu. Every commit either lands in that snapshot or publishes after
// join returns, and broadcasts stay ordered behind the snapshot.
func (c *Coordinator) Subscribe(ctx context.Context, join func(domain.Snapshot) error) error {
	ctx, span := c.tracer.Start(ctx, "fleet.Subscribe")
	defer span.End()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	snapshot, err := c.store.LoadAll(ctx)
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("subscribe: %w", err)
	}
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}

	if err := join(snapshot); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// commit runs the post-write steps of a mutation. It must only be called
// after the durable write has returned successfully. The caller's
// cancellation does not stop it: an abandoned request must still invalidate.
func (c *Coordinator) commit(ctx context.Context, op string, removed []int64) {
	ctx = context.WithoutCancel(ctx)

	c.cacheMu.Lock()
	c.generation++
	c.cache.Invalidate(ctx)
	c.cacheMu.Unlock()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	snapshot, err := c.store.LoadAll(ctx)
	if err != nil {
		c.logger.Error("Failed to load snapshot for broadcast", "op", op, "err", err)
		if len(removed) > 0 {
			c.publisher.Publish(ctx, domain.Change{Removed: removed})
		}
		return
	}

	c.publisher.Publish(ctx, domain.Change{Entities: snapshot, Removed: removed})
}

func (c *Coordinator) jitter(p domain.Position, magnitude float64) domain.Position {
	return p.Offset(
		(c.uniform()-0.5)*magnitude,
		(c.uniform()-0.5)*magnitude,
	)
}

func checkJitter(jitter float64) error {
	if math.IsNaN(jitter) || jitter < 0 || jitter > domain.MaxJitter {
		return validation.NewValidationError(map[string]string{
			"jitter": fmt.Sprintf("must be between 0 and %g", domain.MaxJitter),
		}, "move")
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
