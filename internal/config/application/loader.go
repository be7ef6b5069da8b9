package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"fleetsync/internal/config/domain"
	fleetdomain "fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
	"fleetsync/internal/shared/validation"
)

// FleetCreator is the part of the mutation coordinator the loader needs.
type FleetCreator interface {
	List(ctx context.Context) (fleetdomain.Snapshot, error)
	Create(ctx context.Context, req fleetdomain.NewEntity) (fleetdomain.Entity, error)
}

// LoadResult counts what a load did.
type LoadResult struct {
	Created int
	Skipped int
}

// Loader seeds the fleet from configuration. Entities whose name already
// exists are skipped, so loading the same file twice is harmless.
type Loader struct {
	logger sharedlogger.Logger
	fleet  FleetCreator
	mu     sync.Mutex
}

// NewLoader creates a new configuration loader
func NewLoader(logger sharedlogger.Logger, fleet FleetCreator) *Loader {
	return &Loader{
		logger: logger,
		fleet:  fleet,
	}
}

// LoadFile reads a fleet file from disk and applies it.
func (l *Loader) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to read fleet file: %w", err)
	}
	return l.LoadConfig(ctx, raw)
}

// LoadConfig parses and applies a fleet file from raw JSON bytes. Every entry
// is validated before anything is written.
func (l *Loader) LoadConfig(ctx context.Context, rawConfig []byte) (LoadResult, error) {
	var cfg domain.FleetConfig
	err := json.Unmarshal(rawConfig, &cfg)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to parse config: %w", err)
	}

	problems := cfg.Valid(ctx)
	if len(problems) > 0 {
		return LoadResult{}, validation.NewValidationError(problems, cfg.Name)
	}

	entities := make([]domain.EntityConfig, 0, len(cfg.Entities))
	seen := make(map[string]struct{}, len(cfg.Entities))

	for i, rawEntity := range cfg.Entities {
		var fields map[string]json.RawMessage
		err := json.Unmarshal(rawEntity, &fields)
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse entity at index %d: %w", i, err)
		}

		if _, exists := fields["name"]; !exists {
			err := validation.NewNoNameError(cfg.Name, "entities")
			err.SetIndex(i)
			return LoadResult{}, err
		}

		var entity domain.EntityConfig
		err = json.Unmarshal(rawEntity, &entity)
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse entity at index %d: %w", i, err)
		}

		if problems := entity.Valid(ctx); len(problems) > 0 {
			return LoadResult{}, validation.NewValidationError(problems, cfg.Name, "entities", entity.Name)
		}

		name := strings.TrimSpace(entity.Name)
		if _, dup := seen[name]; dup {
			return LoadResult{}, validation.NewDuplicateFoundError(cfg.Name, "entities", entity.Name)
		}
		seen[name] = struct{}{}

		entities = append(entities, entity)
	}

	res, err := l.apply(ctx, entities)
	if err != nil {
		return res, err
	}

	l.logger.Info("Fleet loaded", "fleet", cfg.Name, "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

// LoadDefaults seeds the built-in demo fleet.
func (l *Loader) LoadDefaults(ctx context.Context) (LoadResult, error) {
	res, err := l.apply(ctx, domain.DefaultFleet())
	if err != nil {
		return res, err
	}

	l.logger.Info("Default fleet loaded", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func (l *Loader) apply(ctx context.Context, entities []domain.EntityConfig) (LoadResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res LoadResult

	existing, err := l.fleet.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list existing entities: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		names[e.Name] = struct{}{}
	}

	for _, entity := range entities {
		name := strings.TrimSpace(entity.Name)
		if _, ok := names[name]; ok {
			l.logger.Debug("Entity already present, skipping", "name", entity.Name)
			res.Skipped++
			continue
		}

		_, err := l.fleet.Create(ctx, entity.NewEntity())
		var valErr *validation.ValidationError
		if errors.As(err, &valErr) {
			valErr.PrependPath(entity.Name)
			return res, err
		} else if err != nil {
			return res, fmt.Errorf("failed to create entity %s: %w", entity.Name, err)
		}

		names[name] = struct{}{}
		res.Created++
	}

	return res, nil
}
