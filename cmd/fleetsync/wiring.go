package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"

	broadcastapp "fleetsync/internal/broadcast/application"
	configapp "fleetsync/internal/config/application"
	fleetapp "fleetsync/internal/fleet/application"
	fleetdomain "fleetsync/internal/fleet/domain"
	fleetinfra "fleetsync/internal/fleet/infrastructure"
	"fleetsync/internal/infrastructure/database"
	"fleetsync/internal/infrastructure/database/queries"
	"fleetsync/internal/infrastructure/logger"
	"fleetsync/internal/schema"
)

// storage holds the open database pools and the snapshot cache.
type storage struct {
	rawRead  *sql.DB
	rawWrite *sql.DB
	readDB   *queries.Queries
	writeDB  *queries.Queries
	cache    fleetdomain.Cache
	closers  []func() error
}

func (s *storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// openStorage connects both sqlite pools, applies the schema and builds the
// configured cache backend.
func openStorage(ctx context.Context, cfg *configapp.RuntimeConfig, appLogger *logger.Logger) (*storage, error) {
	appLogger.Debug("Connecting to database", "file", cfg.DBPath)
	dbRead, dbWrite, err := database.OpenPools(cfg.DBPath, runtime.NumCPU())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &storage{
		rawRead:  dbRead,
		rawWrite: dbWrite,
		readDB:   queries.New(dbRead),
		writeDB:  queries.New(dbWrite),
		closers:  []func() error{dbRead.Close, dbWrite.Close},
	}
	appLogger.Debug("Database configured", "read_conns", runtime.NumCPU(), "write_conns", 1)

	appLogger.Debug("Initializing database schema")
	if _, err := dbWrite.ExecContext(ctx, schema.DDL); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	switch cfg.CacheBackend {
	case configapp.CacheBackendRedis:
		client, err := fleetinfra.NewRedisClient(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		// An unreachable Redis only degrades reads to the store.
		if err := client.Ping(ctx).Err(); err != nil {
			appLogger.Warn("Redis unreachable, reads will fall through to the store", "err", err)
		}
		s.cache = fleetinfra.NewRedisCache(client, appLogger, cfg.RedisNamespace, cfg.CacheTimeout)
	default:
		s.cache = fleetinfra.NewMemoryCache()
	}
	appLogger.Debug("Cache configured", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL, "namespace", cfg.RedisNamespace)

	return s, nil
}

// newCoordinator wires the fleet pipeline over s, publishing to hub.
func newCoordinator(appLogger *logger.Logger, cfg *configapp.RuntimeConfig, s *storage, hub *broadcastapp.Hub) *fleetapp.Coordinator {
	repo := fleetinfra.NewRepository(s.readDB, s.writeDB, s.rawWrite)
	return fleetapp.NewCoordinator(appLogger, repo, s.cache, hub, fleetapp.Options{
		CacheTTL: cfg.CacheTTL,
	})
}
