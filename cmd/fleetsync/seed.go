package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	authapp "fleetsync/internal/auth/application"
	authinfra "fleetsync/internal/auth/infrastructure"
	broadcastapp "fleetsync/internal/broadcast/application"
	configapp "fleetsync/internal/config/application"
)

// runSeed creates the admin account and loads a fleet through the
// coordinator. With the redis backend this invalidates the shared snapshot;
// a running server on the memory backend keeps serving its cached list until
// the entry expires after CACHE_TTL.
func runSeed(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger := newLogger(cfg)
	ctx := c.Context

	store, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Seeding never has observers; the hub only satisfies the pipeline.
	hub := broadcastapp.NewHub(appLogger, broadcastapp.Options{})
	defer hub.Close()
	coordinator := newCoordinator(appLogger, cfg, store, hub)

	users := authinfra.NewUserRepository(store.readDB, store.writeDB)
	created, err := authapp.NewLoginService(appLogger, users, nil).CreateUser(ctx, c.String("email"), c.String("password"))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		appLogger.Info("User already exists, skipping", "email", c.String("email"))
	}

	loader := configapp.NewLoader(appLogger, coordinator)
	var result configapp.LoadResult
	if path := c.String("file"); path != "" {
		result, err = loader.LoadFile(ctx, path)
	} else {
		result, err = loader.LoadDefaults(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load fleet: %w", err)
	}

	appLogger.Info("Seed complete", "created", result.Created, "skipped", result.Skipped)
	return nil
}
