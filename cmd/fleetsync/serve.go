package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	apiserver "fleetsync/internal/api"
	authapp "fleetsync/internal/auth/application"
	authinfra "fleetsync/internal/auth/infrastructure"
	broadcastapp "fleetsync/internal/broadcast/application"
	configapp "fleetsync/internal/config/application"
	"fleetsync/internal/infrastructure/telemetry"
	simapp "fleetsync/internal/simulation/application"
)

const shutdownTimeout = 5 * time.Second

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger := newLogger(cfg)
	appLogger.Info("Starting fleetsync", "version", version)

	sigCtx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(sigCtx, "fleetsync", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	store, err := openStorage(sigCtx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := broadcastapp.NewHub(appLogger, broadcastapp.Options{
		QueueSize:   cfg.ObserverQueue,
		SendTimeout: cfg.ObserverSendTimeout,
	})
	coordinator := newCoordinator(appLogger, cfg, store, hub)
	scheduler := simapp.NewScheduler(appLogger, coordinator, simapp.Options{
		Interval: cfg.TickInterval,
		Jitter:   cfg.TickJitter,
	})

	gate, err := authinfra.NewJWTGate(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	users := authinfra.NewUserRepository(store.readDB, store.writeDB)
	login := authapp.NewLoginService(appLogger, users, gate)
	loader := configapp.NewLoader(appLogger, coordinator)

	if cfg.SeedPath != "" {
		appLogger.Info("Loading fleet file", "path", cfg.SeedPath)
		if _, err := loader.LoadFile(sigCtx, cfg.SeedPath); err != nil {
			return fmt.Errorf("failed to load fleet file: %w", err)
		}
	}

	apiServer, err := apiserver.NewServer(appLogger, cfg, apiserver.Dependencies{
		Fleet:      coordinator,
		Simulation: scheduler,
		Observers:  hub,
		Gate:       gate,
		Auth:       login,
		Loader:     loader,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	if cfg.AutostartSimulation {
		if _, err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start simulation: %w", err)
		}
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	appLogger.Info("fleetsync started successfully, waiting for shutdown signal")

	var runErr error
	select {
	case <-sigCtx.Done():
		appLogger.Info("Shutdown signal received, starting graceful shutdown")
	case runErr = <-serverErrChan:
		appLogger.Error("Server error received", "err", runErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}
	hub.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}

	if runErr != nil {
		return runErr
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	appLogger.Info("Graceful shutdown completed")
	return nil
}
