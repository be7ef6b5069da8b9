// @title           fleetsync API
// @version         1.0
// @description     Fleet state synchronization: entity CRUD, simulated movement and a websocket push channel.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT returned by /auth/login.

// @host      localhost:8080
// @BasePath  /api/v1

package main

import (
	"os"

	"github.com/urfave/cli/v2"

	_ "fleetsync/docs" // Swagger docs

	configapp "fleetsync/internal/config/application"
	"fleetsync/internal/infrastructure/logger"
)

const version = "1.0"

var commonFlags = []cli.Flag{
	&cli.StringFlag{Name: "env-file", Usage: "path to a .env file", Value: ".env"},
	&cli.StringFlag{Name: "db", Usage: "sqlite database path (FLEETSYNC_DB_PATH)"},
	&cli.StringFlag{Name: "cache", Usage: "cache backend: memory or redis (FLEETSYNC_CACHE_BACKEND)"},
	&cli.StringFlag{Name: "redis-url", Usage: "redis URL for the redis cache backend (FLEETSYNC_REDIS_URL)"},
	&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARN or ERROR (FLEETSYNC_LOG_LEVEL)"},
	&cli.StringFlag{Name: "log-format", Usage: "text or json (FLEETSYNC_LOG_FORMAT)"},
	&cli.StringFlag{Name: "log-output", Usage: "stdout, stderr or a file path (FLEETSYNC_LOG_OUTPUT)"},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "fleetsync",
		Usage:   "fleet state synchronization server",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API, the simulation scheduler and the push channel",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "API port (FLEETSYNC_API_PORT)"},
					&cli.StringFlag{Name: "jwt-secret", Usage: "HS256 signing secret (FLEETSYNC_JWT_SECRET)"},
					&cli.StringFlag{Name: "seed", Usage: "fleet file to load at startup (FLEETSYNC_SEED_PATH)"},
					&cli.DurationFlag{Name: "tick-interval", Usage: "simulation tick interval (FLEETSYNC_TICK_INTERVAL)"},
					&cli.BoolFlag{Name: "dev", Usage: "enable development mode (Swagger UI)"},
					&cli.BoolFlag{Name: "autostart", Usage: "start the simulation at boot"},
				}, commonFlags...),
				Action: runServe,
			},
			{
				Name:  "seed",
				Usage: "create the admin user and load a fleet",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "admin email", Value: "admin@test.com"},
					&cli.StringFlag{Name: "password", Usage: "admin password", Value: "test123"},
					&cli.StringFlag{Name: "file", Usage: "fleet file; the default robots are loaded when empty"},
				}, commonFlags...),
				Action: runSeed,
			},
		},
	}
}

// loadConfig resolves the runtime configuration for a command: flags over
// environment over .env over defaults.
func loadConfig(c *cli.Context) (*configapp.RuntimeConfig, error) {
	configapp.LoadEnvFile(logger.DefaultLogger(), c.String("env-file"))

	return configapp.LoadRuntimeConfig(configapp.Overrides{
		APIPort:      c.String("port"),
		JWTSecret:    c.String("jwt-secret"),
		LogLevel:     c.String("log-level"),
		LogFormat:    c.String("log-format"),
		LogOutput:    c.String("log-output"),
		DBPath:       c.String("db"),
		CacheBackend: c.String("cache"),
		RedisURL:     c.String("redis-url"),
		SeedPath:     c.String("seed"),
		TickInterval: c.Duration("tick-interval"),
		DevMode:      c.Bool("dev"),
		Autostart:    c.Bool("autostart"),
	})
}

func newLogger(cfg *configapp.RuntimeConfig) *logger.Logger {
	appLogger := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	logger.SetDefaultLogger(appLogger)
	return appLogger
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// Use default logger for final error message if run failed early
		logger := logger.DefaultLogger()
		logger.Error("Application error", "err", err)
		os.Exit(1)
	}
}
