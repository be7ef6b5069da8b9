package application

import (
	"fmt"
	"math"
	"time"

	"github.com/caarlos0/env/v11"

	fleetdomain "fleetsync/internal/fleet/domain"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// RuntimeConfig holds all runtime configuration from CLI flags, environment variables, and .env file
type RuntimeConfig struct {
	// API Configuration
	APIPort   string        `env:"FLEETSYNC_API_PORT" envDefault:"8080"`
	JWTSecret string        `env:"FLEETSYNC_JWT_SECRET"`
	TokenTTL  time.Duration `env:"FLEETSYNC_TOKEN_TTL" envDefault:"5h"`

	// Browser origins allowed by CORS, "*" for any
	CORSOrigins []string `env:"FLEETSYNC_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Development Mode
	DevMode bool `env:"FLEETSYNC_DEV_MODE"`

	// Logging Configuration
	LogLevel  string `env:"FLEETSYNC_LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"FLEETSYNC_LOG_FORMAT" envDefault:"text"`
	LogOutput string `env:"FLEETSYNC_LOG_OUTPUT" envDefault:"stdout"`

	// Database Configuration
	DBPath string `env:"FLEETSYNC_DB_PATH" envDefault:"fleet.db"`

	// Cache Configuration
	CacheBackend   string        `env:"FLEETSYNC_CACHE_BACKEND" envDefault:"memory"`
	RedisURL       string        `env:"FLEETSYNC_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisNamespace string        `env:"FLEETSYNC_REDIS_NAMESPACE" envDefault:"fleetsync"`
	CacheTTL       time.Duration `env:"FLEETSYNC_CACHE_TTL" envDefault:"10s"`
	CacheTimeout   time.Duration `env:"FLEETSYNC_CACHE_TIMEOUT" envDefault:"250ms"`

	// Simulation Configuration
	TickInterval        time.Duration `env:"FLEETSYNC_TICK_INTERVAL" envDefault:"2s"`
	TickJitter          float64       `env:"FLEETSYNC_TICK_JITTER" envDefault:"0.2"`
	MoveJitter          float64       `env:"FLEETSYNC_MOVE_JITTER" envDefault:"0.01"`
	AutostartSimulation bool          `env:"FLEETSYNC_AUTOSTART_SIMULATION"`

	// Push channel Configuration
	ObserverQueue       int           `env:"FLEETSYNC_OBSERVER_QUEUE" envDefault:"8"`
	ObserverSendTimeout time.Duration `env:"FLEETSYNC_OBSERVER_SEND_TIMEOUT" envDefault:"5s"`

	// Tracing, disabled when empty
	OTelEndpoint string `env:"FLEETSYNC_OTEL_ENDPOINT"`

	// Fleet file loaded at startup
	SeedPath string `env:"FLEETSYNC_SEED_PATH"`
}

// Overrides carries CLI flag values. Empty strings and zero values leave the
// environment value in place.
type Overrides struct {
	APIPort      string
	JWTSecret    string
	LogLevel     string
	LogFormat    string
	LogOutput    string
	DBPath       string
	CacheBackend string
	RedisURL     string
	SeedPath     string
	TickInterval time.Duration
	DevMode      bool
	Autostart    bool
}

// LoadRuntimeConfig loads configuration with precedence: CLI flags > env vars > .env file > defaults
func LoadRuntimeConfig(flags Overrides) (*RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	setString(&cfg.APIPort, flags.APIPort)
	setString(&cfg.JWTSecret, flags.JWTSecret)
	setString(&cfg.LogLevel, flags.LogLevel)
	setString(&cfg.LogFormat, flags.LogFormat)
	setString(&cfg.LogOutput, flags.LogOutput)
	setString(&cfg.DBPath, flags.DBPath)
	setString(&cfg.CacheBackend, flags.CacheBackend)
	setString(&cfg.RedisURL, flags.RedisURL)
	setString(&cfg.SeedPath, flags.SeedPath)
	if flags.TickInterval > 0 {
		cfg.TickInterval = flags.TickInterval
	}
	cfg.DevMode = cfg.DevMode || flags.DevMode
	cfg.AutostartSimulation = cfg.AutostartSimulation || flags.Autostart

	return &cfg, nil
}

func setString(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

// Validate checks that required configuration is present
func (c *RuntimeConfig) Validate() error {
	if c.JWTSecret == "" {
		return &ConfigError{Field: "jwt-secret", Message: "JWT secret is required (set FLEETSYNC_JWT_SECRET or use --jwt-secret flag)"}
	}
	return c.ValidateStorage()
}

// ValidateStorage checks the settings needed to reach the store and cache.
// Commands that never serve requests skip the secret check.
func (c *RuntimeConfig) ValidateStorage() error {
	if c.DBPath == "" {
		return &ConfigError{Field: "db-path", Message: "Database path is required"}
	}
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return &ConfigError{Field: "redis-url", Message: "Redis URL is required when the redis cache backend is selected"}
		}
	default:
		return &ConfigError{Field: "cache-backend", Message: fmt.Sprintf("Unknown cache backend %q, expected %q or %q", c.CacheBackend, CacheBackendMemory, CacheBackendRedis)}
	}
	if c.CacheTTL <= 0 {
		return &ConfigError{Field: "cache-ttl", Message: "Cache TTL must be positive"}
	}
	if c.TickInterval <= 0 {
		return &ConfigError{Field: "tick-interval", Message: "Tick interval must be positive"}
	}
	if !validJitter(c.TickJitter) || !validJitter(c.MoveJitter) {
		return &ConfigError{Field: "jitter", Message: fmt.Sprintf("Jitter must be between 0 and %g", fleetdomain.MaxJitter)}
	}
	if len(c.CORSOrigins) == 0 {
		return &ConfigError{Field: "cors-origins", Message: "At least one CORS origin is required, use \"*\" to allow any"}
	}
	if c.ObserverQueue <= 0 {
		return &ConfigError{Field: "observer-queue", Message: "Observer queue size must be positive"}
	}
	return nil
}

func validJitter(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= fleetdomain.MaxJitter
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
