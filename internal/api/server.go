package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	httpSwagger "github.com/swaggo/http-swagger"

	api "fleetsync/internal/api/application"
	"fleetsync/internal/api/handlers"
	apimiddleware "fleetsync/internal/api/middleware"
	authdomain "fleetsync/internal/auth/domain"
	configapp "fleetsync/internal/config/application"
	fleetdomain "fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
)

// Dependencies are the application services the HTTP layer exposes
type Dependencies struct {
	Fleet      fleetdomain.Coordinator
	Simulation api.SimulationControl
	Observers  handlers.ObserverRegistry
	Gate       authdomain.Gate
	Auth       handlers.Authenticator
	Loader     handlers.FleetLoader
}

func (d Dependencies) validate() error {
	switch {
	case d.Fleet == nil:
		return errors.New("fleet coordinator is required")
	case d.Simulation == nil:
		return errors.New("simulation control is required")
	case d.Observers == nil:
		return errors.New("observer registry is required")
	case d.Gate == nil:
		return errors.New("identity gate is required")
	case d.Auth == nil:
		return errors.New("authenticator is required")
	case d.Loader == nil:
		return errors.New("fleet loader is required")
	}
	return nil
}

// Server represents the API server
type Server struct {
	httpServer *http.Server
	logger     sharedlogger.Logger
}

// NewServer creates a new API server
func NewServer(logger sharedlogger.Logger, runtimeCfg *configapp.RuntimeConfig, deps Dependencies) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("configure server: %w", err)
	}

	// Initialize services
	entityService := api.NewEntityService(deps.Fleet, runtimeCfg.MoveJitter)
	simulationService := api.NewSimulationService(deps.Simulation)

	// Initialize handlers
	entityHandler := handlers.NewEntityHandler(entityService)
	simulationHandler := handlers.NewSimulationHandler(simulationService)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	fleetHandler := handlers.NewFleetHandler(deps.Loader)
	streamHandler := handlers.NewStreamHandler(deps.Fleet, deps.Observers)

	// Setup chi router
	r := chi.NewRouter()

	// HTTP logging middleware - need concrete slog.Logger for httplog
	// Type assert to infrastructure logger to get underlying slog.Logger
	var slogLogger *slog.Logger
	if infraLogger, ok := logger.(interface{ SLog() *slog.Logger }); ok {
		slogLogger = infraLogger.SLog()
	} else {
		slogLogger = slog.Default()
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(slogLogger, &httplog.Options{
		Level:             slog.LevelDebug,
		Schema:            httplog.SchemaECS.Concise(true),
		LogRequestHeaders: []string{}, // Log no headers by default to reduce verbosity
	}))
	r.Use(apimiddleware.RequestLogger(slogLogger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: runtimeCfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	// Swagger UI (only in dev mode, no auth required)
	if runtimeCfg.DevMode {
		swaggerHandler := httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		)
		r.Handle("/swagger/*", swaggerHandler)
		r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// The push channel takes its token from the query string as well.
		r.With(apimiddleware.BearerOrQueryAuth(deps.Gate)).Get("/stream", streamHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.BearerAuth(deps.Gate))

			r.Get("/entities", entityHandler.ListEntities)
			r.Post("/entities", entityHandler.CreateEntity)
			r.Post("/entities/{id}/move", entityHandler.MoveEntity)
			r.Delete("/entities/{id}", entityHandler.DeleteEntity)

			r.Post("/fleet", fleetHandler.LoadFleet)

			r.Get("/simulation", simulationHandler.Status)
			r.Post("/simulation/start", simulationHandler.Start)
			r.Post("/simulation/stop", simulationHandler.Stop)
		})
	})

	httpServer := &http.Server{
		Addr:         ":" + runtimeCfg.APIPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Debug("Server configured",
		"port", runtimeCfg.APIPort,
		"dev_mode", runtimeCfg.DevMode,
		"middleware", []string{"RequestID", "RealIP", "Recoverer", "httplog", "cors"},
		"cors_origins", runtimeCfg.CORSOrigins,
	)

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error("Server error", "err", err)
	}
	return err
}

// Shutdown gracefully shuts down the server. Hijacked websocket connections
// are not tracked here; the broadcast hub closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server shutdown error", "err", err)
	} else {
		s.logger.Info("Server shutdown complete")
	}
	return err
}
