package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"newsmarker/internal/ai"
	"newsmarker/internal/auth"
	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
	"newsmarker/internal/features/bookmarks"
	"newsmarker/internal/features/feeds"
	"newsmarker/internal/features/feeds/models"
	"newsmarker/internal/server/handlers"
)

// Version is reported by the health endpoint
var Version = "dev"

type Server struct {
	config         *core.Config
	logger         *core.Logger
	db             *core.Database
	store          *docstore.Store
	authService    *auth.Service
	authMiddleware *auth.Middleware
	registry       *core.Registry
	limiter        *stdlib.Middleware
	feeds          *feeds.Feature
	bookmarks      *bookmarks.Feature
	handler        http.Handler
	server         *http.Server
}

// New opens the database, builds every feature and wires the router.
// Nothing runs until Start.
func New(ctx context.Context, config *core.Config, logger *core.Logger) (*Server, error) {
	db, err := core.OpenDatabase(config.Database, logger)
	if err != nil {
		return nil, err
	}

	srv, err := newWithDatabase(ctx, config, logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return srv, nil
}

func newWithDatabase(ctx context.Context, config *core.Config, logger *core.Logger, db *core.Database) (*Server, error) {
	store, err := docstore.Open(ctx, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare document store: %w", err)
	}

	generator, err := ai.New(ctx, config.Features.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure AI generator: %w", err)
	}

	feedsConfig, err := feeds.NewConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed sources: %w", err)
	}

	authService := auth.NewService(store, logger, config.Auth)
	authMiddleware := auth.NewMiddleware(authService, logger)
	registry := core.NewRegistry(logger)

	feedsFeature := feeds.NewFeature(logger, store, generator, feedsConfig)
	bookmarksFeature := bookmarks.NewFeature(logger, store, config.IsFeatureEnabled("bookmarks"))

	for _, feature := range []core.Feature{
		auth.NewFeature(logger, authService, authMiddleware),
		feedsFeature,
		bookmarksFeature,
	} {
		if err := registry.Register(feature); err != nil {
			return nil, fmt.Errorf("failed to register %s feature: %w", feature.Name(), err)
		}
	}

	srv := &Server{
		config:         config,
		logger:         logger,
		db:             db,
		store:          store,
		authService:    authService,
		authMiddleware: authMiddleware,
		registry:       registry,
		feeds:          feedsFeature,
		bookmarks:      bookmarksFeature,
	}

	if config.RateLimit.Enabled {
		srv.limiter = newRateLimiter(config.RateLimit, logger)
	}

	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.logger, s.registry, s.db, Version)

	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(s.authMiddleware.Authenticate)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.WriteErrorResponse(w, http.StatusNotFound, core.NewNotFoundError("Route not found", nil))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		core.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			core.NewInvalidInputError("Method not allowed", nil))
	})

	// Health check
	mux.Get("/health", healthHandler.HealthCheckHandler)

	// Feature routes
	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, s.wrapRoute(route))
	}

	s.handler = mux
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// wrapRoute applies the per-route auth and rate limit policies. The
// limiter runs first so rejected callers never reach token checks.
func (s *Server) wrapRoute(route core.Route) http.Handler {
	handler := route.Handler
	if route.Authenticated {
		handler = s.authMiddleware.RequireAuthenticatedUser(handler)
	}

	if route.RateLimited && s.limiter != nil {
		return s.limiter.Handler(handler)
	}
	return handler
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Feeds returns the feeds feature
func (s *Server) Feeds() *feeds.Feature {
	return s.feeds
}

// RunFetchCycle runs a single ingestion cycle without the scheduler
func (s *Server) RunFetchCycle(ctx context.Context) (*models.CycleResult, error) {
	s.feeds.DisableScheduler()
	if err := s.feeds.Init(ctx); err != nil {
		return nil, err
	}
	defer s.feeds.Shutdown(ctx)

	return s.feeds.Pipeline().Run(ctx)
}

// Start initializes every enabled feature and serves HTTP until Shutdown
func (s *Server) Start(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops features, drains HTTP connections and closes the database
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown HTTP server", "error", err)
	}

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	s.db.LogStats()
	return s.Close()
}

// Close releases the database without touching features or the listener
func (s *Server) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
