package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/TeamHub/backend/internal/api/http"
	"github.com/GriffinCanCode/TeamHub/backend/internal/api/middleware"
	"github.com/GriffinCanCode/TeamHub/backend/internal/api/ws"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout/persist"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/session"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/TeamHub/backend/internal/storage"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	http       *http.Server
	backend    *storage.Guarded
	workspaces *workspace.Manager
	sessions   *session.Manager
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing layout service",
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Metrics first, other components record into them
	metrics := monitoring.NewMetrics()

	raw, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	backend := storage.NewGuarded(raw, cfg.Storage.BreakerFailures, cfg.Storage.BreakerTimeout, logger.Component("storage"))
	logger.Info("Storage opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.Storage.Path),
	)

	defaults, err := persist.LoadDefaults(cfg.Layout.DefaultsFile)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load default layout: %w", err)
	}
	if cfg.Layout.DefaultsFile != "" {
		logger.Info("Loaded default layout",
			zap.String("file", cfg.Layout.DefaultsFile),
			zap.Int("tabs", len(defaults.Tabs)),
		)
	}

	adapter := persist.NewAdapter(backend, logger.Component("persist"),
		persist.WithKeyPrefix(cfg.Layout.StorageKey),
		persist.WithDefaults(defaults),
	).WithMetrics(metrics)
	workspaces := workspace.NewManager(adapter, logger.Component("layout")).
		WithMetrics(metrics).
		WithMaxLoaded(cfg.Layout.MaxLoaded)
	sessions := session.NewManager(backend, logger.Component("session")).WithMetrics(metrics)

	tracer := tracing.New(logger.Component("http"), 0)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limit.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limit))
	}

	handlers := apihttp.NewHandlers(workspaces, sessions, metrics, logger.Component("api")).
		WithBreaker(backend.Breaker())
	handlers.Register(router)

	wsHandler := ws.NewHandler(workspaces, cfg.CORS.Origins, logger.Component("ws")).WithMetrics(metrics)
	router.GET("/workspaces/:ws/stream", wsHandler.HandleConnection)

	router.GET("/metrics", monitoring.Handler(metrics))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Addr(),
			Handler: router,
		},
		backend:    backend,
		workspaces: workspaces,
		sessions:   sessions,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Router exposes the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// storage
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close releases storage and flushes logs without waiting for requests
func (s *Server) Close() error {
	s.tracer.Close()
	if err := s.backend.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		return fmt.Errorf("failed to close storage: %w", err)
	}
	s.logger.Info("Closed storage")

	_ = s.logger.Sync()
	return nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	kind := storage.Kind(strings.ToLower(cfg.Backend))
	path := cfg.Path
	if kind == storage.KindSQLite && filepath.Ext(path) == "" {
		path = filepath.Join(path, "layouts.db")
	}
	backend, err := storage.Open(ctx, kind, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", kind, err)
	}
	return backend, nil
}
