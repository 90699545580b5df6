// Package api provides the HTTP API server for the lakepath catalog.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/janovincze/lakepath/internal/api/handlers"
	"github.com/janovincze/lakepath/internal/api/middleware"
	"github.com/janovincze/lakepath/internal/catalog"
	"github.com/janovincze/lakepath/internal/config"
	"github.com/janovincze/lakepath/internal/metrics"
)

// Server is the HTTP API server.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	catalog    *catalog.Catalog
	readiness  handlers.ReadinessChecker
	httpServer *http.Server
	router     *gin.Engine
}

// ServerConfig holds server configuration options.
type ServerConfig struct {
	// Config is the application configuration.
	Config *config.Config

	// Logger is the structured logger.
	Logger *slog.Logger

	// Catalog serves the namespace and table endpoints.
	Catalog *catalog.Catalog

	// Readiness is an optional readiness probe against the storage
	// backend.
	Readiness handlers.ReadinessChecker

	// CORSConfig is the CORS configuration.
	CORSConfig middleware.CORSConfig

	// RateLimitConfig is the rate limiting configuration.
	RateLimitConfig middleware.RateLimitConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig(cfg *config.Config, logger *slog.Logger) ServerConfig {
	return ServerConfig{
		Config:          cfg,
		Logger:          logger,
		CORSConfig:      middleware.DefaultCORSConfig(),
		RateLimitConfig: middleware.DefaultRateLimitConfig(),
	}
}

// NewServer creates a new API server.
func NewServer(serverCfg ServerConfig) *Server {
	logger := serverCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Set Gin mode based on environment
	if serverCfg.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Register Prometheus metrics
	if serverCfg.Config.Metrics.Enabled {
		metrics.Register()
	}

	// Apply middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	if serverCfg.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(serverCfg.CORSConfig))
	router.Use(middleware.RateLimiter(serverCfg.RateLimitConfig))

	s := &Server{
		cfg:       serverCfg.Config,
		logger:    logger.With("component", "api-server"),
		catalog:   serverCfg.Catalog,
		readiness: serverCfg.Readiness,
		router:    router,
	}

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         serverCfg.Config.API.ListenAddr,
		Handler:      router,
		ReadTimeout:  serverCfg.Config.API.ReadTimeout,
		WriteTimeout: serverCfg.Config.API.WriteTimeout,
		IdleTimeout:  serverCfg.Config.API.ReadTimeout * 4,
	}

	return s
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	healthHandler := handlers.NewHealthHandler(s.readiness)
	versionHandler := handlers.NewVersionHandler(s.cfg.Version)
	configHandler := handlers.NewConfigHandler(s.cfg)

	// Health endpoints (no versioning)
	s.router.GET("/health", healthHandler.GetHealth)
	s.router.GET("/health/live", healthHandler.GetLiveness)
	s.router.GET("/health/ready", healthHandler.GetReadiness)

	// Metrics endpoint (no versioning)
	if s.cfg.Metrics.Enabled {
		s.router.GET(s.cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/version", versionHandler.GetVersion)
		v1.GET("/config", configHandler.GetConfig)

		if s.catalog != nil {
			catalogHandler := handlers.NewCatalogHandler(s.catalog)

			v1.GET("/namespaces", catalogHandler.ListNamespaces)
			v1.POST("/namespaces", catalogHandler.CreateNamespace)
			v1.GET("/namespaces/:namespace", catalogHandler.GetNamespace)
			v1.DELETE("/namespaces/:namespace", catalogHandler.DropNamespace)

			v1.GET("/namespaces/:namespace/tables", catalogHandler.ListTables)
			v1.POST("/namespaces/:namespace/tables", catalogHandler.CreateTable)
			v1.GET("/namespaces/:namespace/tables/:table", catalogHandler.GetTable)
			v1.DELETE("/namespaces/:namespace/tables/:table", catalogHandler.DropTable)

			v1.POST("/tables/rename", catalogHandler.RenameTable)
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.cfg.API.ListenAddr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
