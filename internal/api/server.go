// Package api exposes the reconciliation engine over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/handlers"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/middleware"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/application/service"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/vendor"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string

	// MatchConfig tunes vendor comparison endpoints (similarity floor,
	// alias table).
	MatchConfig vendor.MatchConfig
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		MatchConfig:    vendor.DefaultMatchConfig(),
	}
}

// Server is the HTTP API server.
type Server struct {
	config        Config
	router        chi.Router
	httpServer    *http.Server
	logger        *slog.Logger
	repo          storage.Repository
	matchService  *matching.Service
	dedupeService *service.DedupeService
	detector      *upload.Detector
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, matchService *matching.Service, dedupeService *service.DedupeService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:        cfg,
		router:        chi.NewRouter(),
		logger:        logger,
		repo:          repo,
		matchService:  matchService,
		dedupeService: dedupeService,
		detector:      upload.NewDetector(repo),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Extraction confidence scoring
		extractionsHandler := handlers.NewExtractionsHandler()
		r.Post("/extractions/score", extractionsHandler.Score)

		// Transaction matching
		matchesHandler := handlers.NewMatchesHandler(s.matchService)
		r.Post("/matches", matchesHandler.Find)

		// Ledger transactions
		transactionsHandler := handlers.NewTransactionsHandler(s.repo)
		r.Post("/transactions", transactionsHandler.Create)
		r.Get("/transactions/{id}", transactionsHandler.Get)

		// Vendors: comparison, registry, duplicate detection
		vendorsHandler := handlers.NewVendorsHandler(s.repo, s.config.MatchConfig, s.dedupeService)
		r.Post("/vendors/compare", vendorsHandler.Compare)
		r.Post("/vendors/best-match", vendorsHandler.BestMatch)
		r.Get("/vendors/duplicates", vendorsHandler.Duplicates)
		r.Get("/vendors/duplicates/clusters", vendorsHandler.Clusters)
		r.Post("/vendors", vendorsHandler.Create)
		r.Get("/vendors", vendorsHandler.List)
		r.Get("/vendors/{id}", vendorsHandler.Get)

		// Statement uploads
		uploadsHandler := handlers.NewUploadsHandler(s.repo, s.detector)
		r.Post("/uploads/check", uploadsHandler.Check)
		r.Post("/uploads", uploadsHandler.Record)
		r.Get("/uploads", uploadsHandler.List)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
