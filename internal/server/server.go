// Package server exposes the HTTP API: scrape and analysis triggers, run
// logs, stored articles, and aggregated trend views.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pheye/internal/cache"
	"pheye/internal/funds"
	"pheye/internal/logger"
	"pheye/internal/ml"
	"pheye/internal/persistence"
	"pheye/internal/queue"
	"pheye/internal/runlog"
	"pheye/internal/scrape"
	"pheye/internal/trends"
)

// Options wires the server's dependencies and policies.
type Options struct {
	Addr            string
	AdminToken      string
	EntityAnalytics bool
	Tasks           *queue.Client
	Registry        *scrape.Registry
	Trends          *trends.Service
	Cache           *cache.Cache
	Lexicon         *ml.Loader
	Classifier      *funds.Classifier
	Recorder        *runlog.Recorder
}

// Server is the HTTP API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	db         persistence.Database
	opts       Options
	log        *slog.Logger
}

// New creates the API server.
func New(db persistence.Database, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.Classifier == nil {
		opts.Classifier = funds.NewClassifier()
	}

	s := &Server{
		router: chi.NewRouter(),
		db:     db,
		opts:   opts,
		log:    logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/scrape", func(r chi.Router) {
		r.Post("/run", s.handleScrapeRun)
		r.Get("/status/{taskID}", s.handleScrapeStatus)
	})

	s.router.Post("/ml/analyze", s.handleAnalyze)

	s.router.Route("/logs", func(r chi.Router) {
		r.Get("/recent", s.handleRecentLogs)
		r.Get("/{runID}", s.handleGetLog)
	})

	s.router.Route("/articles", func(r chi.Router) {
		r.Get("/", s.handleListArticles)
		r.Get("/{id}/analysis", s.handleArticleAnalysis)
	})

	s.router.Get("/trends/sentiment", s.handleSentimentTrends)
	s.router.Get("/bias/summary", s.handleBiasSummary)
	s.router.Get("/dashboard/comprehensive", s.handleDashboard)
	s.router.Get("/analytics/entities", s.handleEntityAnalytics)

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/recompute-funds", s.handleRecomputeFunds)
		r.Post("/lexicon/suggestions", s.handleLexiconSuggestions)
		r.Post("/lexicon/reload", s.handleLexiconReload)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
