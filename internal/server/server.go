// Package server provides the HTTP API for the stockwise context engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/analytics"
	"github.com/hyperjump/stockwise/internal/config"
	"github.com/hyperjump/stockwise/internal/search"
	"github.com/hyperjump/stockwise/internal/vector"
)

// Server is the HTTP server for the stockwise API.
type Server struct {
	engine    *search.Engine
	store     *vector.Store
	analytics *analytics.Cache
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	store *vector.Store,
	cache *analytics.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:    engine,
		store:     store,
		analytics: cache,
		config:    cfg,
		logger:    logger,
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/search", s.handleSearch)
		r.Post("/context", s.handleContext)

		r.Get("/analytics", s.handleAnalytics)
		r.Post("/analytics/refresh", s.handleAnalyticsRefresh)
		r.Delete("/analytics", s.handleAnalyticsInvalidate)

		r.Post("/embeddings/regenerate", s.handleRegenerate)
		r.Delete("/embeddings", s.handleEmbeddingsInvalidate)

		r.Put("/documents/products", s.handleUpdateProduct)
		r.Put("/documents/suppliers", s.handleUpdateSupplier)
		r.Post("/documents/sales/refresh", s.handleRefreshSales)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Resync invalidates analytics and rebuilds embeddings. It is called when the data store
// changes outside the API.
func (s *Server) Resync(ctx context.Context) {
	s.analytics.Invalidate(ctx)
	n, err := s.store.Regenerate(ctx)
	if err != nil {
		s.logger.Warn("Resync finished with errors", zap.Int("documents", n), zap.Error(err))
		return
	}
	s.logger.Info("Resynced from data store", zap.Int("documents", n))
}
