// Package server provides the HTTP API for Kioku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/ingest"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/store"
)

// requestTimeout caps a single request including both outbound calls
// (embedding provider and vector index).
const requestTimeout = 10 * time.Minute

// Server is the HTTP server for the Kioku API.
type Server struct {
	ingestion *ingest.Service
	searcher  *search.Service
	store     *store.EmbeddingStore
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	ingestion *ingest.Service,
	searcher *search.Service,
	st *store.EmbeddingStore,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingestion: ingestion,
		searcher:  searcher,
		store:     st,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/embeddings", s.handleCreateEmbedding)
	r.Get("/embeddings/{id}", s.handleGetEmbedding)
	r.Delete("/embeddings/{id}", s.handleDeleteEmbedding)
	r.Delete("/embeddings", s.handleDeleteAllEmbeddings)
	r.Post("/search", s.handleSearch)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
