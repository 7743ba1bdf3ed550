// Package server exposes the store over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/config"
	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/indexer"
	"github.com/hyperjump/ragdag/internal/search"
)

// Server is the HTTP server for the ragdag API.
type Server struct {
	engine  *search.Engine
	asker   *search.Asker
	indexer *indexer.Indexer
	graph   *graph.Graph
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	asker *search.Asker,
	ix *indexer.Indexer,
	g *graph.Graph,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		asker:   asker,
		indexer: ix,
		graph:   g,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/add", s.handleAdd)
	r.Post("/search", s.handleSearch)
	r.Post("/ask", s.handleAsk)
	r.Get("/graph", s.handleGraph)
	r.Get("/neighbors/*", s.handleNeighbors)
	r.Get("/trace/*", s.handleTrace)
	r.Post("/link", s.handleLink)
	r.Post("/relate", s.handleRelate)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
