// Package server provides the HTTP API for running queries and
// managing buckets.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/eventlight-labs/eventql/internal/engine"
	"github.com/eventlight-labs/eventql/pkg/datastore"
)

// Server is the HTTP API server.
type Server struct {
	engine *engine.Engine
	ds     datastore.Datastore
	port   int
	logger *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Engine    *engine.Engine
	Datastore datastore.Datastore
	Port      int
	Logger    *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine: cfg.Engine,
		ds:     cfg.Datastore,
		port:   cfg.Port,
		logger: logger,
	}
}

// Routes builds the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Route("/api/0", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/buckets", s.handleListBuckets)
		r.Route("/buckets/{bucketID}", func(r chi.Router) {
			r.Get("/", s.handleGetBucket)
			r.Post("/", s.handleCreateBucket)
			r.Delete("/", s.handleDeleteBucket)
			r.Get("/events", s.handleGetEvents)
			r.Post("/events", s.handleInsertEvents)
		})
	})
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
