// Package server provides the HTTP status server for signset.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signset/internal/catalog"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/logging"
	"github.com/ayusman/signset/internal/metrics"
	"github.com/ayusman/signset/internal/server/api"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Nil components disable their routes.
type Config struct {
	Catalog        *catalog.Catalog
	Layout         *dataset.Layout
	SequenceLength int
	Metrics        *metrics.Metrics
	Hub            *Hub
	Preview        *Preview
	Logger         *slog.Logger
}

// Server represents the HTTP status server.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
	log    *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Get("/api/health", s.handleHealth)

	if s.config.Catalog != nil {
		runs := api.NewRunsHandler(s.config.Catalog)
		r.Get("/api/runs", runs.List)
		r.Get("/api/runs/{id}", runs.Get)
	}

	if s.config.Layout != nil {
		data := api.NewDatasetHandler(s.config.Layout, s.config.SequenceLength)
		r.Get("/api/dataset", data.Summary)
		r.Get("/api/dataset/{label}/{sequence}/{frame}", data.Frame)
	}

	if s.config.Preview != nil {
		r.Get("/api/stream", NewStreamHandler(s.config.Preview).ServeHTTP)
	}

	if s.config.Hub != nil {
		r.Get("/api/events", s.config.Hub.ServeHTTP)
	}

	if s.config.Metrics != nil {
		r.Get("/metrics", s.config.Metrics.Handler().ServeHTTP)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Serve runs the server on ln until ctx is done, then shuts it down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("status server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
