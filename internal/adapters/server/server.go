// Package server provides the HTTP status server of the watch mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 5 * time.Second

// StateSource exposes the compiler state the server reports on.
type StateSource interface {
	// Manifest returns the last committed manifest.
	Manifest() *domain.Manifest
	// LastBatch returns the summary of the last finished batch, if any.
	LastBatch() (domain.BatchSummary, bool)
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves health, metrics, manifest and batch status over HTTP.
type Server struct {
	state   StateSource
	metrics ports.Metrics
	logger  ports.Logger
}

// New creates a Server.
func New(state StateSource, metrics ports.Metrics, logger ports.Logger) *Server {
	return &Server{state: state, metrics: metrics, logger: logger}
}

// Router returns the server routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/manifest", s.Manifest)
	r.Get("/status", s.Status)
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
// ready, when not nil, receives the bound address once listening.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start status server"), "addr", addr)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info(fmt.Sprintf("status server listening on http://%s", ln.Addr()))
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "failed to stop status server")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Manifest returns the last committed manifest.
func (s *Server) Manifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Manifest())
}

// Status returns the summary of the last finished batch.
func (s *Server) Status(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.state.LastBatch()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no batch finished yet"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
