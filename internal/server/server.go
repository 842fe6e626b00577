// Package server exposes the normalized dataset and its aggregates as a
// read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"enrprod/internal/logger"
	"enrprod/internal/metrics"
	"enrprod/internal/models"
)

// Store returns the dataset of a source file, building it when needed.
type Store interface {
	Get(ctx context.Context, path string) (*models.Dataset, error)
	Invalidate(path string) bool
}

// Options configures a Server.
type Options struct {
	// Path is the source file served by the API.
	Path        string
	MetricsPath string
	// Gatherer backs the metrics endpoint; nil disables it.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Server serves the data API.
type Server struct {
	store   Store
	path    string
	log     *logger.Logger
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New creates a server reading datasets from store.
func New(store Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		store:   store,
		path:    opts.Path,
		log:     log.Component("server"),
		metrics: opts.Metrics,
		mux:     http.NewServeMux(),
	}

	s.routes()

	if opts.Gatherer != nil {
		metricsPath := opts.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}

		s.mux.Handle("GET "+metricsPath, metrics.Handler(opts.Gatherer))
	}

	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", s.handleHealth)
	s.handle("GET /api/v1/options", s.handleOptions)
	s.handle("GET /api/v1/observations", s.handleObservations)
	s.handle("GET /api/v1/aggregate", s.handleAggregate)
	s.handle("GET /api/v1/kpis", s.handleKPIs)
	s.handle("GET /api/v1/top", s.handleTop)
	s.handle("GET /api/v1/growth", s.handleGrowth)
	s.handle("GET /api/v1/cumulative", s.handleCumulative)
	s.handle("GET /api/v1/pivot", s.handlePivot)
	s.handle("GET /api/v1/distribution", s.handleDistribution)
	s.handle("GET /api/v1/heatmap", s.handleHeatmap)
	s.handle("GET /api/v1/change", s.handleChange)
	s.handle("GET /api/v1/regions/{region}/geometry", s.handleGeometry)
	s.handle("POST /api/v1/cache/invalidate", s.handleInvalidate)
}

// handle registers h under pattern, recording status codes per route.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)

		s.metrics.RecordHTTP(route, resp.status)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Slog().Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
