// Package server exposes a merged curriculum dataset over the SPARQL 1.1
// protocol, shaped like a read-only Fuseki endpoint: /{dataset}/sparql
// for queries, /{dataset}/data for the serialized graph, /$/ping and
// /$/stats for administration, /healthz and /metrics for operations.
// The served dataset is swapped atomically, so a watcher can reload data
// files without interrupting in-flight queries.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oaknational/currigraph/dataset"
)

const (
	// DefaultAddr is the listen address, on the customary Fuseki port.
	DefaultAddr = ":3030"

	// DefaultDataset is the dataset name in request paths.
	DefaultDataset = "curriculum"

	// DefaultQueryTimeout bounds a single query evaluation.
	DefaultQueryTimeout = 30 * time.Second

	// maxQueryBodySize limits POSTed query bodies.
	maxQueryBodySize = 1 << 20 // 1 MB

	// shutdownGrace is how long in-flight requests get on shutdown.
	shutdownGrace = 10 * time.Second
)

// Options configures the service.
type Options struct {
	// Addr is the listen address.
	Addr string

	// Dataset is the dataset name clients address in the URL path.
	Dataset string

	// QueryTimeout bounds a single query evaluation. Zero means the
	// default; negative disables the timeout.
	QueryTimeout time.Duration

	// ReadTimeout is the HTTP server read timeout.
	ReadTimeout time.Duration

	// MaxBodyBytes caps POSTed request bodies.
	MaxBodyBytes int64
}

func (o *Options) applyDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.Dataset == "" {
		o.Dataset = DefaultDataset
	}
	if o.QueryTimeout == 0 {
		o.QueryTimeout = DefaultQueryTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 15 * time.Second
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = maxQueryBodySize
	}
}

// Server serves SPARQL queries over a dataset snapshot.
type Server struct {
	opts    Options
	log     *slog.Logger
	metrics *metrics
	handler http.Handler

	ds atomic.Pointer[dataset.Dataset]

	started  time.Time
	requests atomic.Int64
	queries  atomic.Int64
}

// New builds a Server over the dataset. A nil logger falls back to
// slog.Default.
func New(opts Options, ds *dataset.Dataset, logger *slog.Logger) *Server {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:    opts,
		log:     logger,
		metrics: newMetrics(),
		started: time.Now(),
	}
	s.SetDataset(ds)

	mux := http.NewServeMux()
	mux.HandleFunc("/{dataset}/sparql", s.handleSPARQL)
	mux.HandleFunc("/{dataset}/data", s.handleData)
	mux.HandleFunc("GET /$/ping", s.handlePing)
	mux.HandleFunc("GET /$/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler)
	s.handler = s.instrument(mux)

	return s
}

// Dataset returns the currently served snapshot.
func (s *Server) Dataset() *dataset.Dataset {
	return s.ds.Load()
}

// SetDataset atomically swaps the served snapshot. Requests already
// executing keep the graph they started with.
func (s *Server) SetDataset(ds *dataset.Dataset) {
	s.ds.Store(ds)
	s.metrics.triples.Set(float64(ds.Graph.Len()))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("server listening",
		slog.String("addr", s.opts.Addr),
		slog.String("dataset", "/"+s.opts.Dataset),
		slog.Int("triples", s.Dataset().Graph.Len()))

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down", slog.Duration("grace", shutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}
