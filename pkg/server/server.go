// Package server exposes the catalog over HTTP: the project index, per
// project summaries, aggregated view documents and activity charts, plus
// health, readiness and Prometheus endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// Default timeouts.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Catalog is the read side of the project catalog used by the handlers.
type Catalog interface {
	Ready(ctx context.Context) error
	Snapshot() *catalog.Snapshot
	Project(name string) (*history.Project, error)
	View(ctx context.Context, name string, cfg view.Config) (*view.Document, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// View carries the deployment's large-commit and source-filter settings.
	// The mode is taken from each request.
	View    view.Config
	Logger  *slog.Logger
	Tracer  trace.Tracer
	RED     *observability.REDMetrics
	Metrics http.Handler
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}

	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}

	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("")
	}

	return o
}

// Server is a running HTTP server.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
	done     chan error
}

// Start listens on opts.Addr and serves the catalog in the background.
func Start(ctx context.Context, cat Catalog, opts Options) (*Server, error) {
	opts = opts.withDefaults()

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}

	srv := &Server{
		server: &http.Server{
			Handler:      NewHandler(cat, opts),
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		listener: listener,
		logger:   opts.Logger,
		done:     make(chan error, 1),
	}

	go func() {
		serveErr := srv.server.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}

		srv.done <- serveErr
	}()

	opts.Logger.InfoContext(ctx, "server listening", "addr", srv.Addr())

	return srv, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Done delivers the serve error once the server stops. A graceful shutdown
// delivers nil.
func (s *Server) Done() <-chan error {
	return s.done
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	s.logger.InfoContext(ctx, "server stopped")

	return nil
}
