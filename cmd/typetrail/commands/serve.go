package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/server"
)

// NewServeCommand creates the HTTP server command.
func NewServeCommand(opts *GlobalOptions) *cobra.Command {
	return newServeCommandWithDeps(opts, nil)
}

// newServeCommandWithDeps builds the serve command; onStart, when set,
// observes the running server.
func newServeCommandWithDeps(opts *GlobalOptions, onStart func(*server.Server)) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the views over HTTP",
		Long: `Parse the dumps once and serve them until interrupted.

Endpoints:
  GET /                                   project index
  GET /projects/{name}/                   project summary
  GET /projects/{name}/get_project?type=  view document (json or yaml)
  GET /projects/{name}/chart?type=        activity chart
  GET /healthz, /readyz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(observability.ModeServe)
			if err != nil {
				return err
			}
			defer e.close()

			if cmd.Flags().Changed("host") {
				e.cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				e.cfg.Server.Port = port
			}

			return runServe(cmd.Context(), opts, e, onStart)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, 0 picks a free one (default from server.port)")

	return cmd
}

func runServe(ctx context.Context, opts *GlobalOptions, e *env, onStart func(*server.Server)) error {
	red, err := observability.NewREDMetrics(e.providers.Meter)
	if err != nil {
		return err
	}

	parseMetrics, err := observability.NewParseMetrics(e.providers.Meter)
	if err != nil {
		return err
	}

	cat, err := opts.openCatalog(ctx, e, catalog.WithMetrics(parseMetrics))
	if err != nil {
		return err
	}

	cfg := e.cfg

	srv, err := server.Start(ctx, cat, server.Options{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		View:         cfg.ViewConfig(),
		Logger:       e.logger(),
		Tracer:       e.providers.Tracer,
		RED:          red,
		Metrics:      e.providers.MetricsHandler,
	})
	if err != nil {
		return err
	}

	if opts.SnapshotDir == "" {
		go cat.Watch(ctx, cfg.Dump.ReloadInterval, dumpSources(cfg))
	}

	if onStart != nil {
		onStart(srv)
	}

	select {
	case serveErr := <-srv.Done():
		return serveErr
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	e.logger().InfoContext(shutdownCtx, "shutting down server")

	return srv.Shutdown(shutdownCtx)
}
