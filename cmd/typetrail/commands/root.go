// Package commands implements the typetrail CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/config"
	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/persist"
	"github.com/Sumatoshi-tech/typetrail/pkg/version"
)

// ErrSnapshotInput is returned when the snapshot command is pointed at an
// existing snapshot as its input.
var ErrSnapshotInput = errors.New("snapshot parses dumps and cannot read --snapshot-dir")

// GlobalOptions holds the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath  string
	Dumps       []string
	SnapshotDir string
	Verbose     bool
	Quiet       bool
}

// NewRootCommand builds the typetrail command tree.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "typetrail",
		Short: "Typetrail - type usage history of software projects",
		Long: `Typetrail turns marker-tagged history dumps into per-commit views of
declared types, used types and invoked methods.

Commands:
  projects  List the projects found in the dumps
  view      Aggregate one project into a view document
  show      Print the parsed history of one project
  snapshot  Save the parsed projects for fast startup
  validate  Check a view document against its JSON schema
  serve     Serve the views over HTTP
  mcp       Serve the views as MCP tools over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: typetrail.yaml in ., ./config or /etc/typetrail)")
	flags.StringArrayVarP(&opts.Dumps, "dump", "d", nil, "dump file, glob or directory (repeatable, overrides dump.paths)")
	flags.StringVar(&opts.SnapshotDir, "snapshot-dir", "", "load projects from the snapshot in this directory instead of parsing dumps")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")

	root.AddCommand(
		NewProjectsCommand(opts),
		NewViewCommand(opts),
		NewShowCommand(opts),
		NewSnapshotCommand(opts),
		NewValidateCommand(),
		NewServeCommand(opts),
		NewMCPCommand(opts),
		NewVersionCommand(),
	)

	return root
}

// env is the state a subcommand runs with.
type env struct {
	cfg       *config.Config
	providers observability.Providers
}

func (e *env) logger() *slog.Logger {
	return e.providers.Logger
}

func (e *env) close() {
	err := e.providers.Shutdown(context.Background())
	if err != nil {
		e.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// setup loads the configuration, applies the global flag overrides and
// initializes observability for mode.
func (o *GlobalOptions) setup(mode observability.AppMode) (*env, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	if len(o.Dumps) > 0 {
		cfg.Dump.Paths = o.Dumps
	}

	obsCfg := cfg.Observability(mode, version.Version)

	switch {
	case o.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case o.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &env{cfg: cfg, providers: providers}, nil
}

// dumpSources resolves the configured dumps: the S3 bucket when one is
// configured, the local paths otherwise.
func dumpSources(cfg *config.Config) catalog.SourceFunc {
	return func(ctx context.Context) ([]dump.Source, error) {
		if s3 := cfg.S3(); s3.Enabled() {
			return dump.ListS3(ctx, s3, cfg.MaxDumpSize())
		}

		return dump.Glob(cfg.MaxDumpSize(), cfg.Dump.Paths...)
	}
}

func newCatalog(e *env, opts ...catalog.Option) *catalog.Catalog {
	opts = append([]catalog.Option{
		catalog.WithLogger(e.logger()),
		catalog.WithViewCacheSize(e.cfg.View.CacheSize),
		catalog.WithTracer(e.providers.Tracer),
	}, opts...)

	return catalog.New(opts...)
}

// openCatalog fills a catalog from the snapshot directory when one was
// given and from the dumps otherwise.
func (o *GlobalOptions) openCatalog(ctx context.Context, e *env, opts ...catalog.Option) (*catalog.Catalog, error) {
	cat := newCatalog(e, opts...)

	if o.SnapshotDir != "" {
		snap, err := persist.LoadSnapshot(o.SnapshotDir)
		if err != nil {
			return nil, err
		}

		e.logger().DebugContext(ctx, "loaded snapshot",
			"dir", o.SnapshotDir, "projects", len(snap.Projects), "created_at", snap.CreatedAt)

		err = cat.Publish(snap.Projects)
		if err != nil {
			return nil, err
		}

		return cat, nil
	}

	sources, err := dumpSources(e.cfg)(ctx)
	if err != nil {
		return nil, err
	}

	_, err = cat.Load(ctx, sources)
	if err != nil {
		return nil, err
	}

	return cat, nil
}
