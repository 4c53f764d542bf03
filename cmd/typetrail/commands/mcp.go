package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/mcp"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(opts *GlobalOptions) *cobra.Command {
	return newMCPCommandWithDeps(opts, (*mcp.Server).Run)
}

func newMCPCommandWithDeps(opts *GlobalOptions, run func(*mcp.Server, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the views as MCP tools over stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - typetrail_list_projects: project names with commit and author counts
  - typetrail_get_project: the view document of one project
  - typetrail_type_activity: per-type added and removed counts of one project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(observability.ModeMCP)
			if err != nil {
				return err
			}
			defer e.close()

			red, err := observability.NewREDMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			parseMetrics, err := observability.NewParseMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			cat, err := opts.openCatalog(cmd.Context(), e, catalog.WithMetrics(parseMetrics))
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Catalog: cat,
				View:    e.cfg.ViewConfig(),
				Version: version.Version,
				Logger:  e.logger(),
				Metrics: red,
				Tracer:  e.providers.Tracer,
			})

			return run(srv, cmd.Context())
		},
	}
}
