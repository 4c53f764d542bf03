package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
)

// NewShowCommand creates the command printing one project's parsed history.
func NewShowCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Print the parsed history of one project",
		Long: `Print every commit of a project with its touched files, message and the
per-file declaration and invocation histograms, exactly as parsed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			cat, err := opts.openCatalog(cmd.Context(), e)
			if err != nil {
				return err
			}

			project, err := cat.Project(args[0])
			if err != nil {
				return err
			}

			return history.WriteTree(cmd.OutOrStdout(), project)
		},
	}
}
