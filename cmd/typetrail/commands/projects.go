package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/render"
)

// NewProjectsCommand creates the projects listing command.
func NewProjectsCommand(opts *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects found in the dumps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized, err := render.ValidateFormat(format, render.ListingFormats())
			if err != nil {
				return err
			}

			e, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			cat, err := opts.openCatalog(cmd.Context(), e)
			if err != nil {
				return err
			}

			summaries, err := cat.Summaries()
			if err != nil {
				return err
			}

			return render.Listing(summaries, normalized, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format: text, json or yaml")

	return cmd
}
