package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/render"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

type viewOptions struct {
	mode               string
	ignoreLargeCommits bool
	format             string
	output             string
}

// NewViewCommand creates the command aggregating one project into a view document.
func NewViewCommand(opts *GlobalOptions) *cobra.Command {
	vo := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view <project>",
		Short: "Aggregate one project into a view document",
		Long: `Aggregate a project into the document consumed by the visualization:
the included commits, the chronological edit events, the authors and the
distinct type names.

Types:
  Declarations  declared members
  Types         declared members and the owners of invoked members
  Invocations   invoked members

Examples:
  typetrail view demo
  typetrail view demo --type Invocations --ignore-large-commits
  typetrail view demo --format plot -o demo.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts, vo, args[0])
		},
	}

	cmd.Flags().StringVarP(&vo.mode, "type", "t", "", "view type: Declarations, Types or Invocations (default from view.type)")
	cmd.Flags().BoolVar(&vo.ignoreLargeCommits, "ignore-large-commits", false,
		"drop commits touching more files than view.large_commit_threshold")
	cmd.Flags().StringVarP(&vo.format, "format", "f", render.FormatJSON, "output format: json, yaml, text or plot")
	cmd.Flags().StringVarP(&vo.output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runView(cmd *cobra.Command, opts *GlobalOptions, vo *viewOptions, name string) error {
	format, err := render.ValidateFormat(vo.format, render.DocumentFormats())
	if err != nil {
		return err
	}

	e, err := opts.setup(observability.ModeCLI)
	if err != nil {
		return err
	}
	defer e.close()

	cfg := e.cfg.ViewConfig()

	if vo.mode != "" {
		cfg.Mode = view.MatchMode(vo.mode)
	}

	if cmd.Flags().Changed("ignore-large-commits") {
		cfg.IgnoreLargeCommits = vo.ignoreLargeCommits
	}

	if !cfg.Mode.Known() {
		e.logger().WarnContext(cmd.Context(), "unknown view type, the document will have no events", "type", cfg.Mode)
	}

	cat, err := opts.openCatalog(cmd.Context(), e)
	if err != nil {
		return err
	}

	doc, err := cat.View(cmd.Context(), name, cfg)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), vo.output, func(w io.Writer) error {
		return render.Document(doc, format, w)
	})
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := write(file)

	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}

	return nil
}
