package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// ErrValidationFailed is returned when a document does not match the schema.
var ErrValidationFailed = errors.New("validation failed")

const stdinPath = "-"

// NewValidateCommand creates the command checking a view document against its schema.
func NewValidateCommand() *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Check a view document against its JSON schema",
		Long: `Validate a view document produced by "typetrail view" or the HTTP
get_project endpoint against the embedded JSON schema.

Examples:
  typetrail validate demo.json
  typetrail view demo | typetrail validate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case nocolor:
				color.NoColor = true //nolint:reassign // intentional override of library global
			case colorize:
				color.NoColor = false //nolint:reassign // intentional override of library global
			}

			return runValidate(cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(stdin io.Reader, out io.Writer, path string) error {
	data, label, err := readInput(stdin, path)
	if err != nil {
		return err
	}

	err = view.ValidateDocument(data)
	if err == nil {
		color.New(color.FgGreen).Fprintf(out, "Document is valid (%s)\n", label)

		return nil
	}

	var verr *view.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", label, err)
	}

	color.New(color.FgRed).Fprintf(out, "Document validation failed (%s)\n", label)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, problem := range verr.Problems {
		color.New(color.FgRed).Fprintf(out, "  - %s\n", problem)
	}

	return fmt.Errorf("%w: %d problems in %s", ErrValidationFailed, len(verr.Problems), label)
}

func readInput(stdin io.Reader, path string) (data []byte, label string, err error) {
	if path == stdinPath {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, "stdin", nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}

	return data, path, nil
}
