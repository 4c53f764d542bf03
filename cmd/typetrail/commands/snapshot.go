package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/persist"
)

// NewSnapshotCommand creates the command saving parsed projects to disk.
func NewSnapshotCommand(opts *GlobalOptions) *cobra.Command {
	var (
		dir        string
		compressed bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the parsed projects for fast startup",
		Long: `Parse the configured dumps and save the resulting projects. Pass the
directory to --snapshot-dir later to skip parsing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.SnapshotDir != "" {
				return ErrSnapshotInput
			}

			e, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			if dir == "" {
				dir = e.cfg.Snapshot.Directory
			}

			if !cmd.Flags().Changed("compress") {
				compressed = e.cfg.Snapshot.Compress
			}

			sources, err := dumpSources(e.cfg)(cmd.Context())
			if err != nil {
				return err
			}

			cat := newCatalog(e)

			_, err = cat.Load(cmd.Context(), sources)
			if err != nil {
				return err
			}

			projects, err := cat.Projects()
			if err != nil {
				return err
			}

			path, err := persist.SaveSnapshot(dir, &persist.Snapshot{
				CreatedAt: time.Now().UTC(),
				Sources:   sourceNames(sources),
				Projects:  projects,
			}, compressed)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d projects to %s\n", len(projects), path)

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "out", "", "snapshot directory (default from snapshot.directory)")
	cmd.Flags().BoolVar(&compressed, "compress", true, "LZ4-compress the snapshot (default from snapshot.compress)")

	return cmd
}

func sourceNames(sources []dump.Source) []string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}

	return names
}
