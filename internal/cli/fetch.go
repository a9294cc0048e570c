package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgestats/forgestats/pkg/stats"
)

// newFetchCmd creates the fetch command.
func newFetchCmd() *cobra.Command {
	var (
		categories []string
		jsonOut    bool
		fresh      bool
		noProgress bool
		token      string
	)

	cmd := &cobra.Command{
		Use:   "fetch owner/repo",
		Short: "Take a statistics snapshot of a repository",
		Long: `Fetch takes a point-in-time snapshot of a repository's statistics:
stars, forks, open and closed issues, merged pulls, contributors,
commits, and weekly commit activity.

The previous snapshot (if stored) serves as the conditional baseline, so
unchanged categories cost a single request unit. Categories that fail
are reported individually without failing the snapshot.`,
		Example: `  forgestats fetch rust-lang/rust
  forgestats fetch golang/go --categories stars,forks --json
  forgestats fetch octocat/hello-world --fresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ref, err := stats.ParseRef(args[0])
			if err != nil {
				return err
			}
			cats, err := stats.ParseCategories(categories)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newClient(cfg, token, logger)

			var prev *stats.RepositorySnapshot
			if !fresh {
				prev, err = store.Load(ctx, ref)
				if err != nil {
					logger.Warn("snapshot store read failed", "err", err)
				}
				if prev != nil {
					logger.Debug("using stored snapshot as conditional baseline",
						"taken_at", prev.TakenAt)
				}
			}

			var stop func()
			switch {
			case jsonOut:
				// No terminal UI when output is machine-readable.
			case noProgress:
				sp := newSpinnerWithContext(ctx, fmt.Sprintf("Taking snapshot of %s", ref))
				sp.Start()
				stop = sp.Stop
			default:
				stop = runFetchTUI(cats)
			}

			p := newProgress(logger)
			snap, err := client.Snapshot(ctx, ref, stats.SnapshotOptions{
				Categories: cats,
				Previous:   prev,
			})
			if stop != nil {
				stop()
			}
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Snapshot of %s taken", ref))

			if err := store.Save(ctx, snap); err != nil {
				logger.Warn("snapshot store write failed", "err", err)
			}

			if jsonOut {
				return renderJSON(os.Stdout, snap)
			}
			renderSnapshot(os.Stdout, snap, client.Budget())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&categories, "categories", "c", nil,
		"categories to fetch (default all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the snapshot as JSON")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the stored snapshot baseline")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress display")
	cmd.Flags().StringVar(&token, "token", "", "forge API token (overrides config)")

	return cmd
}
