package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgestats/forgestats/pkg/stats"
)

// newRateCmd creates the rate command, which probes the forge's rate
// endpoint by fetching a cheap category and reporting the budget headers.
func newRateCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "rate owner/repo",
		Short: "Show the current rate-budget state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ref, err := stats.ParseRef(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client := newClient(cfg, token, logger)
			if _, err := client.Fetch(ctx, ref, stats.CategoryStars); err != nil {
				return fmt.Errorf("probe request: %w", err)
			}

			b := client.Budget()
			printKeyValue("remaining", strconv.Itoa(b.Remaining))
			printKeyValue("limit", strconv.Itoa(b.Limit))
			if !b.ResetAt.IsZero() {
				printKeyValue("resets", b.ResetAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "forge API token (overrides config)")
	return cmd
}
