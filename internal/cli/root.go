package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/forgestats/forgestats/pkg/buildinfo"
	"github.com/forgestats/forgestats/pkg/forge"
	"github.com/forgestats/forgestats/pkg/httputil"
	"github.com/forgestats/forgestats/pkg/ratelimit"
	"github.com/forgestats/forgestats/pkg/stats"
)

// Execute runs the forgestats CLI and returns an error if any command
// fails. This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (fetch,
// serve, cache, rate, completion), configures logging based on the
// --verbose flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands
// via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "forgestats",
		Short:        "Forgestats takes repository statistics snapshots",
		Long:         `Forgestats fetches repository statistics (stars, forks, issues, pulls, contributors, commits, activity) from a code forge's REST API, honoring its rate limits, pagination, and conditional-request conventions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newFetchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newRateCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

// newClient assembles a snapshot client from the configuration.
func newClient(cfg Config, token string, logger *charmlog.Logger) *stats.Client {
	if token == "" {
		token = cfg.Token
	}
	return stats.New(stats.Config{
		Transport:   forge.NewHTTPTransport(token),
		Budget:      ratelimit.NewTracker(ratelimit.Config{ProactiveRPS: cfg.ProactiveRPS}),
		BaseURL:     cfg.BaseURL,
		Concurrency: cfg.Concurrency,
		Retry:       httputil.Policy{MaxAttempts: cfg.Retries},
		PageCeiling: cfg.PageCeiling,
		Logger:      logger,
	})
}
