package cli

import (
	"github.com/spf13/cobra"

	"github.com/forgestats/forgestats/internal/api"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var (
		addr  string
		token string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes the snapshot engine over HTTP:

  GET /repos/{owner}/{name}/stats            take or refresh a snapshot
  GET /repos/{owner}/{name}/stats/{category} fetch a single category
  GET /rate                                  current rate-budget state
  GET /healthz                               health probe
  GET /version                               build information

Snapshots persist through the configured store, so repeated requests for
the same repository re-fetch conditionally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			server := api.NewServer(api.Config{
				Client: newClient(cfg, token, logger),
				Store:  store,
				Logger: logger,
			})
			return server.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&token, "token", "", "forge API token (overrides config)")

	return cmd
}
