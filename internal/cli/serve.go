package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
	"github.com/matzehuels/mangalayout/pkg/server"
)

// serveCommand creates the serve command exposing the page store over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		storeURL string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored pages over HTTP",
		Long: `Serve exposes the page store as a JSON API with PNG previews and SVG
panel trees. POST /pages generates new pages when the catalogues load;
otherwise the server is read-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			ctx := cmd.Context()
			st, err := c.openStore(ctx, cfg, storeURL)
			if err != nil {
				return err
			}
			defer st.Close()

			var runner *pipeline.Runner
			if gen, err := c.newGenerator(cfg, noCache); err != nil {
				c.Logger.Warn("generation disabled", "code", errors.GetCode(err), "err", errors.UserMessage(err))
			} else {
				runner = pipeline.NewRunner(gen, st, c.Logger)
			}

			srv := server.New(st, runner, cfg.Batch.Workers, c.Logger)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&storeURL, "store", "", "page store URL (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artwork probe cache")

	return cmd
}
