package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
)

// configCommand creates the config command printing the effective configuration.
func (c *CLI) configCommand() *cobra.Command {
	var (
		format string
		write  string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the defaults merged with the file named by --config. The
output is a complete configuration file; --write saves it instead.`,
		Example: `  mangalayout config > mangalayout.toml
  mangalayout config --format yaml
  mangalayout -c base.toml config --write tuned.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if write != "" {
				if err := config.Save(write, cfg); err != nil {
					return err
				}
				printFile(cmd.OutOrStdout(), write)
				return nil
			}

			f := config.Format(format)
			if f != config.FormatTOML && f != config.FormatYAML {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format)
			}
			return config.Encode(cmd.OutOrStdout(), cfg, f)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(config.FormatTOML), "output format: toml or yaml")
	cmd.Flags().StringVar(&write, "write", "", "save to a file instead (format from extension)")

	return cmd
}
