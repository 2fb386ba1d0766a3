package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/render/preview"
)

// previewCommand creates the preview command drawing wireframe PNGs.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		all      bool
		outDir   string
		storeURL string
		opts     preview.Options
	)

	cmd := &cobra.Command{
		Use:   "preview [page...]",
		Short: "Draw wireframe previews of stored pages",
		Long: `Preview draws each page as a PNG wireframe: panel outlines, character
boxes in blue and speech bubble boxes in red. Artwork is not composited.`,
		Example: `  mangalayout preview --all
  mangalayout preview 3f2a... --scale 1 --labels`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New(errors.ErrCodeInvalidInput, "name at least one page or pass --all")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := c.openStore(ctx, cfg, storeURL)
			if err != nil {
				return err
			}
			defer st.Close()

			names := args
			if all {
				if names, err = st.List(ctx); err != nil {
					return err
				}
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "create %s", outDir)
			}

			out := cmd.OutOrStdout()
			prog := newProgress(c.Logger)
			for _, name := range names {
				pg, err := st.Get(ctx, name)
				if err != nil {
					return err
				}
				data, err := preview.PNG(pg, opts)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, name+".png")
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
				}
				printFile(out, path)
			}
			prog.done("wrote previews", "count", len(names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "preview every stored page")
	cmd.Flags().StringVarP(&outDir, "out", "o", filepath.Join("out", "previews"), "output directory")
	cmd.Flags().StringVar(&storeURL, "store", "", "page store URL (overrides config)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", preview.DefaultScale, "size relative to the page")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "write panel names")
	cmd.Flags().BoolVar(&opts.Rotate, "rotate", false, "apply the page rotation")

	return cmd
}
