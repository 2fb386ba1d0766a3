package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/annotate"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
)

// annotateCommand creates the annotate command writing COCO annotations.
func (c *CLI) annotateCommand() *cobra.Command {
	var (
		outPath  string
		storeURL string
	)

	cmd := &cobra.Command{
		Use:   "annotate [page...]",
		Short: "Write COCO annotations for stored pages",
		Long: `Annotate builds one COCO document covering the named pages, or every
stored page when none are named. Panels, characters and speech bubbles
become boxes in the frame, character and text categories.`,
		Example: `  mangalayout annotate
  mangalayout annotate -o out/val.json 3f2a... 9bc1...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := c.openStore(ctx, cfg, storeURL)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, st, c.Logger)
			defer runner.Close()

			prog := newProgress(c.Logger)
			doc, err := runner.Annotate(ctx, args)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(outPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
				}
			}
			f, err := os.Create(outPath)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "create %s", outPath)
			}
			if err := annotate.Write(doc, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			prog.done("annotated pages", "images", len(doc.Images), "annotations", len(doc.Annotations))

			out := cmd.OutOrStdout()
			printSuccess(out, "Annotated %d pages", len(doc.Images))
			printFile(out, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", filepath.Join("out", "annotations.json"), "output file")
	cmd.Flags().StringVar(&storeURL, "store", "", "page store URL (overrides config)")

	return cmd
}
