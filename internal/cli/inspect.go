package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/render/treeviz"
)

// inspectCommand creates the inspect command printing a page's panel tree.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		file     string
		storeURL string
		dot      bool
		svgPath  string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [page]",
		Short: "Show the panel tree of a page",
		Example: `  mangalayout inspect 3f2a...
  mangalayout inspect --file out/metadata/3f2a....json --dot | dot -Tpng > tree.png
  mangalayout inspect 3f2a... --svg tree.svg --detailed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				pg  *panel.Page
				err error
			)
			switch {
			case file != "":
				pg, err = pageio.ImportJSON(file)
			case len(args) == 1:
				cfg, cerr := c.loadConfig()
				if cerr != nil {
					return cerr
				}
				st, serr := c.openStore(ctx, cfg, storeURL)
				if serr != nil {
					return serr
				}
				defer st.Close()
				pg, err = st.Get(ctx, args[0])
			default:
				return errors.New(errors.ErrCodeInvalidInput, "name a page or pass --file")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := treeviz.Options{Detailed: detailed}
			if dot {
				fmt.Fprint(out, treeviz.ToDOT(pg, opts))
				return nil
			}
			if svgPath != "" {
				svg, err := treeviz.RenderPage(ctx, pg, opts)
				if err != nil {
					return err
				}
				if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "write %s", svgPath)
				}
				printFile(out, svgPath)
				return nil
			}

			printPage(out, pg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the page from a JSON record")
	cmd.Flags().StringVar(&storeURL, "store", "", "page store URL (overrides config)")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the tree as Graphviz DOT")
	cmd.Flags().StringVar(&svgPath, "svg", "", "render the tree to an SVG file")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include geometry in tree labels")

	return cmd
}

// printPage prints the page header and one table row per leaf panel.
func printPage(w io.Writer, pg *panel.Page) {
	fmt.Fprintln(w, StyleTitle.Render(pg.Name()))
	printKeyValue(w, "size", fmt.Sprintf("%dx%d", pg.Width, pg.Height))
	printKeyValue(w, "type", string(pg.Type))
	printKeyValue(w, "panels", fmt.Sprint(pg.NumPanels))
	printKeyValue(w, "background", pg.Background)
	printKeyValue(w, "noise", fmt.Sprint(pg.Noise))
	printKeyValue(w, "rotation", fmt.Sprint(pg.Rotation))
	if len(pg.Bubbles) > 0 {
		printKeyValue(w, "bubbles", fmt.Sprint(len(pg.Bubbles)))
	}

	var rows [][]string
	for _, p := range pg.Panels() {
		if !p.IsLeaf() {
			continue
		}
		rows = append(rows, []string{
			p.Name,
			fmt.Sprint(len(p.Polygon)),
			fmt.Sprintf("%.0f", p.Area()),
			panelFlags(p),
			fmt.Sprint(len(p.Objects)),
			fmt.Sprint(len(p.Bubbles)),
		})
	}
	printTable(w, []string{"Panel", "Vertices", "Area", "Flags", "Objects", "Bubbles"}, rows)
}

func panelFlags(p *panel.Panel) string {
	var flags []string
	if p.NonRect {
		flags = append(flags, "nonrect")
	}
	if p.Circular {
		flags = append(flags, "circular")
	}
	if p.Sliced {
		flags = append(flags, "sliced")
	}
	if p.Suppressed {
		flags = append(flags, "removed")
	}
	if p.Background != "" {
		flags = append(flags, "bg")
	}
	return strings.Join(flags, ",")
}
