package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
)

// generateOpts holds the flags of the generate command.
type generateOpts struct {
	count    int
	workers  int
	seed     uint64
	pageType string
	panels   int
	recipe   string
	storeURL string
	noCache  bool
	tui      bool
}

// generateCommand creates the generate command for building page batches.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of page layouts",
		Long: `Generate builds page records and writes them to the page store.

Each page gets a random panel count, page type and recipe drawn from the
configured weights unless --panels, --type or --recipe pin them. --seed makes
the batch reproducible.`,
		Example: `  mangalayout generate -n 100
  mangalayout generate -n 20 --seed 7 --type vh --panels 5
  mangalayout generate -n 500 --store redis://localhost:6379/0 --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				opts.count = cfg.Batch.Count
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = cfg.Batch.Workers
			}

			runOpts := pipeline.Options{
				Count:   opts.count,
				Workers: opts.workers,
				Seed:    opts.seed,
				Seeded:  cmd.Flags().Changed("seed"),
				Request: layout.Request{
					Count:  opts.panels,
					Type:   panel.PageType(opts.pageType),
					Recipe: opts.recipe,
				},
			}

			ctx := cmd.Context()
			gen, err := c.newGenerator(cfg, opts.noCache)
			if err != nil {
				return err
			}
			st, err := c.openStore(ctx, cfg, opts.storeURL)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(gen, st, c.Logger)
			defer runner.Close()

			var stats pipeline.Stats
			if opts.tui {
				stats, err = c.generateTUI(ctx, runner, runOpts)
			} else {
				stats, err = c.generateSpinner(ctx, cmd, runner, runOpts)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(cmd, stats)
			if stats.Generated > 0 {
				printNextStep(out, "Preview them", "mangalayout preview --all")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of pages to generate")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "pages generated concurrently")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible batch")
	cmd.Flags().StringVar(&opts.pageType, "type", "", "page type: v, h or vh")
	cmd.Flags().IntVar(&opts.panels, "panels", 0, "panels per page (0 draws from the configured weights)")
	cmd.Flags().StringVar(&opts.recipe, "recipe", "", "recipe tag for the panel count (e.g. eq, uneq, div, trip)")
	cmd.Flags().StringVar(&opts.storeURL, "store", "", "page store URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artwork probe cache")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show an interactive progress view")

	return cmd
}

// generateSpinner runs the batch behind a spinner counting finished pages.
func (c *CLI) generateSpinner(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, opts pipeline.Options) (pipeline.Stats, error) {
	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Generating %d pages...", opts.Count))
	spinner.Start()
	defer spinner.Stop()

	var finished atomic.Int64
	opts.OnPage = func(int, *panel.Page, error) {
		n := finished.Add(1)
		spinner.SetMessage(fmt.Sprintf("Generating pages... %d/%d", n, opts.Count))
	}
	return runner.Batch(ctx, opts)
}

// generateTUI runs the batch while a bubbletea program shows its progress.
// Quitting the program cancels the batch.
func (c *CLI) generateTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (pipeline.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBatchModel(opts.Count, cancel), tea.WithContext(ctx))
	opts.OnPage = func(i int, pg *panel.Page, err error) {
		msg := pageMsg{index: i, err: err}
		if pg != nil {
			msg.name = pg.Name()
		}
		p.Send(msg)
	}

	go func() {
		stats, err := runner.Batch(ctx, opts)
		p.Send(doneMsg{stats: stats, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return pipeline.Stats{}, err
	}
	m := final.(BatchModel)
	if m.Aborted {
		return pipeline.Stats{}, context.Canceled
	}
	if m.Stats == nil {
		return pipeline.Stats{}, ctx.Err()
	}
	return *m.Stats, m.Err
}

// printSummary prints the batch counters and the first stored pages.
func printSummary(cmd *cobra.Command, stats pipeline.Stats) {
	out := cmd.OutOrStdout()
	if stats.Failed == 0 {
		printSuccess(out, "Generated %d pages", stats.Generated)
	} else {
		printWarning(out, "Generated %d of %d pages", stats.Generated, stats.Requested)
	}
	printStats(out,
		fmt.Sprintf("%d panels", stats.Panels),
		fmt.Sprintf("%d failed", stats.Failed),
		stats.Duration.Round(time.Millisecond).String())

	const shown = 10
	rows := make([][]string, 0, shown)
	for i, name := range stats.Names {
		if i == shown {
			break
		}
		rows = append(rows, []string{fmt.Sprint(i), name})
	}
	if len(rows) > 0 {
		printTable(out, []string{"#", "Page"}, rows)
	}
	if n := len(stats.Names) - shown; n > 0 {
		printDetail(out, "... and %d more", n)
	}
}
