package pipeline

import (
	"context"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mangalayout/pkg/annotate"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/observability"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/store"
)

// Options configures a batch run.
type Options struct {
	// Count is the number of pages to generate.
	Count int
	// Workers bounds the number of pages generated at once. Zero uses
	// config.DefaultWorkers.
	Workers int

	// Seed, when Seeded is set, makes the batch reproducible: page i draws
	// from PCG(Seed, i). Otherwise every page seeds from the process id and
	// the wall clock.
	Seed   uint64
	Seeded bool

	// Request is the template for every page. Its Name is ignored; each
	// page gets a fresh one.
	Request layout.Request

	// OnPage, when set, is called after every page with its index and
	// either the page or the failure. It is called from worker goroutines.
	OnPage func(index int, pg *panel.Page, err error)
}

// Stats summarizes a batch run.
type Stats struct {
	Requested int
	Generated int
	Failed    int
	Panels    int
	Duration  time.Duration
	// Names lists the stored pages in index order.
	Names []string
}

// Runner generates batches of pages and writes them to a store. The store
// may be nil, in which case pages are generated and reported but not kept.
type Runner struct {
	Generator *Generator
	Store     store.Store
	Logger    *log.Logger
}

// NewRunner returns a runner. A nil logger uses the package default.
func NewRunner(gen *Generator, st store.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Generator: gen, Store: st, Logger: logger}
}

// Batch generates opts.Count pages. A page that fails is logged and
// counted, and the batch continues; Batch itself only fails when the
// options are invalid or ctx is cancelled.
func (r *Runner) Batch(ctx context.Context, opts Options) (Stats, error) {
	if opts.Count < 0 {
		return Stats{}, errors.New(errors.ErrCodeInvalidInput, "page count %d", opts.Count)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	start := time.Now()
	base := opts.Seed
	if !opts.Seeded {
		base = uint64(os.Getpid()) * uint64(start.UnixNano())
	}

	var (
		mu    sync.Mutex
		stats = Stats{Requested: opts.Count}
		names = make([]string, opts.Count)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range opts.Count {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			pg, err := r.page(gctx, i, rand.New(rand.NewPCG(base, uint64(i))), opts.Request)

			mu.Lock()
			if err != nil {
				stats.Failed++
			} else {
				stats.Generated++
				stats.Panels += len(pg.Leaves())
				names[i] = pg.Name()
			}
			mu.Unlock()

			if opts.OnPage != nil {
				opts.OnPage(i, pg, err)
			}
			// per-page failures never abort the batch
			return nil
		})
	}
	_ = g.Wait()

	for _, n := range names {
		if n != "" {
			stats.Names = append(stats.Names, n)
		}
	}
	stats.Duration = time.Since(start)

	r.Logger.Info("batch finished",
		"generated", stats.Generated,
		"failed", stats.Failed,
		"elapsed", stats.Duration.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// page generates and stores page i.
func (r *Runner) page(ctx context.Context, i int, rng *rand.Rand, req layout.Request) (*panel.Page, error) {
	hooks := observability.Generation()
	hooks.OnPageStart(ctx, i)
	start := time.Now()

	pg, err := r.build(ctx, rng, req)

	if err != nil {
		r.Logger.Warn("page failed",
			"index", i,
			"code", errors.GetCode(err),
			"err", errors.UserMessage(err))
		hooks.OnPageComplete(ctx, i, "", 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnPageComplete(ctx, i, pg.Name(), len(pg.Leaves()), time.Since(start), nil)
	return pg, nil
}

// build generates and stores one page. A panic in any stage fails only this
// page.
func (r *Runner) build(ctx context.Context, rng *rand.Rand, req layout.Request) (pg *panel.Page, err error) {
	defer func() {
		if v := recover(); v != nil {
			pg, err = nil, errors.New(errors.ErrCodeInternal, "page generation panicked: %v", v)
		}
	}()

	req.Name = ""
	if pg, err = r.Generator.Generate(ctx, rng, req); err != nil {
		return nil, err
	}
	if r.Store != nil {
		if err = r.Store.Put(ctx, pg); err != nil {
			return nil, err
		}
	}
	return pg, nil
}

// Annotate builds a COCO document for the stored pages called names, in
// that order. An empty names annotates every stored page.
func (r *Runner) Annotate(ctx context.Context, names []string) (*annotate.Document, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no page store")
	}
	if len(names) == 0 {
		var err error
		if names, err = r.Store.List(ctx); err != nil {
			return nil, err
		}
	}

	pages := make([]*panel.Page, 0, len(names))
	for _, name := range names {
		pg, err := r.Store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pg)
	}
	return annotate.Build(pages, time.Now()), nil
}

// Close releases the runner's store.
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}
