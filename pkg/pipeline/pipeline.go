// Package pipeline turns configuration and catalogues into finished page
// records.
//
// A [Generator] runs every stage of one page in a fixed order:
//
//  1. Layout: draw the page type, panel count and recipe, and split the page
//  2. Transform: slice, box and wobble, or mark circular panels
//  3. Shrink: offset every leaf inwards
//  4. Placement: backgrounds, characters and speech bubbles per leaf
//  5. Removal: occasionally suppress trailing panels
//  6. Page: background colour or image, noise and rotation
//
// The stages draw from one *rand.Rand in that order, so a page is fully
// determined by its seed, the configuration and the catalogues.
//
// A [Runner] generates many pages concurrently and stores each record:
//
//	gen := pipeline.NewGenerator(&cfg.Generation, cat, prober, logger)
//	runner := pipeline.NewRunner(gen, st, logger)
//	stats, err := runner.Batch(ctx, pipeline.Options{Count: 100, Workers: 8})
//
// A page that fails is counted and logged; the batch keeps going.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/catalog"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/observability"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/placement"
	"github.com/matzehuels/mangalayout/pkg/transform"
)

// Generator builds complete pages. It holds no per-page state and may be
// shared between goroutines as long as each call gets its own rng.
type Generator struct {
	cfg       *config.GenerationConfig
	cat       *catalog.Catalog
	layout    *layout.Generator
	placement *placement.Engine
	logger    *log.Logger
}

// NewGenerator returns a generator bound to cfg and cat. sizer reports
// artwork dimensions, usually a [catalog.Prober]. A nil logger uses the
// package default.
func NewGenerator(cfg *config.GenerationConfig, cat *catalog.Catalog, sizer placement.Sizer, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{
		cfg:       cfg,
		cat:       cat,
		layout:    layout.NewGenerator(cfg, logger),
		placement: placement.NewEngine(&cfg.Placement, cat, sizer, logger),
		logger:    logger,
	}
}

// Generate builds one page. Geometry failures inside the transform stage
// are rolled back and reported through the observability hooks; resource
// errors from placement fail the page.
func (g *Generator) Generate(ctx context.Context, rng *rand.Rand, req layout.Request) (*panel.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, err := g.layout.Generate(rng, req)
	if err != nil {
		return nil, err
	}

	tf := transform.NewEngine(&g.cfg.Transform, g.logger)
	tf.OnSkip = func(kind transform.Kind, err error) {
		g.logger.Debug("skipped transform", "page", pg.Name(), "kind", kind, "err", err)
		observability.Generation().OnTransformSkipped(ctx, string(kind), err)
	}
	tf.Apply(rng, pg)
	tf.Shrink(rng, pg)

	st, err := g.placement.Populate(ctx, rng, pg)
	if err != nil {
		return nil, err
	}

	if rng.Float64() < g.cfg.Transform.RemovalChance {
		tf.Remove(rng, pg)
	}

	if err := g.finish(rng, pg); err != nil {
		return nil, err
	}

	g.logger.Debug("generated page",
		"page", pg.Name(),
		"type", pg.Type,
		"panels", pg.NumPanels,
		"objects", st.Objects,
		"bubbles", st.Bubbles,
		"rejected", st.Rejected)
	return pg, nil
}

// finish draws the page-level attributes: a solid colour or a catalogue
// background, the noise level and the rotation.
func (g *Generator) finish(rng *rand.Rand, pg *panel.Page) error {
	pc := g.cfg.Page
	if rng.Float64() < pc.SolidBackgroundChance {
		pg.Background = fmt.Sprintf("#%06x", rng.IntN(1<<24))
	} else {
		if g.cat == nil || len(g.cat.Backgrounds) == 0 {
			return errors.New(errors.ErrCodeCatalogueEmpty, "no page backgrounds")
		}
		pg.Background = g.cat.Backgrounds[rng.IntN(len(g.cat.Backgrounds))]
	}

	pg.Noise = randInt(rng, pc.NoiseMin, pc.NoiseMax)
	pg.Rotation = 0
	if rng.Float64() < pc.RotationChance {
		pg.Rotation = randInt(rng, -pc.RotationMax, pc.RotationMax)
	}
	return nil
}

// Generate builds one page with a throwaway generator.
func Generate(ctx context.Context, rng *rand.Rand, cfg *config.GenerationConfig, cat *catalog.Catalog, sizer placement.Sizer, logger *log.Logger) (*panel.Page, error) {
	return NewGenerator(cfg, cat, sizer, logger).Generate(ctx, rng, layout.Request{})
}

// randInt returns an integer in [lo, hi), or lo when the range is empty.
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo)
}
