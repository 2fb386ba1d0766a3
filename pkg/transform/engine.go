package transform

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Kind names a transform for logging and skip reports.
type Kind string

const (
	KindSlice    Kind = "slice"
	KindBox      Kind = "box"
	KindWobble   Kind = "wobble"
	KindCircular Kind = "circular"
	KindShrink   Kind = "shrink"
	KindRemove   Kind = "remove"
)

// lineTolerance is how far, in pixels, a vertex may be from a boundary and
// still be moved with it.
const lineTolerance = 1e-3

// Engine mutates panel trees in place.
type Engine struct {
	cfg    *config.TransformConfig
	logger *log.Logger

	// OnSkip, when set, is called for every transform application rolled
	// back because it produced an invalid polygon.
	OnSkip func(kind Kind, err error)
}

// NewEngine returns an engine bound to cfg. A nil logger uses the package
// default.
func NewEngine(cfg *config.TransformConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Apply runs the transform stage on a freshly laid out page. With
// probability Chance it either slices (optionally twice), or box
// transforms and wobbles, or marks circular panels. Shrink and Remove are
// separate stages and are not run here.
func (e *Engine) Apply(rng *rand.Rand, pg *panel.Page) {
	if rng.Float64() >= e.cfg.Chance {
		return
	}

	if rng.Float64() < e.cfg.SliceChance {
		e.Slice(rng, pg, SliceOptions{})
		if rng.Float64() < e.cfg.DoubleSliceChance {
			e.Slice(rng, pg, SliceOptions{})
		}
		return
	}

	if rng.Float64() < e.cfg.BoxChance {
		if rng.Float64() < e.cfg.BoxPanelChance {
			e.BoxPanels(rng, pg, "", "")
		}
		e.Wobble(rng, pg)
		return
	}

	e.Circular(rng, pg)
}

// edit runs fn against pg and validates every panel it reports as touched.
// On any failure the page is rolled back to its state before fn and the
// error is returned.
func (e *Engine) edit(pg *panel.Page, kind Kind, fn func() ([]panel.ID, error)) error {
	snap := pg.Snapshot()
	touched, err := fn()
	if err == nil {
		err = validate(pg, touched)
	}
	if err != nil {
		pg.Rollback(snap)
		e.skip(kind, err)
		return err
	}
	pg.Refresh(touched...)
	pg.Invalidate()
	return nil
}

func (e *Engine) skip(kind Kind, err error) {
	e.logger.Debug("skipped transform", "kind", kind, "err", err)
	if e.OnSkip != nil {
		e.OnSkip(kind, err)
	}
}

func validate(pg *panel.Page, ids []panel.ID) error {
	for _, id := range ids {
		p := pg.Panel(id)
		if p == nil {
			return errors.New(errors.ErrCodeIndexRange, "no panel with id %d", id)
		}
		if err := p.Polygon.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeGeometry, err, "panel %s", p.Name)
		}
	}
	return nil
}

// moveLine moves every vertex in the subtrees of roots that lies on from
// to the matching position on to, and marks the changed panels
// non-rectangular. It returns the IDs of the panels that changed.
func moveLine(pg *panel.Page, roots []panel.ID, from, to geom.Segment) []panel.ID {
	var touched []panel.ID
	seen := make(map[panel.ID]bool)
	for _, root := range roots {
		for _, p := range pg.Subtree(root) {
			moved := false
			for i, v := range p.Polygon {
				t, ok := from.Locate(v, lineTolerance)
				if !ok {
					continue
				}
				p.Polygon[i] = to.At(t)
				moved = true
			}
			if !moved || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			p.Refresh()
			if !p.Polygon.IsAxisAlignedRect() {
				p.NonRect = true
			}
			touched = append(touched, p.ID)
		}
	}
	return touched
}

// percent draws a whole percentage in [lo, hi) as a fraction, or lo/100
// when the range is empty.
func percent(rng *rand.Rand, lo, hi int) float64 {
	if hi <= lo {
		return float64(lo) / 100
	}
	return float64(lo+rng.IntN(hi-lo)) / 100
}
