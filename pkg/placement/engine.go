package placement

import (
	"context"
	"image"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/catalog"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Engine populates the leaf panels of a page.
type Engine struct {
	cfg     *config.PlacementConfig
	cat     *catalog.Catalog
	objects *ObjectFactory
	bubbles *BubbleFactory
	logger  *log.Logger
}

// NewEngine returns an engine drawing from cat. sizer supplies artwork
// sizes, usually a [catalog.Prober].
func NewEngine(cfg *config.PlacementConfig, cat *catalog.Catalog, sizer Sizer, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	bubbles := NewBubbleFactory(cfg, cat, sizer)
	return &Engine{
		cfg:     cfg,
		cat:     cat,
		objects: NewObjectFactory(cfg, cat, sizer, bubbles),
		bubbles: bubbles,
		logger:  logger,
	}
}

// Stats counts what Populate placed and threw away.
type Stats struct {
	Objects  int
	Bubbles  int
	Rejected int
}

// Populate fills every unsuppressed leaf, in leaf order, with an optional
// background, objects and panel bubbles. Candidates that overlap earlier
// ones or come out too small are dropped without a retry. A panel with no
// drawable pixels is left empty. Resource errors fail the page.
func (e *Engine) Populate(ctx context.Context, rng *rand.Rand, pg *panel.Page) (Stats, error) {
	var st Stats
	for _, p := range pg.Leaves() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		region, err := geom.NewRegion(p.Polygon, pg.Width, pg.Height)
		if err != nil {
			e.logger.Debug("panel has no drawable region", "panel", p.Name, "err", err)
			continue
		}
		if err := e.populate(ctx, rng, p, region, &st); err != nil {
			return st, err
		}
	}
	e.logger.Debug("populated page", "page", pg.Name(), "objects", st.Objects, "bubbles", st.Bubbles, "rejected", st.Rejected)
	return st, nil
}

func (e *Engine) populate(ctx context.Context, rng *rand.Rand, p *panel.Panel, region *geom.Region, st *Stats) error {
	if len(e.cat.Backgrounds) > 0 {
		bg := e.cat.Backgrounds[rng.IntN(len(e.cat.Backgrounds))]
		if rng.Float64() < e.cfg.PanelBackgroundChance {
			p.Background = bg
		}
	}

	n := rng.IntN(e.cfg.MaxObjects + 1)
	if p.Background == "" {
		n = min(n, 1)
	}
	var boxes []image.Rectangle
	for range n {
		o, err := e.objects.New(ctx, rng, p, region)
		if errors.Is(err, errors.ErrCodeSamplingExhausted) {
			st.Rejected++
			continue
		}
		if err != nil {
			return err
		}
		box := o.Box()
		if box.Dx() < e.cfg.MinObjectSize || box.Dy() < e.cfg.MinObjectSize || overlapsAny(box, boxes, e.cfg.OverlapOffset) {
			st.Rejected++
			continue
		}
		p.Objects = append(p.Objects, o)
		boxes = append(boxes, box)
		st.Objects++
		st.Bubbles += len(o.Bubbles)
	}

	n = rng.IntN(e.cfg.MaxBubbles + 1)
	if p.Background == "" {
		n = min(n, 1)
	}
	for range n {
		b, err := e.bubbles.ForPanel(ctx, rng, p, region)
		if errors.Is(err, errors.ErrCodeSamplingExhausted) {
			st.Rejected++
			continue
		}
		if err != nil {
			return err
		}
		box := b.Box()
		if box.Dx() < e.cfg.MinBubbleSize || box.Dy() < e.cfg.MinBubbleSize || overlapsAny(box, boxes, e.cfg.OverlapOffset) {
			st.Rejected++
			continue
		}
		p.Bubbles = append(p.Bubbles, b)
		boxes = append(boxes, box)
		st.Bubbles++
	}
	return nil
}

// Overlaps reports whether a and b intersect by more than offset pixels on
// both axes. It is symmetric.
func Overlaps(a, b image.Rectangle, offset int) bool {
	in := a.Intersect(b)
	return in.Dx() > offset && in.Dy() > offset
}

func overlapsAny(box image.Rectangle, others []image.Rectangle, offset int) bool {
	for _, o := range others {
		if Overlaps(box, o, offset) {
			return true
		}
	}
	return false
}
