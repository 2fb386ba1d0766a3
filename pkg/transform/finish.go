package transform

import (
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Circular marks rectangular leaf children of the page as circular, each
// with probability CircularChance. Only direct children of the root that are
// leaves qualify: a child that was split further is skipped, since its
// outline is drawn by its own descendants. Sliced and non-rectangular panels
// are left alone too. It returns the number of panels marked.
func (e *Engine) Circular(rng *rand.Rand, pg *panel.Page) int {
	marked := 0
	for _, id := range pg.Root().Children {
		p := pg.Panel(id)
		if !p.IsLeaf() || p.NonRect || p.Sliced || !p.Polygon.IsAxisAlignedRect() {
			continue
		}
		if rng.Float64() < e.cfg.CircularChance {
			p.Circular = true
			marked++
		}
	}
	return marked
}

// Shrink offsets every leaf by one amount drawn from [ShrinkMin, ShrinkMax)
// in whole pixels. A leaf whose offset degenerates keeps its outline. It
// returns the offset applied.
func (e *Engine) Shrink(rng *rand.Rand, pg *panel.Page) float64 {
	lo, hi := int(e.cfg.ShrinkMin), int(e.cfg.ShrinkMax)
	delta := float64(lo)
	if hi > lo {
		delta = float64(lo + rng.IntN(hi-lo))
	}
	if delta == 0 {
		return 0
	}
	for _, p := range pg.Leaves() {
		poly, err := geom.Offset(p.Polygon, delta)
		if err != nil {
			e.skip(KindShrink, err)
			continue
		}
		p.Polygon = poly
		p.Refresh()
	}
	return delta
}

// Remove suppresses between one and RemovalMax leaves from the end of the
// leaf order when the page has more than RemovalMax+1 panels. NumPanels is
// left as it was. It returns the suppressed IDs.
func (e *Engine) Remove(rng *rand.Rand, pg *panel.Page) []panel.ID {
	limit := e.cfg.RemovalMax
	if limit < 1 || pg.NumPanels <= limit+1 {
		return nil
	}
	k := 1 + rng.IntN(limit)
	leaves := pg.Leaves()
	k = min(k, len(leaves)-1)
	if k < 1 {
		return nil
	}
	ids := make([]panel.ID, 0, k)
	for _, p := range leaves[len(leaves)-k:] {
		ids = append(ids, p.ID)
	}
	pg.Suppress(ids...)
	e.logger.Debug("removed panels", "page", pg.Name(), "count", k)
	return ids
}
