package transform

import (
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Wobble directions. On a page of bands WobbleRightUp lowers the left end
// of a boundary, tilting it up to the right; on a page of strips it moves
// the top end left.
const (
	WobbleRightUp = "rup"
	WobbleLeftUp  = "lup"
)

// Wobble tilts every boundary between neighbouring children of the page by
// moving one of its ends. The displacement is a whole percentage, from 10
// up to WobbleLimit, of the smaller neighbour's extent across the
// boundary, and is carried into every descendant that touches it. It
// returns the number of boundaries moved.
func (e *Engine) Wobble(rng *rand.Rand, pg *panel.Page, directions ...string) int {
	root := pg.Root()
	moved := 0
	for i := 0; i+1 < len(root.Children); i++ {
		frac := percent(rng, 10, int(e.cfg.WobbleLimit))
		dir := pick(rng, []string{WobbleRightUp, WobbleLeftUp})
		if i < len(directions) {
			dir = directions[i]
		}
		p1, p2 := pg.Panel(root.Children[i]), pg.Panel(root.Children[i+1])
		err := e.edit(pg, KindWobble, func() ([]panel.ID, error) {
			return wobble(pg, root.Orientation, p1, p2, dir, frac)
		})
		if err == nil {
			moved++
		}
	}
	if moved > 0 {
		e.logger.Debug("wobbled page", "page", pg.Name(), "boundaries", moved)
	}
	return moved
}

func wobble(pg *panel.Page, o panel.Orientation, p1, p2 *panel.Panel, dir string, frac float64) ([]panel.ID, error) {
	if len(p2.Polygon) < 4 {
		return nil, errors.New(errors.ErrCodeGeometry, "panel %s has %d vertices", p2.Name, len(p2.Polygon))
	}
	sign := 1.0
	switch dir {
	case WobbleRightUp:
	case WobbleLeftUp:
		sign = -1
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown wobble direction %q", dir)
	}

	var from, to geom.Segment
	switch o {
	case panel.Horizontal:
		change := min(p1.Height(), p2.Height()) * frac
		from = geom.Segment{A: p2.Polygon[0], B: p2.Polygon[1]}
		to = geom.Segment{A: from.A.Plus(geom.Pt(0, sign*change)), B: from.B}
	case panel.Vertical:
		change := min(p1.Width(), p2.Width()) * frac
		from = geom.Segment{A: p2.Polygon[0], B: p2.Polygon[3]}
		to = geom.Segment{A: from.A.Plus(geom.Pt(-sign*change, 0)), B: from.B}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "page orientation %q", o)
	}

	touched := moveLine(pg, []panel.ID{p1.ID, p2.ID}, from, to)
	p1.NonRect, p2.NonRect = true, true
	return touched, nil
}
