package transform

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// BoxKind selects the shape of a box transform.
type BoxKind string

const (
	// Trapezoid tilts the two inner edges of a triple in opposite
	// directions.
	Trapezoid BoxKind = "trapezoid"
	// Rhombus tilts both inner edges the same way.
	Rhombus BoxKind = "rhombus"
)

// Box patterns. Trapezoids are A or V shaped, rhombi lean left or right.
const (
	PatternA     = "A"
	PatternV     = "V"
	PatternLeft  = "left"
	PatternRight = "right"
)

// BoxPanels tilts the inner edges of panel triples: the first three
// children of any node split into three or more. kind and pattern are
// drawn when empty. The edges move by a whole percentage, from 10 up to the
// kind's limit, of the smallest extent among the three children. It returns
// the number of triples changed.
func (e *Engine) BoxPanels(rng *rand.Rand, pg *panel.Page, kind BoxKind, pattern string) int {
	if kind == "" {
		kind = Rhombus
		if rng.Float64() < e.cfg.TrapezoidRatio {
			kind = Trapezoid
		}
	}

	limit := e.cfg.RhombusLimit
	minPanels := 1
	if kind == Trapezoid {
		limit = e.cfg.TrapezoidLimit
		minPanels = 2
	}
	if pg.NumPanels <= minPanels {
		return 0
	}

	candidates := boxCandidates(pg)
	if len(candidates) == 0 {
		return 0
	}
	n := 1
	switch {
	case len(candidates) == 1:
	case kind == Trapezoid:
		n = 1 + rng.IntN(len(candidates))
	default:
		n = 1 + rng.IntN(len(candidates)-1)
	}

	changed := 0
	for _, id := range candidates[:n] {
		pat := pattern
		if pat == "" {
			if kind == Trapezoid {
				pat = pick(rng, []string{PatternA, PatternV})
			} else {
				pat = pick(rng, []string{PatternLeft, PatternRight})
			}
		}
		frac := percent(rng, 10, int(limit))
		err := e.edit(pg, KindBox, func() ([]panel.ID, error) {
			return box(pg, id, pat, frac)
		})
		if err != nil {
			continue
		}
		changed++
		e.logger.Debug("box transformed panels", "parent", pg.Panel(id).Name, "kind", kind, "pattern", pat)
	}
	return changed
}

func boxCandidates(pg *panel.Page) []panel.ID {
	var ids []panel.ID
	pg.Walk(func(p *panel.Panel) bool {
		if len(p.Children) < 3 || p.Orientation == panel.Unsplit {
			return true
		}
		for _, c := range p.Children[:3] {
			if len(pg.Panel(c).Polygon) != 4 {
				return true
			}
		}
		ids = append(ids, p.ID)
		return true
	})
	return ids
}

// box moves the two edges shared by the first three children of parent.
// Each edge's start (top or left) and end (bottom or right) move by the
// signed multiples of the displacement given in the pattern table.
func box(pg *panel.Page, parent panel.ID, pattern string, frac float64) ([]panel.ID, error) {
	par := pg.Panel(parent)
	kids := par.Children[:3]
	c1, c2, c3 := pg.Panel(kids[0]), pg.Panel(kids[1]), pg.Panel(kids[2])

	minW, minH := math.Inf(1), math.Inf(1)
	for _, c := range []*panel.Panel{c1, c2, c3} {
		minW, minH = min(minW, c.Width()), min(minH, c.Height())
	}

	moves, ok := boxMoves[pattern]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown box pattern %q", pattern)
	}

	var lines [2]geom.Segment
	var dir geom.Point
	var m float64
	if par.Orientation == panel.Vertical {
		lines[0] = geom.Segment{A: c1.Polygon[1], B: c1.Polygon[2]}
		lines[1] = geom.Segment{A: c2.Polygon[1], B: c2.Polygon[2]}
		dir, m = geom.Pt(1, 0), minW*frac
	} else {
		lines[0] = geom.Segment{A: c2.Polygon[0], B: c2.Polygon[1]}
		lines[1] = geom.Segment{A: c3.Polygon[0], B: c3.Polygon[1]}
		dir, m = geom.Pt(0, 1), minH*frac
		// horizontal edges run left to right, so the start moves the
		// other way
		moves = [2][2]float64{{-moves[0][0], -moves[0][1]}, {-moves[1][0], -moves[1][1]}}
	}

	roots := []panel.ID{c1.ID, c2.ID, c3.ID}
	var touched []panel.ID
	for i, l := range lines {
		to := geom.Segment{
			A: l.A.Plus(dir.Times(moves[i][0] * m)),
			B: l.B.Plus(dir.Times(moves[i][1] * m)),
		}
		touched = append(touched, moveLine(pg, roots, l, to)...)
	}
	for _, c := range []*panel.Panel{c1, c2, c3} {
		c.NonRect = true
	}
	return touched, nil
}

// boxMoves holds, per pattern, the start and end displacement of the two
// inner edges of a vertical-strip triple.
var boxMoves = map[string][2][2]float64{
	PatternA:     {{1, -1}, {-1, 1}},
	PatternV:     {{-1, 1}, {1, -1}},
	PatternLeft:  {{-1, 1}, {-1, 1}},
	PatternRight: {{1, -1}, {1, -1}},
}
