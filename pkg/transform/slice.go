package transform

import (
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// SliceMode selects how a panel is cut.
type SliceMode string

const (
	// SliceCenter cuts through the middle along a skewed or jagged line.
	SliceCenter SliceMode = "center"
	// SliceSide cuts a triangle off one corner.
	SliceSide SliceMode = "side"
)

// Skew directions for center slices. Vertical cuts use SkewLeft and
// SkewRight, horizontal cuts SkewUp and SkewDown; SkewZigZag works for both.
const (
	SkewLeft   = "left"
	SkewRight  = "right"
	SkewUp     = "up"
	SkewDown   = "down"
	SkewZigZag = "center"
)

// Corners for side slices.
const (
	CornerTopLeft     = "tl"
	CornerTopRight    = "tr"
	CornerBottomLeft  = "bl"
	CornerBottomRight = "br"
)

var (
	verticalSkews   = []string{SkewLeft, SkewRight, SkewZigZag}
	horizontalSkews = []string{SkewDown, SkewUp, SkewZigZag}
	corners         = []string{CornerTopRight, CornerTopLeft, CornerBottomRight, CornerBottomLeft}
	zigZagVertices  = []int{3, 5, 7, 9}
)

// SliceOptions fixes choices Slice would otherwise draw. Axis and Skew
// apply to center slices, Corner to side slices; a zero Count draws the
// number of panels to cut.
type SliceOptions struct {
	Mode   SliceMode
	Axis   panel.Orientation
	Skew   string
	Corner string
	Count  int
}

// Slice cuts eligible panels in two. Eligible panels are unsliced,
// non-circular rectangular leaves covering at least SliceMinArea of the
// page; on a page that has not been split the page itself is the only
// candidate. The axis, skew and corner are drawn once and shared by every
// panel cut in the same call. Each cut panel adds one to NumPanels.
//
// A cut that yields an invalid polygon is rolled back and not counted.
// Slice returns the number of panels cut.
func (e *Engine) Slice(rng *rand.Rand, pg *panel.Page, opts SliceOptions) int {
	candidates := sliceCandidates(pg, e.cfg.SliceMinArea)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	mode := opts.Mode
	if mode == "" {
		mode = SliceSide
		if rng.Float64() < e.cfg.CenterSideRatio {
			mode = SliceCenter
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	n := opts.Count
	if n == 0 {
		switch {
		case len(candidates) == 1:
			n = 1
		case mode == SliceCenter:
			n = 1 + rng.IntN(len(candidates)-1)
		default:
			n = []int{1, 3}[rng.IntN(2)]
		}
	}
	n = min(n, len(candidates))

	sliced := 0
	for _, id := range candidates[:n] {
		var err error
		switch mode {
		case SliceCenter:
			if opts.Axis == panel.Unsplit {
				opts.Axis = layout.RandomAxis(rng)
			}
			skew := percent(rng, 25, 100)
			if opts.Skew == "" {
				opts.Skew = pick(rng, skewsFor(opts.Axis))
			}
			err = e.edit(pg, KindSlice, func() ([]panel.ID, error) {
				return sliceCenter(pg, id, opts.Axis, opts.Skew, skew, rng)
			})
		case SliceSide:
			if opts.Corner == "" {
				opts.Corner = pick(rng, corners)
			}
			cx, cy := percent(rng, 25, 75), percent(rng, 25, 75)
			err = e.edit(pg, KindSlice, func() ([]panel.ID, error) {
				return sliceSide(pg, id, opts.Corner, cx, cy)
			})
		default:
			err = errors.New(errors.ErrCodeInvalidInput, "unknown slice mode %q", mode)
		}
		if err != nil {
			continue
		}
		sliced++
		e.logger.Debug("sliced panel", "panel", pg.Panel(id).Name, "mode", mode)
	}
	pg.NumPanels += sliced
	return sliced
}

func skewsFor(axis panel.Orientation) []string {
	if axis == panel.Vertical {
		return verticalSkews
	}
	return horizontalSkews
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}

func sliceCandidates(pg *panel.Page, minArea float64) []panel.ID {
	root := pg.Root()
	if root.IsLeaf() {
		return []panel.ID{root.ID}
	}
	threshold := minArea * pg.Area()
	var ids []panel.ID
	for _, p := range pg.Leaves() {
		if p.Circular || p.Sliced || !p.Polygon.IsAxisAlignedRect() || p.Area() < threshold {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// sliceCenter halves id along axis and displaces the shared edge by
// skew times half the panel extent across the cut.
func sliceCenter(pg *panel.Page, id panel.ID, axis panel.Orientation, side string, skew float64, rng *rand.Rand) ([]panel.ID, error) {
	if !contains(skewsFor(axis), side) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "skew %q does not apply to axis %q", side, axis)
	}
	par := pg.Panel(id)
	w, h := par.Width(), par.Height()

	kids, err := layout.SplitEqual(pg, id, 2, axis)
	if err != nil {
		return nil, err
	}
	p1, p2 := kids[0], kids[1]
	ids := []panel.ID{p1.ID, p2.ID}
	for _, p := range kids {
		p.NonRect, p.Sliced = true, true
	}

	// the cut runs from a to b: top to bottom, or left to right
	var cut geom.Segment
	var s float64
	if axis == panel.Vertical {
		cut = geom.Segment{A: p1.Polygon[1], B: p1.Polygon[2]}
		s = skew * w / 2
	} else {
		cut = geom.Segment{A: p1.Polygon[3], B: p1.Polygon[2]}
		s = skew * h / 2
	}

	var moved geom.Segment
	switch side {
	case SkewLeft:
		moved = geom.Segment{A: cut.A.Plus(geom.Pt(-s, 0)), B: cut.B.Plus(geom.Pt(s, 0))}
	case SkewRight:
		moved = geom.Segment{A: cut.A.Plus(geom.Pt(s, 0)), B: cut.B.Plus(geom.Pt(-s, 0))}
	case SkewDown:
		moved = geom.Segment{A: cut.A.Plus(geom.Pt(0, s)), B: cut.B.Plus(geom.Pt(0, -s))}
	case SkewUp:
		moved = geom.Segment{A: cut.A.Plus(geom.Pt(0, -s)), B: cut.B.Plus(geom.Pt(0, s))}
	case SkewZigZag:
		zigZag(p1, p2, axis, cut, s/2, zigZagVertices[rng.IntN(len(zigZagVertices))])
		return ids, nil
	}
	moveLine(pg, ids, cut, moved)
	return ids, nil
}

// zigZag replaces the straight cut between p1 and p2 with n points that
// alternate d to either side of it, starting on the negative side.
func zigZag(p1, p2 *panel.Panel, axis panel.Orientation, cut geom.Segment, d float64, n int) {
	pts := make([]geom.Point, n)
	for i := range pts {
		off := -d
		if i%2 == 1 {
			off = d
		}
		c := cut.At(float64(i) / float64(n-1))
		if axis == panel.Vertical {
			pts[i] = geom.Pt(c.X+off, c.Y)
		} else {
			pts[i] = geom.Pt(c.X, c.Y+off)
		}
	}

	if axis == panel.Vertical {
		// p1 is the left strip, p2 the right
		tl, bl := p1.Polygon[0], p1.Polygon[3]
		tr, br := p2.Polygon[1], p2.Polygon[2]
		left := geom.Polygon{tl}
		left = append(left, pts...)
		p1.Polygon = append(left, bl)

		right := geom.Polygon{pts[0], tr, br}
		for i := n - 1; i > 0; i-- {
			right = append(right, pts[i])
		}
		p2.Polygon = right
	} else {
		// p1 is the top band, p2 the bottom
		tl, tr := p1.Polygon[0], p1.Polygon[1]
		br, bl := p2.Polygon[2], p2.Polygon[3]
		top := geom.Polygon{tl, tr}
		for i := n - 1; i >= 0; i-- {
			top = append(top, pts[i])
		}
		p1.Polygon = top

		bottom := append(geom.Polygon{}, pts...)
		p2.Polygon = append(bottom, br, bl)
	}
	p1.Refresh()
	p2.Refresh()
}

// sliceSide cuts the named corner off id. cx and cy are the fractions of
// the width and height the cut spans.
func sliceSide(pg *panel.Page, id panel.ID, corner string, cx, cy float64) ([]panel.ID, error) {
	par := pg.Panel(id)
	if len(par.Polygon) != 4 {
		return nil, errors.New(errors.ErrCodeGeometry, "panel %s has %d vertices, need 4 to slice", par.Name, len(par.Polygon))
	}
	tl, tr, br, bl := par.Polygon[0], par.Polygon[1], par.Polygon[2], par.Polygon[3]
	dx, dy := cx*par.Width(), cy*par.Height()

	var cut, rest geom.Polygon
	switch corner {
	case CornerBottomLeft:
		a, b := geom.Pt(bl.X, bl.Y-dy), geom.Pt(bl.X+dx, bl.Y)
		cut = geom.Polygon{a, b, bl}
		rest = geom.Polygon{tl, tr, br, b, a}
	case CornerBottomRight:
		a, b := geom.Pt(br.X, br.Y-dy), geom.Pt(br.X-dx, br.Y)
		cut = geom.Polygon{a, br, b}
		rest = geom.Polygon{tl, tr, a, b, bl}
	case CornerTopLeft:
		a, b := geom.Pt(tl.X+dx, tl.Y), geom.Pt(tl.X, tl.Y+dy)
		cut = geom.Polygon{tl, a, b}
		rest = geom.Polygon{a, tr, br, bl, b}
	case CornerTopRight:
		a, b := geom.Pt(tr.X-dx, tr.Y), geom.Pt(tr.X, tr.Y+dy)
		cut = geom.Polygon{a, tr, b}
		rest = geom.Polygon{tl, a, b, br, bl}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown corner %q", corner)
	}

	// corner cuts are recorded as bands
	kids, err := pg.AddChildren(id, panel.Horizontal, []geom.Polygon{cut, rest})
	if err != nil {
		return nil, err
	}
	ids := make([]panel.ID, len(kids))
	for i, p := range kids {
		p.NonRect, p.Sliced = true, true
		ids[i] = p.ID
	}
	return ids, nil
}
