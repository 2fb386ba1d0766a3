package layout

import (
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Shift bounds for two-way splits, in percent of the parent extent.
const (
	shiftMin = 25
	shiftMax = 75
)

// SplitEqual divides parent into n equal children along axis.
func SplitEqual(pg *panel.Page, parent panel.ID, n int, axis panel.Orientation) ([]*panel.Panel, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "split into %d panels", n)
	}
	levels := make([]float64, n+1)
	for i := range levels {
		levels[i] = float64(i) / float64(n)
	}
	levels[n] = 1
	return split(pg, parent, axis, levels)
}

// SplitWeighted divides parent along axis so that child i covers shares[i]
// of the parent extent. Shares must be positive; they are normalized so the
// children always tile the parent exactly.
func SplitWeighted(pg *panel.Page, parent panel.ID, axis panel.Orientation, shares []float64) ([]*panel.Panel, error) {
	if len(shares) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "split needs at least one share")
	}
	var total float64
	for _, s := range shares {
		if s <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "split share %v is not positive", s)
		}
		total += s
	}
	levels := make([]float64, len(shares)+1)
	var acc float64
	for i, s := range shares[:len(shares)-1] {
		acc += s
		levels[i+1] = acc / total
	}
	levels[len(shares)] = 1
	return split(pg, parent, axis, levels)
}

// SplitTwo divides parent in two along axis with the dividing line at the
// fraction shift of the parent extent.
func SplitTwo(pg *panel.Page, parent panel.ID, axis panel.Orientation, shift float64) ([]*panel.Panel, error) {
	if shift <= 0 || shift >= 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "split shift %v outside (0, 1)", shift)
	}
	return split(pg, parent, axis, []float64{0, shift, 1})
}

// RandomShift draws a two-way split position from [0.25, 0.75) in whole
// percent.
func RandomShift(rng *rand.Rand) float64 {
	return float64(shiftMin+rng.IntN(shiftMax-shiftMin)) / 100
}

// WeightedShares draws n shares from U(0.5·100/n, 1.5·100/n) and normalizes
// them to sum to one.
func WeightedShares(rng *rand.Rand, n int) []float64 {
	if n < 1 {
		return nil
	}
	equal := 100 / float64(n)
	lo := 0.5 * equal
	shares := make([]float64, n)
	var total float64
	for i := range shares {
		shares[i] = lo + rng.Float64()*equal
		total += shares[i]
	}
	for i := range shares {
		shares[i] /= total
	}
	return shares
}

// Invert returns the other splitting axis.
func Invert(axis panel.Orientation) panel.Orientation {
	return axis.Invert()
}

// RandomAxis picks horizontal or vertical with equal probability.
func RandomAxis(rng *rand.Rand) panel.Orientation {
	if rng.IntN(2) == 0 {
		return panel.Horizontal
	}
	return panel.Vertical
}

// Choose returns a uniform index in [0, n).
func Choose(rng *rand.Rand, n int) int {
	return rng.IntN(n)
}

// ChooseN picks k distinct indices from [0, n) without replacement. chosen
// is in draw order, remaining in ascending order.
func ChooseN(rng *rand.Rand, n, k int) (chosen, remaining []int) {
	k = max(0, min(k, n))
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for range k {
		j := rng.IntN(len(pool))
		chosen = append(chosen, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return chosen, pool
}

// split cuts the quadrilateral parent at the given cumulative levels
// (0 first, 1 last). Horizontal children are bands stacked top to bottom,
// vertical children are strips from left to right. Shared boundaries are
// computed once so neighbours share vertices exactly.
func split(pg *panel.Page, parent panel.ID, axis panel.Orientation, levels []float64) ([]*panel.Panel, error) {
	par := pg.Panel(parent)
	if par == nil {
		return nil, errors.New(errors.ErrCodeIndexRange, "no panel with id %d", parent)
	}
	if len(par.Polygon) != 4 {
		return nil, errors.New(errors.ErrCodeGeometry, "panel %s has %d vertices, need 4 to split", par.Name, len(par.Polygon))
	}
	if axis != panel.Horizontal && axis != panel.Vertical {
		return nil, errors.New(errors.ErrCodeInvalidInput, "split axis %q", axis)
	}
	if len(par.Children) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "panel %s is already split", par.Name)
	}
	tl, tr, br, bl := par.Polygon[0], par.Polygon[1], par.Polygon[2], par.Polygon[3]
	n := len(levels) - 1

	// a[i], b[i] are the two ends of boundary i
	a := make([]geom.Point, n+1)
	b := make([]geom.Point, n+1)
	for i, l := range levels {
		switch {
		case i == 0 && axis == panel.Horizontal:
			a[i], b[i] = tl, tr
		case i == 0:
			a[i], b[i] = tl, bl
		case i == n && axis == panel.Horizontal:
			a[i], b[i] = bl, br
		case i == n:
			a[i], b[i] = tr, br
		case axis == panel.Horizontal:
			a[i], b[i] = lerp(tl, bl, l), lerp(tr, br, l)
		default:
			a[i], b[i] = lerp(tl, tr, l), lerp(bl, br, l)
		}
	}

	polys := make([]geom.Polygon, n)
	for i := range polys {
		if axis == panel.Horizontal {
			polys[i] = geom.Polygon{a[i], b[i], b[i+1], a[i+1]}
		} else {
			polys[i] = geom.Polygon{a[i], a[i+1], b[i+1], b[i]}
		}
	}
	return pg.AddChildren(parent, axis, polys)
}

func lerp(p, q geom.Point, t float64) geom.Point {
	return p.Plus(q.Minus(p).Times(t))
}
