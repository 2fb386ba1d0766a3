package geom

import (
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/matzehuels/mangalayout/pkg/errors"
)

// offsetScale maps page pixels into Clipper's integer space.
const offsetScale = 100

// Offset moves every edge of p by delta pixels using round joins on a closed
// polygon; a negative delta shrinks. The result is clockwise and starts at the
// vertex nearest the top-left of its bounds, so that an offset rectangle is
// still a canonical rectangle.
//
// A geometry error is returned when the solver does not yield exactly one
// simple polygon of positive area, or when a shrunk outline leaves p.
func Offset(p Polygon, delta float64) (Polygon, error) {
	if len(p) < 3 {
		return nil, errors.New(errors.ErrCodeGeometry, "offset needs at least 3 vertices, got %d", len(p))
	}
	if delta == 0 {
		return p.Clone(), nil
	}

	path := make(clipper.Path, len(p))
	for i, c := range p {
		path[i] = &clipper.IntPoint{
			X: clipper.CInt(math.Round(c.X * offsetScale)),
			Y: clipper.CInt(math.Round(c.Y * offsetScale)),
		}
	}

	co := clipper.NewClipperOffset()
	co.ArcTolerance = 0.25 * offsetScale
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)
	solution := co.Execute(delta * offsetScale)
	if len(solution) != 1 {
		return nil, errors.New(errors.ErrCodeGeometry, "offset by %.1f produced %d polygons", delta, len(solution))
	}

	out := make(Polygon, 0, len(solution[0]))
	for _, ip := range solution[0] {
		out = append(out, Pt(float64(ip.X)/offsetScale, float64(ip.Y)/offsetScale))
	}
	if len(out) < 3 || out.Area() <= zeroish {
		return nil, errors.New(errors.ErrCodeGeometry, "offset by %.1f collapsed the polygon", delta)
	}
	out = canonical(out)
	if err := out.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGeometry, err, "offset by %.1f", delta)
	}
	if delta < 0 {
		for _, c := range out {
			if !p.Covers(c) {
				return nil, errors.New(errors.ErrCodeGeometry, "offset by %.1f left the outline at %v", delta, c)
			}
		}
	}
	return out, nil
}

// canonical orients q clockwise and rotates it to start at the vertex closest
// to the top-left corner of its bounds.
func canonical(q Polygon) Polygon {
	if q.SignedArea() < 0 {
		for i, j := 0, len(q)-1; i < j; i, j = i+1, j-1 {
			q[i], q[j] = q[j], q[i]
		}
	}
	b := q.Bounds()
	start, best := 0, math.Inf(1)
	for i, c := range q {
		if d := c.DistanceFrom(b.Min); d < best {
			start, best = i, d
		}
	}
	out := make(Polygon, 0, len(q))
	out = append(out, q[start:]...)
	return append(out, q[:start]...)
}
