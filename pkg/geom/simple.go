package geom

import "math"

// IsSimple reports whether no two edges of p cross or touch, other than
// neighbouring edges meeting at their shared vertex.
func (p Polygon) IsSimple() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		if samePoint(a, b) {
			return false
		}
		for j := i + 1; j < n; j++ {
			c, d := p[j], p[(j+1)%n]
			switch {
			case j == i+1:
				// consecutive edges may only meet at b == c
				if foldsBack(a, b, d) {
					return false
				}
			case i == 0 && j == n-1:
				// closing edge meets the first edge at a == d
				if foldsBack(b, a, c) {
					return false
				}
			default:
				if segmentsIntersect(a, b, c, d) {
					return false
				}
			}
		}
	}
	return true
}

// foldsBack reports whether the path a→b→c doubles back over itself.
func foldsBack(a, b, c Point) bool {
	if !nearZero(cross(a, b, c)) {
		return false
	}
	// collinear: folding back means c lies on the a side of b
	return (b.X-a.X)*(c.X-b.X)+(b.Y-a.Y)*(c.Y-b.Y) < 0
}

// segmentsIntersect reports whether segments ab and cd share any point.
func segmentsIntersect(a, b, c, d Point) bool {
	d1 := sign(cross(c, d, a))
	d2 := sign(cross(c, d, b))
	d3 := sign(cross(a, b, c))
	d4 := sign(cross(a, b, d))

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	switch {
	case d1 == 0 && onSegment(c, d, a):
		return true
	case d2 == 0 && onSegment(c, d, b):
		return true
	case d3 == 0 && onSegment(a, b, c):
		return true
	case d4 == 0 && onSegment(a, b, d):
		return true
	}
	return false
}

// cross returns the z component of (b-a) × (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func sign(v float64) int {
	switch {
	case nearZero(v):
		return 0
	case v < 0:
		return -1
	}
	return 1
}

func nearZero(v float64) bool {
	return v > -zeroish && v < zeroish
}

// onSegment reports whether p, known to be collinear with ab, lies within it.
func onSegment(a, b, p Point) bool {
	return p.X >= min(a.X, b.X)-zeroish && p.X <= max(a.X, b.X)+zeroish &&
		p.Y >= min(a.Y, b.Y)-zeroish && p.Y <= max(a.Y, b.Y)+zeroish
}

// Segment is a straight boundary between two points.
type Segment struct {
	A, B Point
}

// Locate reports whether p lies on s within tol pixels and, if so, the
// fraction t in [0, 1] from A to B at which it lies.
func (s Segment) Locate(p Point, tol float64) (t float64, ok bool) {
	d := s.B.Minus(s.A)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return 0, p.DistanceFrom(s.A) <= tol
	}
	t = ((p.X-s.A.X)*d.X + (p.Y-s.A.Y)*d.Y) / l2
	if t < -tol/math.Sqrt(l2) || t > 1+tol/math.Sqrt(l2) {
		return 0, false
	}
	t = max(0, min(1, t))
	return t, p.DistanceFrom(s.At(t)) <= tol
}

// At returns the point at fraction t from A to B.
func (s Segment) At(t float64) Point {
	return s.A.Plus(s.B.Minus(s.A).Times(t))
}
