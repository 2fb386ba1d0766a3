package geom

import (
	"math"

	"github.com/jbeda/geom"

	"github.com/matzehuels/mangalayout/pkg/errors"
)

// zeroish is the tolerance used for coordinate comparisons.
const zeroish = 1e-6

// Point is a 2D coordinate in page pixels.
type Point = geom.Coord

// Rect is an axis-aligned bounding box.
type Rect = geom.Rect

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Polygon is a closed polygon with an implicit edge from the last vertex back
// to the first.
type Polygon []Point

// RectPolygon returns the clockwise rectangle spanning (x0,y0)-(x1,y1).
func RectPolygon(x0, y0, x1, y1 float64) Polygon {
	return Polygon{Pt(x0, y0), Pt(x1, y0), Pt(x1, y1), Pt(x0, y1)}
}

// Clone returns a copy that shares no memory with p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// SignedArea returns the shoelace area. It is positive for clockwise
// polygons in screen coordinates.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Bounds returns the smallest rectangle containing every vertex.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	r := Rect{Min: p[0], Max: p[0]}
	for _, c := range p[1:] {
		r.ExpandToContainCoord(c)
	}
	return r
}

// Center returns the centre of the bounding box.
func (p Polygon) Center() Point {
	b := p.Bounds()
	return Pt(b.Min.X+b.Width()/2, b.Min.Y+b.Height()/2)
}

// Closed returns the vertices with the first one repeated at the end.
func (p Polygon) Closed() []Point {
	if len(p) == 0 {
		return nil
	}
	out := make([]Point, 0, len(p)+1)
	out = append(out, p...)
	return append(out, p[0])
}

// Open builds a polygon from pts, dropping a trailing vertex that repeats the
// first one.
func Open(pts []Point) Polygon {
	if n := len(pts); n > 1 && samePoint(pts[0], pts[n-1]) {
		pts = pts[:n-1]
	}
	return Polygon(pts).Clone()
}

// IsAxisAlignedRect reports whether p is exactly four corners in
// top-left, top-right, bottom-right, bottom-left order.
func (p Polygon) IsAxisAlignedRect() bool {
	if len(p) != 4 {
		return false
	}
	tl, tr, br, bl := p[0], p[1], p[2], p[3]
	return near(tl.Y, tr.Y) && near(tr.X, br.X) && near(br.Y, bl.Y) && near(bl.X, tl.X) &&
		tl.X < tr.X && tl.Y < bl.Y
}

// Validate returns a geometry error unless p has at least three vertices,
// positive area and no self-intersections.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return errors.New(errors.ErrCodeGeometry, "polygon has %d vertices", len(p))
	}
	if p.Area() <= zeroish {
		return errors.New(errors.ErrCodeGeometry, "polygon has zero area")
	}
	if !p.IsSimple() {
		return errors.New(errors.ErrCodeGeometry, "polygon self-intersects")
	}
	return nil
}

// Covers reports whether c lies inside p or on its boundary, within the
// offset rounding tolerance.
func (p Polygon) Covers(c Point) bool {
	n := len(p)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[j], p[i]
		if _, ok := (Segment{A: a, B: b}).Locate(c, 1.0/offsetScale); ok {
			return true
		}
		if (a.Y > c.Y) != (b.Y > c.Y) && c.X < a.X+(c.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y) {
			inside = !inside
		}
	}
	return inside
}

// Translate returns p moved by d.
func (p Polygon) Translate(d Point) Polygon {
	out := make(Polygon, len(p))
	for i, c := range p {
		out[i] = c.Plus(d)
	}
	return out
}

// Ellipse approximates the ellipse inscribed in r with n vertices, clockwise
// from the rightmost point.
func Ellipse(r Rect, n int) Polygon {
	if n < 8 {
		n = 8
	}
	cx, cy := r.Min.X+r.Width()/2, r.Min.Y+r.Height()/2
	rx, ry := r.Width()/2, r.Height()/2
	out := make(Polygon, n)
	for i := range out {
		t := 2 * math.Pi * float64(i) / float64(n)
		out[i] = Pt(cx+rx*math.Cos(t), cy+ry*math.Sin(t))
	}
	return out
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= zeroish
}

func samePoint(a, b Point) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}
