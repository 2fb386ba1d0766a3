package panel

import (
	"github.com/matzehuels/mangalayout/pkg/geom"
)

// ID addresses a panel inside its page's arena.
type ID int

// None is the parent of the root panel.
const None ID = -1

// Orientation describes how a panel's children are arranged.
type Orientation string

const (
	// Horizontal children are bands stacked top to bottom.
	Horizontal Orientation = "h"
	// Vertical children are strips laid out left to right.
	Vertical Orientation = "v"
	// Unsplit is the orientation of a leaf.
	Unsplit Orientation = ""
)

// Invert returns the other splitting axis. Unsplit stays Unsplit.
func (o Orientation) Invert() Orientation {
	switch o {
	case Horizontal:
		return Vertical
	case Vertical:
		return Horizontal
	}
	return Unsplit
}

// Valid reports whether o is one of the known orientations.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical || o == Unsplit
}

// Panel is a node in the page tree.
type Panel struct {
	ID       ID
	Name     string
	Parent   ID
	Children []ID

	// Polygon is the outline in page pixels.
	Polygon geom.Polygon

	// Orientation is the axis along which Children were split.
	Orientation Orientation

	NonRect    bool // outline is no longer four axis-aligned corners
	Circular   bool // rendered as the ellipse inscribed in the bounds
	Sliced     bool // produced by the slicing transform
	Suppressed bool // skipped at render time

	// Background is the image drawn behind a leaf, empty for none.
	Background string

	Objects []*PlacedObject
	Bubbles []*SpeechBubble

	bounds geom.Rect
	area   float64
}

// IsLeaf reports whether the panel has no children.
func (p *Panel) IsLeaf() bool {
	return len(p.Children) == 0
}

// Refresh recomputes the cached bounds and area from Polygon.
func (p *Panel) Refresh() {
	p.bounds = p.Polygon.Bounds()
	p.area = p.Polygon.Area()
}

// Bounds returns the cached bounding box.
func (p *Panel) Bounds() geom.Rect { return p.bounds }

// Area returns the cached polygon area.
func (p *Panel) Area() float64 { return p.area }

// Width returns the cached bounding-box width.
func (p *Panel) Width() float64 { return p.bounds.Width() }

// Height returns the cached bounding-box height.
func (p *Panel) Height() float64 { return p.bounds.Height() }

// Center returns the centre of the cached bounding box.
func (p *Panel) Center() geom.Point {
	return geom.Pt(p.bounds.Min.X+p.bounds.Width()/2, p.bounds.Min.Y+p.bounds.Height()/2)
}

// Outline returns the polygon used for rendering and annotation: the
// inscribed ellipse for circular panels, the polygon otherwise.
func (p *Panel) Outline() geom.Polygon {
	if p.Circular {
		return geom.Ellipse(p.bounds, 64)
	}
	return p.Polygon
}
