package panel

import (
	"strconv"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
)

// PageType is the topology class of a page.
type PageType string

const (
	PageVertical   PageType = "v"  // vertical strips only
	PageHorizontal PageType = "h"  // horizontal bands only
	PageMixed      PageType = "vh" // recursive mixture of both
)

// Valid reports whether t is one of the known page types.
func (t PageType) Valid() bool {
	return t == PageVertical || t == PageHorizontal || t == PageMixed
}

// Page is the root of a panel tree plus page-wide attributes.
type Page struct {
	Width  int
	Height int

	Type      PageType
	NumPanels int

	// Background is either "#rrggbb" or the path of a background image.
	Background string
	Noise      int // post-render noise intensity
	Rotation   int // post-render rotation in degrees

	Bubbles []*SpeechBubble

	panels []*Panel
	leaves []*Panel
	cached bool
}

// NewPage creates a page whose root panel covers width×height pixels.
func NewPage(name string, width, height int) *Page {
	pg := &Page{Width: width, Height: height}
	pg.panels = []*Panel{{
		ID:      0,
		Name:    name,
		Parent:  None,
		Polygon: geom.RectPolygon(0, 0, float64(width), float64(height)),
	}}
	pg.panels[0].Refresh()
	return pg
}

// Name returns the page name, shared with the root panel.
func (pg *Page) Name() string { return pg.panels[0].Name }

// SetName renames the page and every panel under it.
func (pg *Page) SetName(name string) {
	pg.panels[0].Name = name
	pg.Walk(func(p *Panel) bool {
		for i, c := range p.Children {
			pg.panels[c].Name = p.Name + "-" + strconv.Itoa(i)
		}
		return true
	})
}

// Root returns the root panel.
func (pg *Page) Root() *Panel { return pg.panels[0] }

// Len returns the number of panels in the arena, the root included.
func (pg *Page) Len() int { return len(pg.panels) }

// Panels returns every panel in creation order.
func (pg *Page) Panels() []*Panel { return pg.panels }

// Panel returns the panel with the given id, or nil.
func (pg *Page) Panel(id ID) *Panel {
	if id < 0 || int(id) >= len(pg.panels) {
		return nil
	}
	return pg.panels[id]
}

// Area returns the area of the root polygon.
func (pg *Page) Area() float64 { return pg.panels[0].Area() }

// AddChild appends a new child with the given outline to parent and
// returns it.
func (pg *Page) AddChild(parent ID, poly geom.Polygon) (*Panel, error) {
	par := pg.Panel(parent)
	if par == nil {
		return nil, errors.New(errors.ErrCodeIndexRange, "no panel with id %d", parent)
	}
	p := &Panel{
		ID:      ID(len(pg.panels)),
		Name:    par.Name + "-" + strconv.Itoa(len(par.Children)),
		Parent:  parent,
		Polygon: poly,
	}
	p.Refresh()
	pg.panels = append(pg.panels, p)
	par.Children = append(par.Children, p.ID)
	pg.cached = false
	return p, nil
}

// AddChildren appends one child per outline and records orientation as the
// axis the parent was split along.
func (pg *Page) AddChildren(parent ID, o Orientation, polys []geom.Polygon) ([]*Panel, error) {
	par := pg.Panel(parent)
	if par == nil {
		return nil, errors.New(errors.ErrCodeIndexRange, "no panel with id %d", parent)
	}
	out := make([]*Panel, 0, len(polys))
	for _, poly := range polys {
		p, err := pg.AddChild(parent, poly)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	par.Orientation = o
	return out, nil
}

// Child returns the i-th child of parent.
func (pg *Page) Child(parent ID, i int) (*Panel, error) {
	par := pg.Panel(parent)
	if par == nil {
		return nil, errors.New(errors.ErrCodeIndexRange, "no panel with id %d", parent)
	}
	if i < 0 || i >= len(par.Children) {
		return nil, errors.New(errors.ErrCodeIndexRange, "panel %s has %d children, index %d", par.Name, len(par.Children), i)
	}
	return pg.panels[par.Children[i]], nil
}

// Children returns the children of id in order.
func (pg *Page) Children(id ID) []*Panel {
	p := pg.Panel(id)
	if p == nil {
		return nil
	}
	out := make([]*Panel, len(p.Children))
	for i, c := range p.Children {
		out[i] = pg.panels[c]
	}
	return out
}

// Parent returns the parent of id, or nil for the root.
func (pg *Page) Parent(id ID) *Panel {
	p := pg.Panel(id)
	if p == nil {
		return nil
	}
	return pg.Panel(p.Parent)
}

// Walk visits the tree depth-first in child order, starting at the root.
// Returning false from fn skips the panel's subtree.
func (pg *Page) Walk(fn func(*Panel) bool) {
	pg.walk(0, fn)
}

func (pg *Page) walk(id ID, fn func(*Panel) bool) {
	p := pg.panels[id]
	if !fn(p) {
		return
	}
	for _, c := range p.Children {
		pg.walk(c, fn)
	}
}

// Subtree returns id followed by all of its descendants, depth-first.
func (pg *Page) Subtree(id ID) []*Panel {
	if pg.Panel(id) == nil {
		return nil
	}
	var out []*Panel
	pg.walk(id, func(p *Panel) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Leaves returns the unsuppressed leaf panels, depth-first and left to
// right. The slice is memoised and must not be modified.
func (pg *Page) Leaves() []*Panel {
	if pg.cached {
		return pg.leaves
	}
	pg.leaves = nil
	pg.Walk(func(p *Panel) bool {
		if p.IsLeaf() && !p.Suppressed {
			pg.leaves = append(pg.leaves, p)
		}
		return true
	})
	pg.cached = true
	return pg.leaves
}

// Suppress marks the panels so they are skipped at render time and drops
// them from the leaf cache. NumPanels is left untouched.
func (pg *Page) Suppress(ids ...ID) {
	for _, id := range ids {
		if p := pg.Panel(id); p != nil {
			p.Suppressed = true
		}
	}
	pg.cached = false
}

// Invalidate forgets the memoised leaves after an outside change to
// Children.
func (pg *Page) Invalidate() { pg.cached = false }

// Refresh recomputes cached geometry for the given panels, or for every
// panel when none are given.
func (pg *Page) Refresh(ids ...ID) {
	if len(ids) == 0 {
		for _, p := range pg.panels {
			p.Refresh()
		}
		return
	}
	for _, id := range ids {
		if p := pg.Panel(id); p != nil {
			p.Refresh()
		}
	}
}

// Depth returns the number of edges between id and the root.
func (pg *Page) Depth(id ID) int {
	d := 0
	for p := pg.Parent(id); p != nil; p = pg.Parent(p.ID) {
		d++
	}
	return d
}

// Restore replaces the panel arena wholesale. It is used by decoders and
// by transforms that roll back a failed edit; panels must be indexed by ID.
func (pg *Page) Restore(panels []*Panel) error {
	if len(panels) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "page needs a root panel")
	}
	for i, p := range panels {
		if p.ID != ID(i) {
			return errors.New(errors.ErrCodeInvalidInput, "panel %q has id %d at index %d", p.Name, p.ID, i)
		}
		for _, c := range p.Children {
			if c <= p.ID || int(c) >= len(panels) {
				return errors.New(errors.ErrCodeInvalidInput, "panel %q has invalid child %d", p.Name, c)
			}
		}
		p.Refresh()
	}
	pg.panels = panels
	pg.cached = false
	return nil
}

// Snapshot returns a deep copy of every panel's outline and flags, suitable
// for Restore. Objects and bubbles are shared, not copied.
func (pg *Page) Snapshot() []*Panel {
	out := make([]*Panel, len(pg.panels))
	for i, p := range pg.panels {
		cp := *p
		cp.Polygon = p.Polygon.Clone()
		cp.Children = append([]ID(nil), p.Children...)
		out[i] = &cp
	}
	return out
}

// Rollback returns the page to a Snapshot taken earlier, keeping existing
// *Panel pointers valid. Panels created after the snapshot are discarded.
func (pg *Page) Rollback(snap []*Panel) {
	n := min(len(snap), len(pg.panels))
	for i := 0; i < n; i++ {
		*pg.panels[i] = *snap[i]
		pg.panels[i].Polygon = snap[i].Polygon.Clone()
		pg.panels[i].Children = append([]ID(nil), snap[i].Children...)
	}
	pg.panels = pg.panels[:n]
	pg.cached = false
}
