package transform

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func quietLogger() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func newEngine(mod func(*config.TransformConfig)) *Engine {
	cfg := config.DefaultGeneration().Transform
	if mod != nil {
		mod(&cfg)
	}
	return NewEngine(&cfg, quietLogger())
}

func stripsPage(t *testing.T, n int, axis panel.Orientation) *panel.Page {
	t.Helper()
	pg := panel.NewPage("p", 800, 1200)
	if _, err := layout.SplitEqual(pg, 0, n, axis); err != nil {
		t.Fatal(err)
	}
	pg.NumPanels = n
	return pg
}

// checkTiling fails unless every leaf is a valid polygon and the leaves
// cover the page area.
func checkTiling(t *testing.T, pg *panel.Page) {
	t.Helper()
	var sum float64
	for _, p := range pg.Leaves() {
		if err := p.Polygon.Validate(); err != nil {
			t.Fatalf("leaf %s: %v (%v)", p.Name, err, p.Polygon)
		}
		sum += p.Area()
	}
	if want := pg.Area(); math.Abs(sum-want) > 1e-6*want {
		t.Fatalf("leaf areas sum to %v, want %v", sum, want)
	}
}

func TestSliceCenterScenario(t *testing.T) {
	e := newEngine(nil)
	pg := panel.NewPage("p", 800, 1200)
	pg.NumPanels = 1

	n := e.Slice(newRand(1), pg, SliceOptions{Mode: SliceCenter, Axis: panel.Vertical, Skew: SkewLeft})
	if n != 1 {
		t.Fatalf("Slice() = %d, want 1", n)
	}
	kids := pg.Children(0)
	if len(kids) != 2 {
		t.Fatalf("got %d children, want 2", len(kids))
	}
	for _, k := range kids {
		if len(k.Polygon) < 4 {
			t.Errorf("child %s has %d vertices", k.Name, len(k.Polygon))
		}
		if !k.NonRect || !k.Sliced {
			t.Errorf("child %s flags non_rect=%v sliced=%v", k.Name, k.NonRect, k.Sliced)
		}
	}
	// the cut is skewed: top end left of centre, bottom end right of it
	top, bottom := kids[0].Polygon[1], kids[0].Polygon[2]
	if top.X >= 400 || bottom.X <= 400 {
		t.Errorf("cut runs %v to %v, want it skewed left at the top", top, bottom)
	}
	if pg.NumPanels != 2 {
		t.Errorf("NumPanels = %d, want 2", pg.NumPanels)
	}
	checkTiling(t, pg)
}

func TestSliceVariants(t *testing.T) {
	tests := []struct {
		name string
		opts SliceOptions
		min  int
	}{
		{"vertical left", SliceOptions{Mode: SliceCenter, Axis: panel.Vertical, Skew: SkewLeft}, 4},
		{"vertical right", SliceOptions{Mode: SliceCenter, Axis: panel.Vertical, Skew: SkewRight}, 4},
		{"vertical zigzag", SliceOptions{Mode: SliceCenter, Axis: panel.Vertical, Skew: SkewZigZag}, 5},
		{"horizontal up", SliceOptions{Mode: SliceCenter, Axis: panel.Horizontal, Skew: SkewUp}, 4},
		{"horizontal down", SliceOptions{Mode: SliceCenter, Axis: panel.Horizontal, Skew: SkewDown}, 4},
		{"horizontal zigzag", SliceOptions{Mode: SliceCenter, Axis: panel.Horizontal, Skew: SkewZigZag}, 5},
		{"top left", SliceOptions{Mode: SliceSide, Corner: CornerTopLeft}, 3},
		{"top right", SliceOptions{Mode: SliceSide, Corner: CornerTopRight}, 3},
		{"bottom left", SliceOptions{Mode: SliceSide, Corner: CornerBottomLeft}, 3},
		{"bottom right", SliceOptions{Mode: SliceSide, Corner: CornerBottomRight}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				e := newEngine(nil)
				pg := panel.NewPage("p", 800, 1200)
				pg.NumPanels = 1
				if n := e.Slice(newRand(seed), pg, tt.opts); n != 1 {
					t.Fatalf("seed %d: Slice() = %d, want 1", seed, n)
				}
				for _, k := range pg.Children(0) {
					if len(k.Polygon) < tt.min {
						t.Errorf("seed %d: child %s has %d vertices, want at least %d", seed, k.Name, len(k.Polygon), tt.min)
					}
				}
				checkTiling(t, pg)
			}
		})
	}
}

func TestSliceRejectsMismatchedSkew(t *testing.T) {
	var skipped int
	e := newEngine(nil)
	e.OnSkip = func(Kind, error) { skipped++ }
	pg := panel.NewPage("p", 800, 1200)

	n := e.Slice(newRand(1), pg, SliceOptions{Mode: SliceCenter, Axis: panel.Vertical, Skew: SkewUp})
	if n != 0 || skipped != 1 {
		t.Fatalf("Slice() = %d with %d skips, want 0 and 1", n, skipped)
	}
	if !pg.Root().IsLeaf() || pg.Len() != 1 {
		t.Errorf("page changed after a rejected slice: %d panels", pg.Len())
	}
}

func TestSliceSkipsSmallPanels(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 8, panel.Vertical)
	if n := e.Slice(newRand(1), pg, SliceOptions{Mode: SliceCenter}); n != 0 {
		t.Errorf("Slice() = %d on panels below the minimum area", n)
	}
}

func TestSliceSkipsCircularPanels(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 2, panel.Horizontal)
	for _, k := range pg.Children(0) {
		k.Circular = true
	}
	if n := e.Slice(newRand(1), pg, SliceOptions{Mode: SliceSide}); n != 0 {
		t.Errorf("Slice() = %d on circular panels", n)
	}
}

func TestBoxPanels(t *testing.T) {
	tests := []struct {
		kind    BoxKind
		pattern string
	}{
		{Trapezoid, PatternA},
		{Trapezoid, PatternV},
		{Rhombus, PatternLeft},
		{Rhombus, PatternRight},
	}

	for _, axis := range []panel.Orientation{panel.Vertical, panel.Horizontal} {
		for _, tt := range tests {
			t.Run(string(axis)+"/"+tt.pattern, func(t *testing.T) {
				e := newEngine(nil)
				pg := stripsPage(t, 3, axis)
				if n := e.BoxPanels(newRand(3), pg, tt.kind, tt.pattern); n != 1 {
					t.Fatalf("BoxPanels() = %d, want 1", n)
				}
				for _, k := range pg.Children(0) {
					if !k.NonRect {
						t.Errorf("child %s not marked non_rect", k.Name)
					}
				}
				if pg.Children(0)[1].Polygon.IsAxisAlignedRect() {
					t.Errorf("middle panel is still a rectangle: %v", pg.Children(0)[1].Polygon)
				}
				checkTiling(t, pg)
			})
		}
	}
}

func TestBoxPanelsTrapezoidShape(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 3, panel.Vertical)
	e.BoxPanels(newRand(1), pg, Trapezoid, PatternA)

	// an A narrows the middle strip at the top
	mid := pg.Children(0)[1].Polygon
	top := mid[1].X - mid[0].X
	bottom := mid[2].X - mid[3].X
	if top >= bottom {
		t.Errorf("middle strip is %v wide at the top and %v at the bottom", top, bottom)
	}
}

func TestBoxPanelsNeedsTriple(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 2, panel.Vertical)
	if n := e.BoxPanels(newRand(1), pg, Rhombus, ""); n != 0 {
		t.Errorf("BoxPanels() = %d on a page without a triple", n)
	}
}

func TestWobblePropagates(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 2, panel.Horizontal)
	if _, err := layout.SplitEqual(pg, pg.Root().Children[1], 3, panel.Vertical); err != nil {
		t.Fatal(err)
	}

	if n := e.Wobble(newRand(2), pg, WobbleRightUp); n != 1 {
		t.Fatalf("Wobble() = %d, want 1", n)
	}
	top := pg.Children(0)[0]
	if top.Polygon[3].Y <= 600 {
		t.Errorf("left end of the boundary at %v, want it lowered", top.Polygon[3])
	}
	// every strip of the lower band follows the tilted boundary
	for _, k := range pg.Children(pg.Root().Children[1]) {
		if !k.NonRect {
			t.Errorf("strip %s not marked non_rect", k.Name)
		}
	}
	checkTiling(t, pg)
}

func TestWobbleVertical(t *testing.T) {
	e := newEngine(nil)
	pg := stripsPage(t, 4, panel.Vertical)
	if n := e.Wobble(newRand(5), pg); n != 3 {
		t.Fatalf("Wobble() = %d, want 3", n)
	}
	checkTiling(t, pg)
}

func TestTransformsKeepTiling(t *testing.T) {
	cfg := config.DefaultGeneration()
	gen := layout.NewGenerator(&cfg, quietLogger())

	for seed := uint64(0); seed < 150; seed++ {
		rng := newRand(seed)
		pg, err := gen.Generate(rng, layout.Request{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		e := newEngine(nil)
		e.BoxPanels(rng, pg, "", "")
		e.Wobble(rng, pg)
		checkTiling(t, pg)
	}
}

func TestApplyAndShrinkKeepLeavesValid(t *testing.T) {
	cfg := config.DefaultGeneration()
	gen := layout.NewGenerator(&cfg, quietLogger())

	for seed := uint64(0); seed < 200; seed++ {
		rng := newRand(seed)
		pg, err := gen.Generate(rng, layout.Request{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		e := newEngine(func(c *config.TransformConfig) { c.Chance = 1 })
		e.Apply(rng, pg)
		e.Shrink(rng, pg)
		for _, p := range pg.Leaves() {
			if err := p.Polygon.Validate(); err != nil {
				t.Fatalf("seed %d: leaf %s: %v", seed, p.Name, err)
			}
		}
	}
}

func TestCircular(t *testing.T) {
	e := newEngine(func(c *config.TransformConfig) { c.CircularChance = 1 })
	pg := stripsPage(t, 3, panel.Vertical)
	pg.Children(0)[1].NonRect = true

	if n := e.Circular(newRand(1), pg); n != 2 {
		t.Fatalf("Circular() = %d, want 2", n)
	}
	kids := pg.Children(0)
	if !kids[0].Circular || kids[1].Circular || !kids[2].Circular {
		t.Errorf("circular flags = %v %v %v", kids[0].Circular, kids[1].Circular, kids[2].Circular)
	}
}

func TestCircularSkipsSplitChildren(t *testing.T) {
	e := newEngine(func(c *config.TransformConfig) { c.CircularChance = 1 })
	pg := stripsPage(t, 2, panel.Vertical)
	first := pg.Children(0)[0]
	if _, err := layout.SplitEqual(pg, first.ID, 2, panel.Horizontal); err != nil {
		t.Fatal(err)
	}

	if n := e.Circular(newRand(1), pg); n != 1 {
		t.Fatalf("Circular() = %d, want 1", n)
	}
	if first.Circular {
		t.Error("split child marked circular")
	}
	for _, p := range pg.Children(first.ID) {
		if p.Circular {
			t.Errorf("grandchild %s marked circular", p.Name)
		}
	}
	if !pg.Children(0)[1].Circular {
		t.Error("leaf child not marked circular")
	}
}

func TestShrink(t *testing.T) {
	e := newEngine(func(c *config.TransformConfig) { c.ShrinkMin, c.ShrinkMax = -10, -10 })
	pg := stripsPage(t, 2, panel.Vertical)

	if d := e.Shrink(newRand(1), pg); d != -10 {
		t.Fatalf("Shrink() = %v, want -10", d)
	}
	for _, p := range pg.Leaves() {
		if math.Abs(p.Width()-380) > 0.5 || math.Abs(p.Height()-1180) > 0.5 {
			t.Errorf("leaf %s is %vx%v, want 380x1180", p.Name, p.Width(), p.Height())
		}
	}
}

func TestShrinkDegenerateKeepsOutline(t *testing.T) {
	e := newEngine(func(c *config.TransformConfig) { c.ShrinkMin, c.ShrinkMax = -500, -500 })
	pg := stripsPage(t, 2, panel.Vertical)
	before := pg.Children(0)[0].Polygon.Clone()

	e.Shrink(newRand(1), pg)
	after := pg.Children(0)[0].Polygon
	if len(after) != len(before) {
		t.Fatalf("outline changed from %v to %v", before, after)
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("outline changed from %v to %v", before, after)
		}
	}
}

func TestShrinkRange(t *testing.T) {
	e := newEngine(nil)
	for seed := uint64(0); seed < 50; seed++ {
		pg := stripsPage(t, 2, panel.Vertical)
		d := e.Shrink(newRand(seed), pg)
		if d < -36 || d >= 0 || d != math.Trunc(d) {
			t.Fatalf("seed %d: offset %v outside [-36, 0)", seed, d)
		}
	}
}

func TestRemove(t *testing.T) {
	e := newEngine(nil)

	t.Run("suppresses trailing leaves", func(t *testing.T) {
		for seed := uint64(0); seed < 20; seed++ {
			pg := stripsPage(t, 5, panel.Vertical)
			ids := e.Remove(newRand(seed), pg)
			if len(ids) < 1 || len(ids) > 2 {
				t.Fatalf("seed %d: removed %d panels", seed, len(ids))
			}
			kids := pg.Root().Children
			for i, id := range ids {
				if id != kids[len(kids)-len(ids)+i] {
					t.Errorf("seed %d: removed %v, want the last leaves of %v", seed, ids, kids)
				}
			}
			if got := len(pg.Leaves()); got != 5-len(ids) {
				t.Errorf("seed %d: %d leaves remain", seed, got)
			}
			if pg.NumPanels != 5 {
				t.Errorf("seed %d: NumPanels = %d, want 5", seed, pg.NumPanels)
			}
		}
	})

	t.Run("small pages are kept", func(t *testing.T) {
		pg := stripsPage(t, 3, panel.Vertical)
		if ids := e.Remove(newRand(1), pg); ids != nil {
			t.Errorf("Remove() = %v on a 3 panel page", ids)
		}
	})
}

func TestEditRollsBack(t *testing.T) {
	var kinds []Kind
	e := newEngine(nil)
	e.OnSkip = func(k Kind, err error) {
		if !errors.Is(err, errors.ErrCodeGeometry) {
			t.Errorf("skip error %v, want a geometry error", err)
		}
		kinds = append(kinds, k)
	}
	pg := stripsPage(t, 2, panel.Vertical)
	before := pg.Panel(1).Polygon.Clone()

	err := e.edit(pg, KindWobble, func() ([]panel.ID, error) {
		p := pg.Panel(1)
		p.Polygon[1], p.Polygon[2] = p.Polygon[2], p.Polygon[1]
		p.NonRect = true
		return []panel.ID{p.ID}, nil
	})
	if err == nil {
		t.Fatal("edit() accepted a self-intersecting polygon")
	}
	if len(kinds) != 1 || kinds[0] != KindWobble {
		t.Errorf("OnSkip kinds = %v", kinds)
	}
	p := pg.Panel(1)
	if p.NonRect || p.Polygon[1] != before[1] {
		t.Errorf("panel not restored: %v non_rect=%v", p.Polygon, p.NonRect)
	}
}

func TestSegmentLocate(t *testing.T) {
	s := geom.Segment{A: geom.Pt(0, 100), B: geom.Pt(200, 100)}
	if tt, ok := s.Locate(geom.Pt(50, 100), lineTolerance); !ok || tt != 0.25 {
		t.Errorf("Locate() = %v, %v", tt, ok)
	}
	if _, ok := s.Locate(geom.Pt(50, 101), lineTolerance); ok {
		t.Error("Locate() accepted a point off the segment")
	}
	if _, ok := s.Locate(geom.Pt(201, 100), lineTolerance); ok {
		t.Error("Locate() accepted a point past the end")
	}
}
