package panel

import (
	"image"
	"math"
	"testing"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
)

func splitPage(t *testing.T) *Page {
	t.Helper()
	pg := NewPage("page", 100, 200)
	top, err := pg.AddChildren(0, Horizontal, []geom.Polygon{
		geom.RectPolygon(0, 0, 100, 100),
		geom.RectPolygon(0, 100, 100, 200),
	})
	if err != nil {
		t.Fatalf("AddChildren() error: %v", err)
	}
	if _, err := pg.AddChildren(top[1].ID, Vertical, []geom.Polygon{
		geom.RectPolygon(0, 100, 50, 200),
		geom.RectPolygon(50, 100, 100, 200),
	}); err != nil {
		t.Fatalf("AddChildren() error: %v", err)
	}
	return pg
}

func TestNewPage(t *testing.T) {
	pg := NewPage("abc", 800, 1200)
	if pg.Name() != "abc" || pg.Len() != 1 {
		t.Fatalf("NewPage() name=%q len=%d", pg.Name(), pg.Len())
	}
	if pg.Area() != 960000 {
		t.Errorf("Area() = %v, want 960000", pg.Area())
	}
	root := pg.Root()
	if root.Parent != None || !root.IsLeaf() || root.Width() != 800 || root.Height() != 1200 {
		t.Errorf("unexpected root %+v", root)
	}
}

func TestHierarchicalNames(t *testing.T) {
	pg := splitPage(t)
	want := []string{"page", "page-0", "page-1", "page-1-0", "page-1-1"}
	for i, p := range pg.Panels() {
		if p.Name != want[i] {
			t.Errorf("panel %d name = %q, want %q", i, p.Name, want[i])
		}
	}

	pg.SetName("renamed")
	if got := pg.Panel(4).Name; got != "renamed-1-1" {
		t.Errorf("after SetName panel 4 = %q", got)
	}
}

func TestChild(t *testing.T) {
	pg := splitPage(t)

	c, err := pg.Child(0, 1)
	if err != nil {
		t.Fatalf("Child() error: %v", err)
	}
	if c.Name != "page-1" || c.Orientation != Vertical {
		t.Errorf("Child(0,1) = %q orientation %q", c.Name, c.Orientation)
	}

	for _, i := range []int{2, -1} {
		if _, err := pg.Child(0, i); !errors.Is(err, errors.ErrCodeIndexRange) {
			t.Errorf("Child(0,%d) error = %v, want index out of range", i, err)
		}
	}
	if _, err := pg.Child(99, 0); !errors.Is(err, errors.ErrCodeIndexRange) {
		t.Errorf("Child(99,0) error = %v", err)
	}
}

func TestLeavesOrderAndCache(t *testing.T) {
	pg := splitPage(t)
	leaves := pg.Leaves()
	names := []string{"page-0", "page-1-0", "page-1-1"}
	if len(leaves) != len(names) {
		t.Fatalf("Leaves() = %d panels, want %d", len(leaves), len(names))
	}
	for i, l := range leaves {
		if l.Name != names[i] {
			t.Errorf("leaf %d = %q, want %q", i, l.Name, names[i])
		}
	}

	if again := pg.Leaves(); &again[0] != &leaves[0] {
		t.Error("Leaves() not memoised")
	}

	if _, err := pg.AddChildren(leaves[0].ID, Vertical, []geom.Polygon{
		geom.RectPolygon(0, 0, 50, 100),
		geom.RectPolygon(50, 0, 100, 100),
	}); err != nil {
		t.Fatal(err)
	}
	if n := len(pg.Leaves()); n != 4 {
		t.Errorf("Leaves() after split = %d, want 4", n)
	}
}

func TestSuppress(t *testing.T) {
	pg := splitPage(t)
	pg.NumPanels = 3
	last := pg.Leaves()[2]
	pg.Suppress(last.ID)

	if !last.Suppressed {
		t.Error("panel not marked suppressed")
	}
	if n := len(pg.Leaves()); n != 2 {
		t.Errorf("Leaves() = %d, want 2", n)
	}
	if pg.NumPanels != 3 {
		t.Errorf("NumPanels = %d, want unchanged 3", pg.NumPanels)
	}
}

func TestPartitionAreas(t *testing.T) {
	pg := splitPage(t)
	var sum float64
	for _, l := range pg.Leaves() {
		sum += l.Area()
	}
	if math.Abs(sum-pg.Area()) > 1e-9 {
		t.Errorf("leaf areas sum to %v, want %v", sum, pg.Area())
	}
}

func TestRefreshAfterEdit(t *testing.T) {
	pg := splitPage(t)
	p := pg.Panel(1)
	p.Polygon[1].X = 150
	if p.Width() != 100 {
		t.Fatal("cached width changed before Refresh")
	}
	pg.Refresh(p.ID)
	if p.Width() != 150 {
		t.Errorf("Width() after Refresh = %v, want 150", p.Width())
	}
}

func TestSubtreeAndDepth(t *testing.T) {
	pg := splitPage(t)
	sub := pg.Subtree(2)
	if len(sub) != 3 || sub[0].ID != 2 {
		t.Errorf("Subtree(2) = %d panels", len(sub))
	}
	if d := pg.Depth(4); d != 2 {
		t.Errorf("Depth(4) = %d, want 2", d)
	}
	if pg.Parent(0) != nil {
		t.Error("root has a parent")
	}
}

func TestSnapshotRestore(t *testing.T) {
	pg := splitPage(t)
	snap := pg.Snapshot()
	pg.Panel(3).Polygon[1].X = 70
	pg.Panel(3).NonRect = true

	if err := pg.Restore(snap); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	p := pg.Panel(3)
	if p.Polygon[1].X != 50 || p.NonRect {
		t.Errorf("Restore() did not roll back: %+v", p)
	}
	if len(pg.Leaves()) != 3 {
		t.Error("Restore() broke the leaf cache")
	}
}

func TestRestoreRejectsBadArena(t *testing.T) {
	pg := NewPage("x", 10, 10)
	bad := []*Panel{{ID: 0, Children: []ID{0}}}
	if err := pg.Restore(bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Restore() error = %v", err)
	}
}

func TestResized(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		area         float64
		meta         TransformMetadata
		wantW, wantH int
	}{
		{"square", 10, 10, 400, TransformMetadata{}, 20, 20},
		{"wide", 200, 100, 5000, TransformMetadata{}, 100, 50},
		{"stretched", 100, 100, 20000, TransformMetadata{StretchX: 1}, 200, 100},
		{"no area", 10, 10, 0, TransformMetadata{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &PlacedObject{Width: tt.w, Height: tt.h, ResizeTo: tt.area, Meta: tt.meta}
			w, h := o.Resized()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Resized() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestAttachGrowsComposite(t *testing.T) {
	o := &PlacedObject{Width: 100, Height: 100}
	// 30x40 resized bubble: circumscribed radius 25
	b := &SpeechBubble{
		Width: 3, Height: 4, ResizeTo: 1200,
		Location:     image.Pt(10, 90),
		ParentCenter: image.Pt(50, 50),
	}
	if w, h := b.Resized(); w != 30 || h != 40 {
		t.Fatalf("bubble Resized() = %dx%d", w, h)
	}
	o.Attach(b)

	if o.CompositeLocation != image.Pt(15, 0) {
		t.Errorf("CompositeLocation = %v, want (15,0)", o.CompositeLocation)
	}
	if b.Location != image.Pt(25, 90) || b.ParentCenter != image.Pt(65, 50) {
		t.Errorf("bubble moved to %v / %v", b.Location, b.ParentCenter)
	}
	if o.Width != 115 || o.Height != 115 {
		t.Errorf("composite = %dx%d, want 115x115", o.Width, o.Height)
	}
	if len(o.Bubbles) != 1 {
		t.Error("bubble not attached")
	}

	box := b.Box()
	if box.Min.X < 0 || box.Min.Y < 0 || box.Max.X > o.Width || box.Max.Y > o.Height {
		t.Errorf("bubble box %v escapes %dx%d composite", box, o.Width, o.Height)
	}
}

func TestPageBox(t *testing.T) {
	// 100x50 composite drawn at 200x100
	o := &PlacedObject{Width: 100, Height: 50, ResizeTo: 20000, Location: image.Pt(300, 200)}
	if got, want := o.Box(), image.Rect(200, 150, 400, 250); got != want {
		t.Fatalf("Box() = %v, want %v", got, want)
	}
	if got, want := o.PageBox(image.Rect(10, 10, 20, 30)), image.Rect(220, 170, 240, 210); got != want {
		t.Errorf("PageBox() = %v, want %v", got, want)
	}
	if got := (&PlacedObject{}).PageBox(image.Rect(0, 0, 5, 5)); !got.Empty() {
		t.Errorf("PageBox() of empty composite = %v", got)
	}
}

func TestOrientationInvert(t *testing.T) {
	if Horizontal.Invert() != Vertical || Vertical.Invert() != Horizontal || Unsplit.Invert() != Unsplit {
		t.Error("Invert() mismatch")
	}
}

func TestRollbackKeepsPointers(t *testing.T) {
	pg := splitPage(t)
	leaf := pg.Panel(1)
	snap := pg.Snapshot()

	if _, err := pg.AddChildren(leaf.ID, Vertical, []geom.Polygon{
		geom.RectPolygon(0, 0, 40, 100),
		geom.RectPolygon(40, 0, 100, 100),
	}); err != nil {
		t.Fatal(err)
	}
	leaf.Sliced = true

	pg.Rollback(snap)
	if pg.Len() != 5 {
		t.Errorf("Len() after Rollback = %d, want 5", pg.Len())
	}
	if leaf != pg.Panel(1) || !leaf.IsLeaf() || leaf.Sliced {
		t.Errorf("Rollback() did not restore panel in place: %+v", leaf)
	}
	if len(pg.Leaves()) != 3 {
		t.Errorf("Leaves() after Rollback = %d", len(pg.Leaves()))
	}
}
