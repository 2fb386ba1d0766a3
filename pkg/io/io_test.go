package io

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/transform"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func quietLogger() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func samplePage(t *testing.T, seed uint64) *panel.Page {
	t.Helper()
	cfg := config.DefaultGeneration()
	cfg.Transform.Chance = 1
	rng := newRand(seed)
	pg, err := layout.NewGenerator(&cfg, quietLogger()).Generate(rng, layout.Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	eng := transform.NewEngine(&cfg.Transform, quietLogger())
	eng.Apply(rng, pg)
	eng.Shrink(rng, pg)

	pg.Background = "#fafafa"
	pg.Noise, pg.Rotation = 7, -3
	leaves := pg.Leaves()
	leaf := leaves[0]
	leaf.Background = "backgrounds/1.jpg"
	bubble := &panel.SpeechBubble{
		Template:        "sb/1.png",
		Width:           200,
		Height:          120,
		WritingAreas:    []panel.WritingArea{{X: 10, Y: 15, Width: 80, Height: 70, OriginalWidth: 200, OriginalHeight: 120}},
		Orientation:     panel.TopRight,
		Texts:           []panel.TextRecord{{"English": "hey", "Japanese": "ne"}},
		TextIndices:     []int{4},
		Font:            "fonts/a.ttf",
		FontSize:        33,
		TextOrientation: "ltr",
		ResizeTo:        1234.5,
		Location:        image.Pt(12, 40),
		ParentCenter:    image.Pt(50, 60),
		Transforms:      []panel.Transform{panel.TransformStretchX, panel.TransformRotate},
		Meta:            panel.TransformMetadata{Rotation: 7, StretchX: 0.125},
	}
	leaf.Objects = append(leaf.Objects, &panel.PlacedObject{
		Image:             "fg/1.png",
		Width:             300,
		Height:            420,
		ResizeTo:          9000.25,
		Location:          image.Pt(100, 200),
		CompositeLocation: image.Pt(20, 0),
		PanelCenter:       image.Pt(150, 150),
		Transforms:        []panel.Transform{panel.TransformFlipVertical},
		Bubbles:           []*panel.SpeechBubble{bubble},
	})
	leaf.Bubbles = append(leaf.Bubbles, &panel.SpeechBubble{Template: "sb/2.png", Width: 10, Height: 10, Location: image.Pt(5, 5)})
	if len(leaves) > 2 {
		pg.Suppress(leaves[len(leaves)-1].ID)
	}
	return pg
}

func TestRoundTrip(t *testing.T) {
	for seed := uint64(0); seed < 40; seed++ {
		pg := samplePage(t, seed)
		first, err := Marshal(pg)
		if err != nil {
			t.Fatalf("seed %d: Marshal: %v", seed, err)
		}
		back, err := Unmarshal(first)
		if err != nil {
			t.Fatalf("seed %d: Unmarshal: %v", seed, err)
		}
		second, err := Marshal(back)
		if err != nil {
			t.Fatalf("seed %d: Marshal again: %v", seed, err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("seed %d: round trip changed the record", seed)
		}
		comparePages(t, pg, back)
	}
}

func comparePages(t *testing.T, want, got *panel.Page) {
	t.Helper()
	if got.Name() != want.Name() || got.NumPanels != want.NumPanels || got.Type != want.Type ||
		got.Width != want.Width || got.Height != want.Height || got.Background != want.Background ||
		got.Noise != want.Noise || got.Rotation != want.Rotation {
		t.Fatalf("page attributes differ")
	}
	wl, gl := want.Leaves(), got.Leaves()
	if len(wl) != len(gl) {
		t.Fatalf("got %d leaves, want %d", len(gl), len(wl))
	}
	for i := range wl {
		w, g := wl[i], gl[i]
		if w.Name != g.Name || w.NonRect != g.NonRect || w.Circular != g.Circular || w.Sliced != g.Sliced {
			t.Errorf("leaf %d flags differ", i)
		}
		if len(w.Polygon) != len(g.Polygon) {
			t.Fatalf("leaf %d has %d vertices, want %d", i, len(g.Polygon), len(w.Polygon))
		}
		for j := range w.Polygon {
			if w.Polygon[j] != g.Polygon[j] {
				t.Errorf("leaf %d vertex %d = %v, want %v", i, j, g.Polygon[j], w.Polygon[j])
			}
		}
		if len(w.Objects) != len(g.Objects) || len(w.Bubbles) != len(g.Bubbles) {
			t.Errorf("leaf %d contents differ", i)
		}
	}
}

func TestRoundTripContents(t *testing.T) {
	pg := samplePage(t, 3)
	data, err := Marshal(pg)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	o := back.Leaves()[0].Objects[0]
	if o.Image != "fg/1.png" || o.ResizeTo != 9000.25 || o.CompositeLocation != image.Pt(20, 0) {
		t.Errorf("object = %+v", o)
	}
	b := o.Bubbles[0]
	if b.Orientation != panel.TopRight || b.Meta.StretchX != 0.125 || b.Meta.Rotation != 7 ||
		b.Texts[0]["Japanese"] != "ne" || b.TextIndices[0] != 4 || b.WritingAreas[0].OriginalHeight != 120 {
		t.Errorf("bubble = %+v", b)
	}
	if b.Transforms[0] != panel.TransformStretchX || b.Transforms[1] != panel.TransformRotate {
		t.Errorf("transform order = %v", b.Transforms)
	}

	orig := pg.Leaves()[0]
	if !reflect.DeepEqual(back.Leaves()[0].Objects[0].Bubbles[0], orig.Objects[0].Bubbles[0]) {
		t.Errorf("object bubble = %+v, want %+v", back.Leaves()[0].Objects[0].Bubbles[0], orig.Objects[0].Bubbles[0])
	}
	// texts are written as [] but come back nil
	plain := back.Leaves()[0].Bubbles[0]
	if plain.Texts != nil || plain.TextIndices != nil {
		t.Errorf("bare bubble texts = %#v, indices = %#v, want nil", plain.Texts, plain.TextIndices)
	}
	if !reflect.DeepEqual(plain, orig.Bubbles[0]) {
		t.Errorf("bare bubble = %+v, want %+v", plain, orig.Bubbles[0])
	}
}

func TestWriteJSONKeys(t *testing.T) {
	pg := panel.NewPage("page", 100, 50)
	if _, err := layout.SplitEqual(pg, 0, 2, panel.Vertical); err != nil {
		t.Fatal(err)
	}
	pg.NumPanels = 2
	pg.Type = panel.PageVertical

	data, err := Marshal(pg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"name", "num_panels", "page_type", "page_size", "background",
		"children", "speech_bubbles", "transform_noise", "transform_rotation"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("page record has no %q", k)
		}
	}
	child := raw["children"].([]any)[0].(map[string]any)
	coords := child["coordinates"].([]any)
	if len(coords) != 5 {
		t.Fatalf("coordinates have %d points, want 5 (closed)", len(coords))
	}
	if first, last := coords[0].([]any), coords[4].([]any); first[0] != last[0] || first[1] != last[1] {
		t.Errorf("coordinates not closed: %v .. %v", first, last)
	}
	for _, k := range []string{"panel_objects", "speech_bubbles", "children"} {
		if v, ok := child[k].([]any); !ok || len(v) != 0 {
			t.Errorf("child %q = %v, want []", k, child[k])
		}
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", "{"},
		{"no size", `{"name": "p", "children": []}`},
		{"short polygon", `{"name": "p", "page_size": [10, 10], "children": [{"name": "a", "coordinates": [[0,0],[1,1]]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestReadJSONOpenCoordinates(t *testing.T) {
	in := `{"name": "p", "page_size": [10, 10], "children": [
		{"name": "p-0", "coordinates": [[0,0],[10,0],[10,10],[0,10]], "orientation": ""}]}`
	pg, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(pg.Leaves()[0].Polygon); n != 4 {
		t.Errorf("open polygon read with %d vertices, want 4", n)
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	pg := samplePage(t, 11)
	path, err := ExportJSON(pg, filepath.Join(dir, "metadata"))
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if filepath.Base(path) != pg.Name()+".json" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	back, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	comparePages(t, pg, back)
}
