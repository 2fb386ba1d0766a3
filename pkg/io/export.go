package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

type page struct {
	Name        string      `json:"name"`
	NumPanels   int         `json:"num_panels"`
	PageType    string      `json:"page_type"`
	PageSize    [2]int      `json:"page_size"`
	Orientation string      `json:"orientation,omitempty"`
	Background  string      `json:"background"`
	Children    []panelRec  `json:"children"`
	Bubbles     []bubbleRec `json:"speech_bubbles"`
	Noise       int         `json:"transform_noise"`
	Rotation    int         `json:"transform_rotation"`
}

type panelRec struct {
	Name        string       `json:"name"`
	Coordinates [][2]float64 `json:"coordinates"`
	Orientation string       `json:"orientation"`
	Children    []panelRec   `json:"children"`
	NonRect     bool         `json:"non_rect"`
	Circular    bool         `json:"circular"`
	Sliced      bool         `json:"sliced"`
	NoRender    bool         `json:"no_render"`
	Image       string       `json:"image"`
	Bubbles     []bubbleRec  `json:"speech_bubbles"`
	Objects     []objectRec  `json:"panel_objects"`
}

type bubbleRec struct {
	Texts           []panel.TextRecord `json:"texts"`
	TextIndices     []int              `json:"text_indices"`
	Font            string             `json:"font"`
	FontSize        int                `json:"font_size"`
	Template        string             `json:"speech_bubble"`
	WritingAreas    []writingArea      `json:"writing_areas"`
	ResizeTo        float64            `json:"resize_to"`
	Location        [2]int             `json:"location"`
	ParentCenter    [2]int             `json:"parent_center_coords"`
	Width           int                `json:"width"`
	Height          int                `json:"height"`
	Orientation     string             `json:"orientation"`
	Transforms      []string           `json:"transforms"`
	Meta            transformMeta      `json:"transform_metadata"`
	TextOrientation string             `json:"text_orientation"`
}

type objectRec struct {
	Image             string        `json:"object_image"`
	ResizeTo          float64       `json:"resize_to"`
	Location          [2]int        `json:"location"`
	CompositeLocation [2]int        `json:"composite_location"`
	PanelCenter       [2]int        `json:"panel_center_coords"`
	Width             int           `json:"width"`
	Height            int           `json:"height"`
	Transforms        []string      `json:"transforms"`
	Meta              transformMeta `json:"transform_metadata"`
	Bubbles           []bubbleRec   `json:"speech_bubbles"`
}

type writingArea struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	OriginalWidth  float64 `json:"original_width"`
	OriginalHeight float64 `json:"original_height"`
}

type transformMeta struct {
	Rotation float64 `json:"rotation_amount,omitempty"`
	StretchX float64 `json:"stretch_x_factor,omitempty"`
	StretchY float64 `json:"stretch_y_factor,omitempty"`
}

// WriteJSON encodes a page record and writes it to w. Suppressed panels are
// kept and flagged no_render; polygons are written closed. The output can be
// read back with [ReadJSON].
func WriteJSON(pg *panel.Page, w io.Writer) error {
	root := pg.Root()
	out := page{
		Name:        pg.Name(),
		NumPanels:   pg.NumPanels,
		PageType:    string(pg.Type),
		PageSize:    [2]int{pg.Width, pg.Height},
		Orientation: string(root.Orientation),
		Background:  pg.Background,
		Children:    encodeChildren(pg, root),
		Bubbles:     encodeBubbles(pg.Bubbles),
		Noise:       pg.Noise,
		Rotation:    pg.Rotation,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a page record to <dir>/<name>.json and returns the path.
func ExportJSON(pg *panel.Page, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, pg.Name()+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return path, WriteJSON(pg, f)
}

// Marshal returns the encoded page record.
func Marshal(pg *panel.Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(pg, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeChildren(pg *panel.Page, p *panel.Panel) []panelRec {
	out := make([]panelRec, 0, len(p.Children))
	for _, c := range pg.Children(p.ID) {
		out = append(out, panelRec{
			Name:        c.Name,
			Coordinates: encodePolygon(c.Polygon),
			Orientation: string(c.Orientation),
			Children:    encodeChildren(pg, c),
			NonRect:     c.NonRect,
			Circular:    c.Circular,
			Sliced:      c.Sliced,
			NoRender:    c.Suppressed,
			Image:       c.Background,
			Bubbles:     encodeBubbles(c.Bubbles),
			Objects:     encodeObjects(c.Objects),
		})
	}
	return out
}

func encodePolygon(p geom.Polygon) [][2]float64 {
	closed := p.Closed()
	out := make([][2]float64, len(closed))
	for i, pt := range closed {
		out[i] = [2]float64{pt.X, pt.Y}
	}
	return out
}

func encodeBubbles(bs []*panel.SpeechBubble) []bubbleRec {
	out := make([]bubbleRec, 0, len(bs))
	for _, b := range bs {
		rec := bubbleRec{
			Texts:           b.Texts,
			TextIndices:     b.TextIndices,
			Font:            b.Font,
			FontSize:        b.FontSize,
			Template:        b.Template,
			WritingAreas:    make([]writingArea, len(b.WritingAreas)),
			ResizeTo:        b.ResizeTo,
			Location:        [2]int{b.Location.X, b.Location.Y},
			ParentCenter:    [2]int{b.ParentCenter.X, b.ParentCenter.Y},
			Width:           b.Width,
			Height:          b.Height,
			Orientation:     string(b.Orientation),
			Transforms:      encodeTransforms(b.Transforms),
			Meta:            transformMeta(b.Meta),
			TextOrientation: b.TextOrientation,
		}
		for i, a := range b.WritingAreas {
			rec.WritingAreas[i] = writingArea(a)
		}
		if rec.Texts == nil {
			rec.Texts = []panel.TextRecord{}
		}
		if rec.TextIndices == nil {
			rec.TextIndices = []int{}
		}
		out = append(out, rec)
	}
	return out
}

func encodeObjects(objs []*panel.PlacedObject) []objectRec {
	out := make([]objectRec, 0, len(objs))
	for _, o := range objs {
		out = append(out, objectRec{
			Image:             o.Image,
			ResizeTo:          o.ResizeTo,
			Location:          [2]int{o.Location.X, o.Location.Y},
			CompositeLocation: [2]int{o.CompositeLocation.X, o.CompositeLocation.Y},
			PanelCenter:       [2]int{o.PanelCenter.X, o.PanelCenter.Y},
			Width:             o.Width,
			Height:            o.Height,
			Transforms:        encodeTransforms(o.Transforms),
			Meta:              transformMeta(o.Meta),
			Bubbles:           encodeBubbles(o.Bubbles),
		})
	}
	return out
}

func encodeTransforms(ts []panel.Transform) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
