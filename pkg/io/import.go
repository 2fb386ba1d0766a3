package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// ReadJSON decodes a page record from r, as written by [WriteJSON].
//
// Panel coordinates may be closed or open; a repeated first vertex is
// dropped. Panel names, flags, objects and bubbles are restored in order.
// ReadJSON fails with INVALID_FORMAT when the record is malformed or a panel
// has fewer than three vertices. It does not close r.
func ReadJSON(r io.Reader) (*panel.Page, error) {
	var data page
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode page")
	}
	if data.PageSize[0] <= 0 || data.PageSize[1] <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "page %q has size %v", data.Name, data.PageSize)
	}

	pg := panel.NewPage(data.Name, data.PageSize[0], data.PageSize[1])
	pg.NumPanels = data.NumPanels
	pg.Type = panel.PageType(data.PageType)
	pg.Background = data.Background
	pg.Noise = data.Noise
	pg.Rotation = data.Rotation
	pg.Bubbles = decodeBubbles(data.Bubbles)
	pg.Root().Orientation = panel.Orientation(data.Orientation)

	if err := decodeChildren(pg, pg.Root().ID, data.Children); err != nil {
		return nil, err
	}
	return pg, nil
}

// ImportJSON reads a page record from the file at path.
func ImportJSON(path string) (*panel.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Unmarshal decodes an encoded page record.
func Unmarshal(data []byte) (*panel.Page, error) {
	return ReadJSON(bytes.NewReader(data))
}

func decodeChildren(pg *panel.Page, parent panel.ID, recs []panelRec) error {
	for _, rec := range recs {
		poly := decodePolygon(rec.Coordinates)
		if len(poly) < 3 {
			return errors.New(errors.ErrCodeInvalidFormat, "panel %q has %d vertices", rec.Name, len(poly))
		}
		p, err := pg.AddChild(parent, poly)
		if err != nil {
			return err
		}
		p.Name = rec.Name
		p.Orientation = panel.Orientation(rec.Orientation)
		p.NonRect = rec.NonRect
		p.Circular = rec.Circular
		p.Sliced = rec.Sliced
		p.Suppressed = rec.NoRender
		p.Background = rec.Image
		p.Bubbles = decodeBubbles(rec.Bubbles)
		p.Objects = decodeObjects(rec.Objects)
		if err := decodeChildren(pg, p.ID, rec.Children); err != nil {
			return err
		}
	}
	return nil
}

func decodePolygon(coords [][2]float64) geom.Polygon {
	pts := make([]geom.Point, len(coords))
	for i, c := range coords {
		pts[i] = geom.Pt(c[0], c[1])
	}
	return geom.Open(pts)
}

func decodeBubbles(recs []bubbleRec) []*panel.SpeechBubble {
	if len(recs) == 0 {
		return nil
	}
	out := make([]*panel.SpeechBubble, 0, len(recs))
	for _, rec := range recs {
		b := &panel.SpeechBubble{
			Template:        rec.Template,
			Width:           rec.Width,
			Height:          rec.Height,
			Orientation:     panel.BubbleOrientation(rec.Orientation),
			Texts:           nilIfEmpty(rec.Texts),
			TextIndices:     nilIfEmpty(rec.TextIndices),
			Font:            rec.Font,
			FontSize:        rec.FontSize,
			TextOrientation: rec.TextOrientation,
			ResizeTo:        rec.ResizeTo,
			Location:        point(rec.Location),
			ParentCenter:    point(rec.ParentCenter),
			Transforms:      decodeTransforms(rec.Transforms),
			Meta:            panel.TransformMetadata(rec.Meta),
		}
		for _, a := range rec.WritingAreas {
			b.WritingAreas = append(b.WritingAreas, panel.WritingArea(a))
		}
		out = append(out, b)
	}
	return out
}

func decodeObjects(recs []objectRec) []*panel.PlacedObject {
	if len(recs) == 0 {
		return nil
	}
	out := make([]*panel.PlacedObject, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &panel.PlacedObject{
			Image:             rec.Image,
			Width:             rec.Width,
			Height:            rec.Height,
			ResizeTo:          rec.ResizeTo,
			Location:          point(rec.Location),
			CompositeLocation: point(rec.CompositeLocation),
			PanelCenter:       point(rec.PanelCenter),
			Transforms:        decodeTransforms(rec.Transforms),
			Meta:              panel.TransformMetadata(rec.Meta),
			Bubbles:           decodeBubbles(rec.Bubbles),
		})
	}
	return out
}

func decodeTransforms(ts []string) []panel.Transform {
	if len(ts) == 0 {
		return nil
	}
	out := make([]panel.Transform, len(ts))
	for i, t := range ts {
		out[i] = panel.Transform(t)
	}
	return out
}

// nilIfEmpty undoes the encoder writing nil slices as [].
func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func point(p [2]int) image.Point {
	return image.Pt(p[0], p[1])
}
