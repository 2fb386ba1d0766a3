// Package preview draws wireframe PNGs of generated pages.
//
// A preview shows the page background colour, every leaf outline (circular
// panels as their ellipse), character boxes in blue and speech bubble boxes
// in red. Suppressed panels are hatched grey. Artwork is not composited;
// panels with a background image are tinted instead.
//
//	img, err := preview.Render(page, preview.Options{Scale: 0.5, Labels: true})
//
// [PNG] and [WritePNG] encode the same image.
package preview

import (
	"bytes"
	"image"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// DefaultScale is the preview size relative to the page.
const DefaultScale = 0.5

// Options configures a preview.
type Options struct {
	// Scale multiplies the page size. Zero uses DefaultScale.
	Scale float64
	// Labels writes panel names at panel centres.
	Labels bool
	// Rotate applies the page rotation.
	Rotate bool
}

const (
	paperColor     = "#f4f1ea"
	panelColor     = "#ffffff"
	tintColor      = "#fff6d5"
	suppressColor  = "#d9d9d9"
	outlineColor   = "#202020"
	objectColor    = "#1f5fbf"
	bubbleColor    = "#c62828"
	hatchSpacing   = 8.0
	labelPointSize = 11
)

var (
	faceOnce sync.Once
	face     font.Face
)

// labelFace returns Go Regular, or the fixed 7x13 face if it cannot be
// loaded.
func labelFace() font.Face {
	faceOnce.Do(func() {
		face = basicfont.Face7x13
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		if fc, err := opentype.NewFace(f, &opentype.FaceOptions{Size: labelPointSize, DPI: 72, Hinting: font.HintingFull}); err == nil {
			face = fc
		}
	})
	return face
}

// Render draws pg.
func Render(pg *panel.Page, opts Options) (image.Image, error) {
	dc, err := draw(pg, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders pg and encodes it to w.
func WritePNG(w io.Writer, pg *panel.Page, opts Options) error {
	dc, err := draw(pg, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// PNG renders pg and returns the encoded image.
func PNG(pg *panel.Page, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, pg, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func draw(pg *panel.Page, opts Options) (*gg.Context, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale < 0 || scale > 4 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "preview scale %v", scale)
	}
	w, h := int(float64(pg.Width)*scale), int(float64(pg.Height)*scale)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "preview size %dx%d", w, h)
	}

	d := &drawer{dc: gg.NewContext(w, h), scale: scale}
	d.background(pg.Background)
	if opts.Rotate && pg.Rotation != 0 {
		d.dc.RotateAbout(gg.Radians(float64(pg.Rotation)), float64(w)/2, float64(h)/2)
	}

	for _, p := range pg.Panels() {
		if p.IsLeaf() {
			d.panel(p)
		}
	}
	for _, p := range pg.Leaves() {
		for _, o := range p.Objects {
			d.box(o.Box(), objectColor, false)
			for _, b := range o.Bubbles {
				d.box(o.PageBox(b.Box()), bubbleColor, true)
			}
		}
		for _, b := range p.Bubbles {
			d.box(b.Box(), bubbleColor, false)
		}
	}
	for _, b := range pg.Bubbles {
		d.box(b.Box(), bubbleColor, false)
	}

	if opts.Labels {
		d.dc.SetFontFace(labelFace())
		d.dc.SetHexColor(outlineColor)
		for _, p := range pg.Panels() {
			if p.IsLeaf() {
				c := p.Center()
				d.dc.DrawStringAnchored(p.Name, c.X*scale, c.Y*scale, 0.5, 0.5)
			}
		}
	}
	return d.dc, nil
}

type drawer struct {
	dc    *gg.Context
	scale float64
}

// background fills the page with its colour, or paper for image
// backgrounds.
func (d *drawer) background(bg string) {
	if errors.ValidateColor(bg) == nil {
		d.dc.SetHexColor(bg)
	} else {
		d.dc.SetHexColor(paperColor)
	}
	d.dc.Clear()
}

func (d *drawer) path(poly geom.Polygon) {
	d.dc.NewSubPath()
	for i, pt := range poly {
		if i == 0 {
			d.dc.MoveTo(pt.X*d.scale, pt.Y*d.scale)
		} else {
			d.dc.LineTo(pt.X*d.scale, pt.Y*d.scale)
		}
	}
	d.dc.ClosePath()
}

func (d *drawer) panel(p *panel.Panel) {
	outline := p.Outline()
	d.path(outline)

	switch {
	case p.Suppressed:
		d.dc.SetHexColor(suppressColor)
		d.dc.FillPreserve()
		d.dc.Clip()
		d.hatch(outline.Bounds())
		d.dc.ResetClip()

		d.path(outline)
		d.dc.SetDash(6, 4)
		d.dc.SetHexColor("#808080")
		d.dc.SetLineWidth(1)
		d.dc.Stroke()
		d.dc.SetDash()
		return
	case p.Background != "":
		d.dc.SetHexColor(tintColor)
	default:
		d.dc.SetHexColor(panelColor)
	}
	d.dc.FillPreserve()
	d.dc.SetHexColor(outlineColor)
	d.dc.SetLineWidth(2)
	d.dc.Stroke()
}

// hatch draws diagonal lines across r; the caller clips them.
func (d *drawer) hatch(r geom.Rect) {
	x0, y0 := r.Min.X*d.scale, r.Min.Y*d.scale
	w, h := r.Width()*d.scale, r.Height()*d.scale
	d.dc.SetHexColor("#a0a0a0")
	d.dc.SetLineWidth(1)
	for off := -h; off < w; off += hatchSpacing {
		d.dc.DrawLine(x0+off, y0+h, x0+off+h, y0)
	}
	d.dc.Stroke()
}

func (d *drawer) box(r image.Rectangle, color string, dashed bool) {
	if r.Empty() {
		return
	}
	s := d.scale
	d.dc.DrawRectangle(float64(r.Min.X)*s, float64(r.Min.Y)*s, float64(r.Dx())*s, float64(r.Dy())*s)
	if dashed {
		d.dc.SetDash(4, 3)
	}
	d.dc.SetHexColor(color)
	d.dc.SetLineWidth(1.5)
	d.dc.Stroke()
	d.dc.SetDash()
}
