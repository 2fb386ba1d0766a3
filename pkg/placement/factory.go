package placement

import (
	"context"
	"image"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/mangalayout/pkg/catalog"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/geom"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// TextOrientation is written on every bubble.
const TextOrientation = "ltr"

// Sizer reports the pixel size of an image file.
type Sizer interface {
	Size(ctx context.Context, path string) (width, height int, err error)
}

// BubbleFactory builds speech bubbles from the catalogue.
type BubbleFactory struct {
	cfg   *config.PlacementConfig
	cat   *catalog.Catalog
	sizer Sizer
}

// NewBubbleFactory returns a factory drawing from cat.
func NewBubbleFactory(cfg *config.PlacementConfig, cat *catalog.Catalog, sizer Sizer) *BubbleFactory {
	return &BubbleFactory{cfg: cfg, cat: cat, sizer: sizer}
}

// New draws a font, a template from pool (or from every bubble when pool is
// empty), one text per writing area, the presentation transforms and a font
// size. Size and location are left to the caller.
func (f *BubbleFactory) New(ctx context.Context, rng *rand.Rand, pool []catalog.Bubble) (*panel.SpeechBubble, error) {
	if len(pool) == 0 {
		pool = f.cat.Bubbles
	}
	if len(pool) == 0 || len(f.cat.Fonts) == 0 {
		return nil, errors.New(errors.ErrCodeCatalogueEmpty, "no speech bubbles or fonts to draw from")
	}
	font := f.cat.Fonts[rng.IntN(len(f.cat.Fonts))]
	tmpl := pool[rng.IntN(len(pool))]

	w, h, err := f.sizer.Size(ctx, tmpl.Path)
	if err != nil {
		return nil, err
	}

	b := &panel.SpeechBubble{
		Template:     tmpl.Path,
		Width:        w,
		Height:       h,
		WritingAreas: tmpl.WritingAreas,
		Orientation:  tmpl.Orientation,
		Font:         font,
	}
	if len(f.cat.Texts) > 0 {
		for range tmpl.WritingAreas {
			i := rng.IntN(len(f.cat.Texts))
			b.TextIndices = append(b.TextIndices, i)
			b.Texts = append(b.Texts, f.cat.Texts[i])
		}
	}
	b.Transforms, b.Meta = f.transforms(rng, tmpl.Orientation == panel.Unoriented)
	b.TextOrientation = TextOrientation
	b.FontSize = randInt(rng, f.cfg.FontSizeMin, f.cfg.FontSizeMax)
	return b, nil
}

// ForPanel builds an unoriented bubble sized relative to the panel's area
// and centred on a point of region.
func (f *BubbleFactory) ForPanel(ctx context.Context, rng *rand.Rand, p *panel.Panel, region *geom.Region) (*panel.SpeechBubble, error) {
	b, err := f.New(ctx, rng, f.cat.Unoriented())
	if err != nil {
		return nil, err
	}
	b.ResizeTo = p.Area() * uniform(rng, f.cfg.BubblePanelMin, f.cfg.BubblePanelMax)
	x, y, err := region.Sample(rng)
	if err != nil {
		return nil, err
	}
	b.Location = image.Pt(x, y)
	b.ParentCenter = roundPt(p.Center())
	return b, nil
}

// ForObject builds an oriented bubble sized relative to the object's
// artwork and placed near its left or right edge, in the object's own
// coordinates, with its tail aimed at the artwork's centre.
func (f *BubbleFactory) ForObject(ctx context.Context, rng *rand.Rand, o *panel.PlacedObject) (*panel.SpeechBubble, error) {
	b, err := f.New(ctx, rng, f.cat.Oriented())
	if err != nil {
		return nil, err
	}
	b.ParentCenter = o.Center()
	b.ResizeTo = o.Area() * uniform(rng, f.cfg.BubbleObjectMin, f.cfg.BubbleObjectMax)

	w, h := o.Width, o.Height
	x := rng.IntN(max(w/5, 1))
	if rng.Float64() < 0.5 {
		x = 4*w/5 + rng.IntN(max(w-4*w/5, 1))
	}
	b.Location = image.Pt(x, rng.IntN(max(h, 1)))
	return b, nil
}

func (f *BubbleFactory) transforms(rng *rand.Rand, unoriented bool) ([]panel.Transform, panel.TransformMetadata) {
	var (
		ts   []panel.Transform
		meta panel.TransformMetadata
	)
	if rng.Float64() < f.cfg.BubbleTransformChance {
		pool := []panel.Transform{panel.TransformRotate, panel.TransformStretchX, panel.TransformStretchY}
		if unoriented {
			// flipping would point an oriented tail at the wrong corner
			pool = append(pool, panel.TransformFlipHorizontal, panel.TransformFlipVertical)
		}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		ts = append(ts, pool[:2]...)
	}
	if rng.Float64() < f.cfg.InvertChance {
		ts = append(ts, panel.TransformInvert)
	}
	for _, t := range ts {
		switch t {
		case panel.TransformRotate:
			meta.Rotation = float64(randInt(rng, int(f.cfg.RotationMin), int(f.cfg.RotationMax)))
		case panel.TransformStretchX:
			meta.StretchX = rng.Float64() * f.cfg.StretchMax
		case panel.TransformStretchY:
			meta.StretchY = rng.Float64() * f.cfg.StretchMax
		}
	}
	return ts, meta
}

// ObjectFactory builds foreground objects from the catalogue.
type ObjectFactory struct {
	cfg     *config.PlacementConfig
	cat     *catalog.Catalog
	sizer   Sizer
	bubbles *BubbleFactory
}

// NewObjectFactory returns a factory drawing artwork from cat and attaching
// bubbles from bubbles.
func NewObjectFactory(cfg *config.PlacementConfig, cat *catalog.Catalog, sizer Sizer, bubbles *BubbleFactory) *ObjectFactory {
	return &ObjectFactory{cfg: cfg, cat: cat, sizer: sizer, bubbles: bubbles}
}

// New draws an object for p. Its target area lies between
// (1-ObjectAreaSpread) and 1 times ObjectPanelMaxRatio of the panel's area,
// and it is centred on a point of region. With ObjectBubbleChance it gets
// one attached bubble.
func (f *ObjectFactory) New(ctx context.Context, rng *rand.Rand, p *panel.Panel, region *geom.Region) (*panel.PlacedObject, error) {
	if len(f.cat.Foregrounds) == 0 {
		return nil, errors.New(errors.ErrCodeCatalogueEmpty, "no foregrounds to draw from")
	}
	img := f.cat.Foregrounds[rng.IntN(len(f.cat.Foregrounds))]
	w, h, err := f.sizer.Size(ctx, img)
	if err != nil {
		return nil, err
	}

	o := &panel.PlacedObject{
		Image:       img,
		Width:       w,
		Height:      h,
		PanelCenter: roundPt(p.Center()),
	}
	if rng.Float64() < f.cfg.ObjectTransformChance {
		o.Transforms = []panel.Transform{panel.TransformFlipVertical, panel.TransformRotate}
		rng.Shuffle(2, func(i, j int) { o.Transforms[i], o.Transforms[j] = o.Transforms[j], o.Transforms[i] })
		o.Meta.Rotation = float64(randInt(rng, int(f.cfg.RotationMin), int(f.cfg.RotationMax)))
	}

	limit := p.Area() * f.cfg.ObjectPanelMaxRatio
	o.ResizeTo = limit - rng.Float64()*(limit*f.cfg.ObjectAreaSpread)

	x, y, err := region.Sample(rng)
	if err != nil {
		return nil, err
	}
	o.Location = image.Pt(x, y)

	if rng.Float64() < f.cfg.ObjectBubbleChance {
		b, err := f.bubbles.ForObject(ctx, rng, o)
		if err != nil {
			return nil, err
		}
		o.Attach(b)
	}
	return o, nil
}

// randInt returns an integer in [lo, hi), or lo when the range is empty.
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func roundPt(p geom.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
