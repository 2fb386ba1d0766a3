package panel

import (
	"image"
	"math"
)

// Transform is a presentation transform applied to artwork at render time.
type Transform string

const (
	TransformRotate         Transform = "rotate"
	TransformStretchX       Transform = "stretch x"
	TransformStretchY       Transform = "stretch y"
	TransformFlipHorizontal Transform = "flip horizontal"
	TransformFlipVertical   Transform = "flip vertical"
	TransformInvert         Transform = "invert"
)

// TransformMetadata holds the numeric parameters of the chosen transforms.
// Zero means the transform was not chosen.
type TransformMetadata struct {
	Rotation float64
	StretchX float64
	StretchY float64
}

// Has reports whether t is in ts.
func Has(ts []Transform, t Transform) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// BubbleOrientation is the corner a speech bubble's tail points from.
type BubbleOrientation string

const (
	Unoriented  BubbleOrientation = ""
	TopLeft     BubbleOrientation = "tl"
	TopRight    BubbleOrientation = "tr"
	BottomLeft  BubbleOrientation = "bl"
	BottomRight BubbleOrientation = "br"
)

// WritingArea is a text rectangle inside a bubble template. X, Y, Width and
// Height are percentages of the original template size.
type WritingArea struct {
	X              float64
	Y              float64
	Width          float64
	Height         float64
	OriginalWidth  float64
	OriginalHeight float64
}

// TextRecord is one row of the text corpus, keyed by column name.
type TextRecord map[string]string

// SpeechBubble is a text-bearing template placed in a panel or attached to a
// PlacedObject.
type SpeechBubble struct {
	Template     string
	Width        int // template pixel width
	Height       int // template pixel height
	WritingAreas []WritingArea
	Orientation  BubbleOrientation

	Texts           []TextRecord
	TextIndices     []int
	Font            string
	FontSize        int
	TextOrientation string

	ResizeTo     float64     // target area in pixels
	Location     image.Point // centre, in host coordinates
	ParentCenter image.Point // centre of the host the tail points towards

	Transforms []Transform
	Meta       TransformMetadata
}

// Resized returns the pixel size the bubble is rendered at.
func (b *SpeechBubble) Resized() (w, h int) {
	return resized(b.Width, b.Height, b.ResizeTo, b.Meta)
}

// Box returns the rendered rectangle centred on Location.
func (b *SpeechBubble) Box() image.Rectangle {
	w, h := b.Resized()
	return centred(b.Location, w, h)
}

// PlacedObject is a character or other foreground artwork in a leaf panel.
type PlacedObject struct {
	Image string

	// Width and Height are the composite canvas size; they start as the
	// artwork size and grow when a bubble is attached.
	Width  int
	Height int

	ResizeTo          float64     // target area of the composite in pixels
	Location          image.Point // centre, in page coordinates
	CompositeLocation image.Point // artwork offset inside the composite
	PanelCenter       image.Point

	Transforms []Transform
	Meta       TransformMetadata

	Bubbles []*SpeechBubble
}

// Resized returns the pixel size the composite is rendered at.
func (o *PlacedObject) Resized() (w, h int) {
	return resized(o.Width, o.Height, o.ResizeTo, o.Meta)
}

// Box returns the rendered rectangle centred on Location.
func (o *PlacedObject) Box() image.Rectangle {
	w, h := o.Resized()
	return centred(o.Location, w, h)
}

// Area returns the unscaled composite area.
func (o *PlacedObject) Area() float64 {
	return float64(o.Width) * float64(o.Height)
}

// Center returns the centre of the composite canvas.
func (o *PlacedObject) Center() image.Point {
	return image.Pt(o.Width/2, o.Height/2)
}

// PageBox maps a rectangle in the composite canvas onto the page, where the
// composite is drawn scaled into Box.
func (o *PlacedObject) PageBox(r image.Rectangle) image.Rectangle {
	if o.Width == 0 || o.Height == 0 {
		return image.Rectangle{}
	}
	box := o.Box()
	sx := float64(box.Dx()) / float64(o.Width)
	sy := float64(box.Dy()) / float64(o.Height)
	conv := func(p image.Point) image.Point {
		return image.Pt(
			box.Min.X+int(math.Round(float64(p.X)*sx)),
			box.Min.Y+int(math.Round(float64(p.Y)*sy)),
		)
	}
	return image.Rectangle{Min: conv(r.Min), Max: conv(r.Max)}
}

// Attach adds b to the object and grows the composite canvas so that the
// circle circumscribing the resized bubble fits inside it. Growing to the left
// or top shifts the artwork, the bubble and the tail target by the same
// amount.
func (o *PlacedObject) Attach(b *SpeechBubble) {
	w, h := b.Resized()
	r := int(math.Ceil(math.Hypot(float64(w), float64(h)))) / 2

	if dx := r - b.Location.X; dx > 0 {
		o.Width += dx
		o.CompositeLocation.X += dx
		b.Location.X += dx
		b.ParentCenter.X += dx
	}
	if over := b.Location.X + r - o.Width; over > 0 {
		o.Width += over
	}
	if dy := r - b.Location.Y; dy > 0 {
		o.Height += dy
		o.CompositeLocation.Y += dy
		b.Location.Y += dy
		b.ParentCenter.Y += dy
	}
	if over := b.Location.Y + r - o.Height; over > 0 {
		o.Height += over
	}
	o.Bubbles = append(o.Bubbles, b)
}

// resized keeps the stretched aspect ratio of a w×h image and scales it to
// the target area.
func resized(w, h int, area float64, m TransformMetadata) (int, int) {
	sw := math.Round(float64(w) * (1 + m.StretchX))
	sh := math.Round(float64(h) * (1 + m.StretchY))
	if sw <= 0 || sh <= 0 || area <= 0 {
		return 0, 0
	}
	aspect := sw / sh
	nh := math.Round(math.Sqrt(area / aspect))
	nw := math.Round(nh * aspect)
	return int(nw), int(nh)
}

func centred(c image.Point, w, h int) image.Rectangle {
	min := image.Pt(c.X-w/2, c.Y-h/2)
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))}
}
