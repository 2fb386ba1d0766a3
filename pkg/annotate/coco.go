// Package annotate builds COCO-style annotation documents for generated
// pages.
//
// Every rendered leaf panel becomes a "panel" annotation with its outline
// as the segmentation; circular panels use the inscribed ellipse. Speech
// bubbles and objects become "speech_bubble" and "character" annotations
// with bounding boxes only. Boxes are clipped to the page. Page rotation is
// not applied: annotations describe the unrotated page.
package annotate

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Category IDs.
const (
	CategoryPanel        = 1
	CategorySpeechBubble = 2
	CategoryCharacter    = 3
)

// ImageExt is appended to page names to form image file names.
const ImageExt = ".png"

// Info describes the dataset.
type Info struct {
	Year        int     `json:"year"`
	Version     float64 `json:"version"`
	Description string  `json:"description"`
	Contributor string  `json:"contributor"`
	URL         string  `json:"url"`
	DateCreated string  `json:"date_created"`
}

// Category is one annotation class.
type Category struct {
	Supercategory string `json:"supercategory"`
	ID            int    `json:"id"`
	Name          string `json:"name"`
}

// Image is one page.
type Image struct {
	ID       int     `json:"id"`
	FileName string  `json:"file_name"`
	License  *string `json:"license"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Annotation is one instance on a page. BBox is [x, y, width, height].
type Annotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	Segmentation [][]float64 `json:"segmentation,omitempty"`
	Area         float64     `json:"area"`
	BBox         [4]float64  `json:"bbox"`
	IsCrowd      int         `json:"iscrowd"`
}

// Document is a complete annotation file.
type Document struct {
	Info        Info         `json:"info"`
	Licenses    []any        `json:"licenses"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// Categories returns the fixed category list.
func Categories() []Category {
	return []Category{
		{Supercategory: "comic", ID: CategoryPanel, Name: "panel"},
		{Supercategory: "comic", ID: CategorySpeechBubble, Name: "speech_bubble"},
		{Supercategory: "comic", ID: CategoryCharacter, Name: "character"},
	}
}

// Builder accumulates pages into a Document. Image and annotation IDs
// start at 1 and increase in the order pages and items are added.
type Builder struct {
	doc    Document
	nextID int
}

// NewBuilder starts a document created at now.
func NewBuilder(now time.Time) *Builder {
	return &Builder{
		doc: Document{
			Info: Info{
				Year:        now.Year(),
				Version:     1.0,
				Description: "Artificial comics and manga dataset.",
				DateCreated: now.Format(time.DateTime),
			},
			Licenses:    []any{},
			Images:      []Image{},
			Annotations: []Annotation{},
			Categories:  Categories(),
		},
		nextID: 1,
	}
}

// Add appends pg as the next image and returns its image ID.
func (b *Builder) Add(pg *panel.Page) int {
	imageID := len(b.doc.Images) + 1
	b.doc.Images = append(b.doc.Images, Image{
		ID:       imageID,
		FileName: pg.Name() + ImageExt,
		Width:    pg.Width,
		Height:   pg.Height,
	})
	page := image.Rect(0, 0, pg.Width, pg.Height)

	for _, p := range pg.Leaves() {
		outline := p.Outline()
		seg := make([]float64, 0, 2*len(outline))
		for _, pt := range outline {
			seg = append(seg, pt.X, pt.Y)
		}
		bounds := outline.Bounds()
		b.add(Annotation{
			ImageID:      imageID,
			CategoryID:   CategoryPanel,
			Segmentation: [][]float64{seg},
			Area:         outline.Area(),
			BBox:         [4]float64{bounds.Min.X, bounds.Min.Y, bounds.Width(), bounds.Height()},
		})

		for _, o := range p.Objects {
			b.addBox(imageID, CategoryCharacter, o.Box().Intersect(page))
			for _, sb := range o.Bubbles {
				b.addBox(imageID, CategorySpeechBubble, o.PageBox(sb.Box()).Intersect(page))
			}
		}
		for _, sb := range p.Bubbles {
			b.addBox(imageID, CategorySpeechBubble, sb.Box().Intersect(page))
		}
	}
	for _, sb := range pg.Bubbles {
		b.addBox(imageID, CategorySpeechBubble, sb.Box().Intersect(page))
	}
	return imageID
}

// Document returns the accumulated document.
func (b *Builder) Document() *Document {
	return &b.doc
}

func (b *Builder) add(a Annotation) {
	a.ID = b.nextID
	b.nextID++
	b.doc.Annotations = append(b.doc.Annotations, a)
}

func (b *Builder) addBox(imageID, category int, r image.Rectangle) {
	if r.Empty() {
		return
	}
	b.add(Annotation{
		ImageID:    imageID,
		CategoryID: category,
		Area:       float64(r.Dx() * r.Dy()),
		BBox:       [4]float64{float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())},
	})
}

// Build returns a document covering pages in order.
func Build(pages []*panel.Page, now time.Time) *Document {
	b := NewBuilder(now)
	for _, pg := range pages {
		b.Add(pg)
	}
	return b.Document()
}

// Write encodes doc as JSON to w.
func Write(doc *Document, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	return nil
}
