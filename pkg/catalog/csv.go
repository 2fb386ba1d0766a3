package catalog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// TextColumn is the column every text corpus must carry.
const TextColumn = "English"

// ReadTextsFile reads a text corpus CSV from path.
func ReadTextsFile(path string) ([]panel.TextRecord, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadTexts(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "texts %s", path)
	}
	return recs, nil
}

// ReadTexts parses a text corpus: a header row naming the columns, one of
// which must be TextColumn, followed by one record per row.
func ReadTexts(r io.Reader) ([]panel.TextRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeCatalogueEmpty, "text corpus is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read header")
	}
	found := false
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		found = found || header[i] == TextColumn
	}
	if !found {
		return nil, errors.New(errors.ErrCodeCatalogueInvalid, "text corpus has no %q column", TextColumn)
	}

	var out []panel.TextRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read row %d", len(out)+1)
		}
		rec := make(panel.TextRecord, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadBubblesFile reads a speech bubble catalogue CSV from path.
func ReadBubblesFile(path string) ([]Bubble, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bs, err := ReadBubbles(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "speech bubbles %s", path)
	}
	return bs, nil
}

// writingArea is the JSON shape of one label entry.
type writingArea struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	OriginalWidth  float64 `json:"original_width"`
	OriginalHeight float64 `json:"original_height"`
}

// ReadBubbles parses a speech bubble catalogue with the columns imagename,
// label and orientation. label is a JSON list of writing areas; an empty
// orientation marks an unoriented bubble.
func ReadBubbles(r io.Reader) ([]Bubble, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeCatalogueEmpty, "speech bubble catalogue is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read header")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range []string{"imagename", "label"} {
		if _, ok := col[name]; !ok {
			return nil, errors.New(errors.ErrCodeCatalogueInvalid, "speech bubble catalogue has no %q column", name)
		}
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Bubble
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read line %d", line)
		}
		b := Bubble{Path: field(row, "imagename")}
		if b.Path == "" {
			return nil, errors.New(errors.ErrCodeCatalogueInvalid, "line %d: empty imagename", line)
		}

		var areas []writingArea
		if err := json.Unmarshal([]byte(field(row, "label")), &areas); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "line %d: label", line)
		}
		for _, a := range areas {
			b.WritingAreas = append(b.WritingAreas, panel.WritingArea(a))
		}

		switch o := panel.BubbleOrientation(field(row, "orientation")); o {
		case panel.Unoriented, panel.TopLeft, panel.TopRight, panel.BottomLeft, panel.BottomRight:
			b.Orientation = o
		default:
			return nil, errors.New(errors.ErrCodeCatalogueInvalid, "line %d: unknown orientation %q", line, o)
		}
		out = append(out, b)
	}
	return out, nil
}

// ReadFontsFile reads a font list CSV from path.
func ReadFontsFile(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fonts, err := ReadFonts(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "fonts %s", path)
	}
	return fonts, nil
}

// ReadFonts parses a headerless font list of path,flag rows and returns the
// paths whose flag is True.
func ReadFonts(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var out []string
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read line %d", line)
		}
		if len(row) < 2 {
			return nil, errors.New(errors.ErrCodeCatalogueInvalid, "line %d: want path,flag", line)
		}
		if strings.EqualFold(strings.TrimSpace(row[1]), "true") {
			out = append(out, strings.TrimSpace(row[0]))
		}
	}
	return out, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeResourceNotFound, err, "catalogue %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "open %s", path)
	}
	return f, nil
}
