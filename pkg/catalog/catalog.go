package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Bubble is one speech bubble template.
type Bubble struct {
	Path         string
	WritingAreas []panel.WritingArea
	Orientation  panel.BubbleOrientation
}

// Catalog holds the read-only inputs shared by every page of a run.
type Catalog struct {
	Backgrounds []string
	Foregrounds []string
	Fonts       []string
	Texts       []panel.TextRecord
	Bubbles     []Bubble
}

// Load reads every catalogue named in cfg and validates the result.
func Load(cfg config.CatalogConfig) (*Catalog, error) {
	var (
		cat Catalog
		err error
	)
	if cat.Backgrounds, err = ListDir(cfg.Backgrounds); err != nil {
		return nil, err
	}
	if cat.Foregrounds, err = ListDir(cfg.Foregrounds); err != nil {
		return nil, err
	}
	if cat.Texts, err = ReadTextsFile(cfg.Texts); err != nil {
		return nil, err
	}
	if cat.Bubbles, err = ReadBubblesFile(cfg.Bubbles); err != nil {
		return nil, err
	}
	if cat.Fonts, err = ReadFontsFile(cfg.Fonts); err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate fails with CATALOGUE_EMPTY when a list that page generation
// draws from is empty.
func (c *Catalog) Validate() error {
	for _, l := range []struct {
		name string
		n    int
	}{
		{"backgrounds", len(c.Backgrounds)},
		{"foregrounds", len(c.Foregrounds)},
		{"fonts", len(c.Fonts)},
		{"texts", len(c.Texts)},
		{"speech bubbles", len(c.Bubbles)},
	} {
		if l.n == 0 {
			return errors.New(errors.ErrCodeCatalogueEmpty, "no %s in catalogue", l.name)
		}
	}
	return nil
}

// Oriented returns the bubbles whose tail points from a corner.
func (c *Catalog) Oriented() []Bubble {
	return c.filter(func(b Bubble) bool { return b.Orientation != panel.Unoriented })
}

// Unoriented returns the bubbles without a tail orientation.
func (c *Catalog) Unoriented() []Bubble {
	return c.filter(func(b Bubble) bool { return b.Orientation == panel.Unoriented })
}

func (c *Catalog) filter(keep func(Bubble) bool) []Bubble {
	var out []Bubble
	for _, b := range c.Bubbles {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// ListDir returns the paths of the regular, non-hidden files in dir, sorted
// by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeCatalogueEmpty, err, "catalogue directory %s", dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogueInvalid, err, "read catalogue directory %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
