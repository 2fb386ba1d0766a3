package layout

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Panel counts supported by single-orientation pages.
const (
	MinStrips = 3
	MaxStrips = 5
)

// Request selects what to generate. Zero values are drawn at random from
// the configured distributions.
type Request struct {
	Name   string
	Count  int
	Type   panel.PageType
	Recipe string
}

// Generator builds fresh panel trees.
type Generator struct {
	cfg    *config.GenerationConfig
	logger *log.Logger
}

// NewGenerator returns a generator bound to cfg. A nil logger uses the
// package default.
func NewGenerator(cfg *config.GenerationConfig, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate builds a page that satisfies the partition invariant. Draws
// happen in this order: count, page type, name, recipe, then the recipe's
// own splits. Single-orientation pages clamp the count to
// [MinStrips, MaxStrips]; counts above MaxRecipeCount always produce a
// mixed page.
func (g *Generator) Generate(rng *rand.Rand, req Request) (*panel.Page, error) {
	typ := req.Type
	if typ != "" && !typ.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown page type %q", typ)
	}

	// single-orientation pages draw their own strip count
	count, random := req.Count, false
	if count == 0 {
		if typ == panel.PageVertical || typ == panel.PageHorizontal {
			random = true
		} else {
			count = pickCount(rng, g.cfg.Layout.PanelCounts)
		}
	}
	if count < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "panel count %d", count)
	}

	switch {
	case count > MaxRecipeCount:
		typ = panel.PageMixed
	case typ == "":
		typ = pickType(rng, g.cfg.Layout.PageTypes)
	}

	name := req.Name
	if name == "" {
		name = NewName(rng)
	}

	recipe, err := g.recipe(rng, count, typ, random, req.Recipe)
	if err != nil {
		return nil, err
	}

	pg := panel.NewPage(name, g.cfg.Page.Width, g.cfg.Page.Height)
	pg.Type = typ
	pg.NumPanels = recipe.Panels()
	if err := build(pg, recipe, rng); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build %s layout", recipe.Tag())
	}
	if _, ok := recipe.(Grid); ok {
		pg.NumPanels = len(pg.Leaves())
	}

	g.logger.Debug("built layout", "page", name, "type", typ, "recipe", recipe.Tag(), "panels", pg.NumPanels)
	return pg, nil
}

func (g *Generator) recipe(rng *rand.Rand, count int, typ panel.PageType, random bool, tag string) (Recipe, error) {
	switch typ {
	case panel.PageVertical, panel.PageHorizontal:
		axis := panel.Vertical
		if typ == panel.PageHorizontal {
			axis = panel.Horizontal
		}
		switch {
		case random && typ == panel.PageVertical:
			count = MinStrips + rng.IntN(2)
		case random:
			count = MinStrips + rng.IntN(MaxStrips-MinStrips+1)
		default:
			count = max(MinStrips, min(count, MaxStrips))
		}
		return Strips{Name: string(typ), N: count, Axis: axis}, nil
	}

	if count > MaxRecipeCount {
		return Grid{Target: count}, nil
	}
	r, err := ParseRecipe(count, tag)
	if err != nil || r != nil {
		return r, err
	}
	rs := catalogue[count]
	return rs[rng.IntN(len(rs))], nil
}

// NewName draws a version 4 UUID from rng so seeded runs name their pages
// reproducibly.
func NewName(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rngReader{rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

func pickCount(rng *rand.Rand, ws []config.CountWeight) int {
	weights := make([]float64, len(ws))
	for i, w := range ws {
		weights[i] = w.Weight
	}
	return ws[weightedIndex(rng, weights)].Count
}

func pickType(rng *rand.Rand, ws []config.TypeWeight) panel.PageType {
	weights := make([]float64, len(ws))
	for i, w := range ws {
		weights[i] = w.Weight
	}
	return panel.PageType(ws[weightedIndex(rng, weights)].Type)
}

// weightedIndex draws an index with probability proportional to its weight.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}
