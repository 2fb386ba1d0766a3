// Package config holds the generation parameters threaded through layout,
// transforms and placement, plus the run-level settings of the CLI and
// server.
//
// A [Config] is usually obtained from [Default] and optionally overlaid with
// a TOML or YAML file via [Load]. Files may set any subset of keys; keys that
// are absent keep their default value.
//
//	cfg, err := config.Load("mangalayout.toml")
//	if err != nil {
//	    return err
//	}
//	gen := layout.NewGenerator(&cfg.Generation, logger)
package config

import (
	"github.com/matzehuels/mangalayout/pkg/errors"
)

// =============================================================================
// Generation parameters
// =============================================================================

// CountWeight is one entry of the panel-count distribution.
type CountWeight struct {
	Count  int     `toml:"count" yaml:"count" json:"count"`
	Weight float64 `toml:"weight" yaml:"weight" json:"weight"`
}

// TypeWeight is one entry of the page-topology distribution. Type is one of
// "v", "h" or "vh".
type TypeWeight struct {
	Type   string  `toml:"type" yaml:"type" json:"type"`
	Weight float64 `toml:"weight" yaml:"weight" json:"weight"`
}

// PageConfig describes the page canvas and page-wide post-render parameters.
type PageConfig struct {
	Width  int `toml:"width" yaml:"width" json:"width"`
	Height int `toml:"height" yaml:"height" json:"height"`

	// SolidBackgroundChance is the probability of a flat colour page
	// background rather than an image.
	SolidBackgroundChance float64 `toml:"solid_background_chance" yaml:"solid_background_chance" json:"solid_background_chance"`

	// Noise intensity is drawn from [NoiseMin, NoiseMax).
	NoiseMin int `toml:"noise_min" yaml:"noise_min" json:"noise_min"`
	NoiseMax int `toml:"noise_max" yaml:"noise_max" json:"noise_max"`

	// With RotationChance the page is rotated by a whole number of degrees
	// in [-RotationMax, RotationMax).
	RotationChance float64 `toml:"rotation_chance" yaml:"rotation_chance" json:"rotation_chance"`
	RotationMax    int     `toml:"rotation_max" yaml:"rotation_max" json:"rotation_max"`
}

// LayoutConfig holds the distributions the layout generator samples from when
// a request leaves count or topology open.
type LayoutConfig struct {
	PanelCounts []CountWeight `toml:"panel_counts" yaml:"panel_counts" json:"panel_counts"`
	PageTypes   []TypeWeight  `toml:"page_types" yaml:"page_types" json:"page_types"`
}

// TransformConfig gates the geometry transforms.
type TransformConfig struct {
	// Chance is the probability of running the transform stage at all.
	Chance float64 `toml:"chance" yaml:"chance" json:"chance"`

	SliceChance       float64 `toml:"slice_chance" yaml:"slice_chance" json:"slice_chance"`
	DoubleSliceChance float64 `toml:"double_slice_chance" yaml:"double_slice_chance" json:"double_slice_chance"`
	// SliceMinArea is the smallest panel area, as a fraction of the page,
	// that may be sliced.
	SliceMinArea float64 `toml:"slice_min_area" yaml:"slice_min_area" json:"slice_min_area"`
	// CenterSideRatio is the probability of a center slice over a side slice.
	CenterSideRatio float64 `toml:"center_side_ratio" yaml:"center_side_ratio" json:"center_side_ratio"`

	BoxChance      float64 `toml:"box_chance" yaml:"box_chance" json:"box_chance"`
	BoxPanelChance float64 `toml:"box_panel_chance" yaml:"box_panel_chance" json:"box_panel_chance"`
	// TrapezoidRatio is the probability of a trapezoid over a rhombus.
	TrapezoidRatio float64 `toml:"trapezoid_ratio" yaml:"trapezoid_ratio" json:"trapezoid_ratio"`
	// Movement limits are percentages of the smallest sibling extent.
	TrapezoidLimit float64 `toml:"trapezoid_limit" yaml:"trapezoid_limit" json:"trapezoid_limit"`
	RhombusLimit   float64 `toml:"rhombus_limit" yaml:"rhombus_limit" json:"rhombus_limit"`
	WobbleLimit    float64 `toml:"wobble_limit" yaml:"wobble_limit" json:"wobble_limit"`

	CircularChance float64 `toml:"circular_chance" yaml:"circular_chance" json:"circular_chance"`

	// Shrink offsets are pixels; both must be zero or negative.
	ShrinkMin float64 `toml:"shrink_min" yaml:"shrink_min" json:"shrink_min"`
	ShrinkMax float64 `toml:"shrink_max" yaml:"shrink_max" json:"shrink_max"`

	RemovalChance float64 `toml:"removal_chance" yaml:"removal_chance" json:"removal_chance"`
	RemovalMax    int     `toml:"removal_max" yaml:"removal_max" json:"removal_max"`
}

// PlacementConfig controls population of leaf panels.
type PlacementConfig struct {
	PanelBackgroundChance float64 `toml:"panel_background_chance" yaml:"panel_background_chance" json:"panel_background_chance"`

	MaxObjects          int     `toml:"max_objects" yaml:"max_objects" json:"max_objects"`
	ObjectPanelMaxRatio float64 `toml:"object_panel_max_ratio" yaml:"object_panel_max_ratio" json:"object_panel_max_ratio"`
	// ObjectAreaSpread bounds the fraction subtracted from the maximum
	// object area.
	ObjectAreaSpread   float64 `toml:"object_area_spread" yaml:"object_area_spread" json:"object_area_spread"`
	ObjectBubbleChance float64 `toml:"object_bubble_chance" yaml:"object_bubble_chance" json:"object_bubble_chance"`
	MinObjectSize      int     `toml:"min_object_size" yaml:"min_object_size" json:"min_object_size"`

	MaxBubbles         int     `toml:"max_bubbles" yaml:"max_bubbles" json:"max_bubbles"`
	BubblePanelMin     float64 `toml:"bubble_panel_min" yaml:"bubble_panel_min" json:"bubble_panel_min"`
	BubblePanelMax     float64 `toml:"bubble_panel_max" yaml:"bubble_panel_max" json:"bubble_panel_max"`
	BubbleObjectMin    float64 `toml:"bubble_object_min" yaml:"bubble_object_min" json:"bubble_object_min"`
	BubbleObjectMax    float64 `toml:"bubble_object_max" yaml:"bubble_object_max" json:"bubble_object_max"`
	MinBubbleSize      int     `toml:"min_bubble_size" yaml:"min_bubble_size" json:"min_bubble_size"`
	BubbleMaskIncrease int     `toml:"bubble_mask_increase" yaml:"bubble_mask_increase" json:"bubble_mask_increase"`

	FontSizeMin int `toml:"font_size_min" yaml:"font_size_min" json:"font_size_min"`
	FontSizeMax int `toml:"font_size_max" yaml:"font_size_max" json:"font_size_max"`

	// OverlapOffset is the pixel tolerance on both axes before two boxes
	// count as overlapping.
	OverlapOffset int `toml:"overlap_offset" yaml:"overlap_offset" json:"overlap_offset"`

	ObjectTransformChance float64 `toml:"object_transform_chance" yaml:"object_transform_chance" json:"object_transform_chance"`
	BubbleTransformChance float64 `toml:"bubble_transform_chance" yaml:"bubble_transform_chance" json:"bubble_transform_chance"`
	InvertChance          float64 `toml:"invert_chance" yaml:"invert_chance" json:"invert_chance"`
	StretchMax            float64 `toml:"stretch_max" yaml:"stretch_max" json:"stretch_max"`
	RotationMin           float64 `toml:"rotation_min" yaml:"rotation_min" json:"rotation_min"`
	RotationMax           float64 `toml:"rotation_max" yaml:"rotation_max" json:"rotation_max"`
}

// GenerationConfig is everything a single page generation depends on.
type GenerationConfig struct {
	Page      PageConfig      `toml:"page" yaml:"page" json:"page"`
	Layout    LayoutConfig    `toml:"layout" yaml:"layout" json:"layout"`
	Transform TransformConfig `toml:"transform" yaml:"transform" json:"transform"`
	Placement PlacementConfig `toml:"placement" yaml:"placement" json:"placement"`
}

// =============================================================================
// Run settings
// =============================================================================

// BatchConfig controls how many pages a run produces and how.
type BatchConfig struct {
	Count   int `toml:"count" yaml:"count" json:"count"`
	Workers int `toml:"workers" yaml:"workers" json:"workers"`
}

// CatalogConfig names the input catalogues.
type CatalogConfig struct {
	Backgrounds string `toml:"backgrounds" yaml:"backgrounds" json:"backgrounds"`
	Foregrounds string `toml:"foregrounds" yaml:"foregrounds" json:"foregrounds"`
	Texts       string `toml:"texts" yaml:"texts" json:"texts"`
	Bubbles     string `toml:"bubbles" yaml:"bubbles" json:"bubbles"`
	Fonts       string `toml:"fonts" yaml:"fonts" json:"fonts"`
}

// StoreConfig names where page records are written. URL is a file path or a
// file://, redis:// or mongodb:// URL.
type StoreConfig struct {
	URL    string `toml:"url" yaml:"url" json:"url"`
	Prefix string `toml:"prefix" yaml:"prefix" json:"prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr" json:"addr"`
}

// Config is the top-level configuration file.
type Config struct {
	Generation GenerationConfig `toml:"generation" yaml:"generation" json:"generation"`
	Batch      BatchConfig      `toml:"batch" yaml:"batch" json:"batch"`
	Catalog    CatalogConfig    `toml:"catalog" yaml:"catalog" json:"catalog"`
	Store      StoreConfig      `toml:"store" yaml:"store" json:"store"`
	Server     ServerConfig     `toml:"server" yaml:"server" json:"server"`
}

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultPageWidth  = 800
	DefaultPageHeight = 1200
	DefaultWorkers    = 8
	DefaultStoreURL   = "out/metadata"
	DefaultPrefix     = "mangalayout"
	DefaultAddr       = "127.0.0.1:8080"
)

// DefaultPanelCounts returns the default panel-count distribution.
func DefaultPanelCounts() []CountWeight {
	out := make([]CountWeight, 0, 9)
	for n := 1; n <= 8; n++ {
		out = append(out, CountWeight{Count: n, Weight: 0.1125})
	}
	return append(out, CountWeight{Count: 32, Weight: 0.1})
}

// DefaultPageTypes returns the default topology distribution.
func DefaultPageTypes() []TypeWeight {
	return []TypeWeight{
		{Type: "v", Weight: 0.1},
		{Type: "h", Weight: 0.1},
		{Type: "vh", Weight: 0.8},
	}
}

// DefaultGeneration returns the stock generation parameters.
func DefaultGeneration() GenerationConfig {
	return GenerationConfig{
		Page: PageConfig{
			Width:                 DefaultPageWidth,
			Height:                DefaultPageHeight,
			SolidBackgroundChance: 0.9,
			NoiseMin:              2,
			NoiseMax:              25,
			RotationChance:        0.5,
			RotationMax:           15,
		},
		Layout: LayoutConfig{
			PanelCounts: DefaultPanelCounts(),
			PageTypes:   DefaultPageTypes(),
		},
		Transform: TransformConfig{
			Chance:            0.75,
			SliceChance:       0.75,
			DoubleSliceChance: 0.25,
			SliceMinArea:      0.3,
			CenterSideRatio:   0.7,
			BoxChance:         0.75,
			BoxPanelChance:    0.1,
			TrapezoidRatio:    0.2,
			TrapezoidLimit:    50,
			RhombusLimit:      50,
			WobbleLimit:       25,
			CircularChance:    0.5,
			ShrinkMin:         -36,
			ShrinkMax:         0,
			RemovalChance:     0.01,
			RemovalMax:        2,
		},
		Placement: PlacementConfig{
			PanelBackgroundChance: 0.975,
			MaxObjects:            5,
			ObjectPanelMaxRatio:   0.4,
			ObjectAreaSpread:      0.75,
			ObjectBubbleChance:    0.65,
			MinObjectSize:         8,
			MaxBubbles:            5,
			BubblePanelMin:        0.2,
			BubblePanelMax:        0.4,
			BubbleObjectMin:       0.3,
			BubbleObjectMax:       0.6,
			MinBubbleSize:         12,
			BubbleMaskIncrease:    15,
			FontSizeMin:           24,
			FontSizeMax:           72,
			OverlapOffset:         24,
			ObjectTransformChance: 0.98,
			BubbleTransformChance: 0.98,
			InvertChance:          0.05,
			StretchMax:            0.3,
			RotationMin:           5,
			RotationMax:           15,
		},
	}
}

// Default returns the complete default configuration.
func Default() *Config {
	return &Config{
		Generation: DefaultGeneration(),
		Batch:      BatchConfig{Count: 1, Workers: DefaultWorkers},
		Catalog: CatalogConfig{
			Backgrounds: "datasets/backgrounds",
			Foregrounds: "datasets/foregrounds",
			Texts:       "datasets/text/text.csv",
			Bubbles:     "datasets/speech_bubbles/labels.csv",
			Fonts:       "datasets/fonts/viable_fonts.csv",
		},
		Store:  StoreConfig{URL: DefaultStoreURL, Prefix: DefaultPrefix},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// Normalize fills structural zero values with defaults so partially written
// configs still produce pages. Probabilities are left alone: zero is a valid
// way to disable a stage.
func (c *Config) Normalize() {
	c.Generation.Normalize()
	if c.Batch.Count <= 0 {
		c.Batch.Count = 1
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = DefaultWorkers
	}
	if c.Store.URL == "" {
		c.Store.URL = DefaultStoreURL
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = DefaultPrefix
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// Normalize fills zero sizes, counts and empty tables with defaults.
func (g *GenerationConfig) Normalize() {
	d := DefaultGeneration()
	if g.Page.Width <= 0 || g.Page.Height <= 0 {
		g.Page.Width, g.Page.Height = d.Page.Width, d.Page.Height
	}
	if g.Page.NoiseMax == 0 {
		g.Page.NoiseMin, g.Page.NoiseMax = d.Page.NoiseMin, d.Page.NoiseMax
	}
	if len(g.Layout.PanelCounts) == 0 {
		g.Layout.PanelCounts = d.Layout.PanelCounts
	}
	if len(g.Layout.PageTypes) == 0 {
		g.Layout.PageTypes = d.Layout.PageTypes
	}

	t := &g.Transform
	if t.TrapezoidLimit == 0 {
		t.TrapezoidLimit = d.Transform.TrapezoidLimit
	}
	if t.RhombusLimit == 0 {
		t.RhombusLimit = d.Transform.RhombusLimit
	}
	if t.WobbleLimit == 0 {
		t.WobbleLimit = d.Transform.WobbleLimit
	}

	p := &g.Placement
	if p.BubblePanelMax == 0 {
		p.BubblePanelMin, p.BubblePanelMax = d.Placement.BubblePanelMin, d.Placement.BubblePanelMax
	}
	if p.BubbleObjectMax == 0 {
		p.BubbleObjectMin, p.BubbleObjectMax = d.Placement.BubbleObjectMin, d.Placement.BubbleObjectMax
	}
	if p.FontSizeMax == 0 {
		p.FontSizeMin, p.FontSizeMax = d.Placement.FontSizeMin, d.Placement.FontSizeMax
	}
	if p.RotationMax == 0 {
		p.RotationMin, p.RotationMax = d.Placement.RotationMin, d.Placement.RotationMax
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate reports the first impossible value as an INVALID_CONFIG error.
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	if c.Batch.Count < 0 {
		return invalid("batch.count must not be negative, got %d", c.Batch.Count)
	}
	if c.Batch.Workers < 1 {
		return invalid("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}

// Validate checks ranges, probabilities and weight tables.
func (g *GenerationConfig) Validate() error {
	if g.Page.Width <= 0 || g.Page.Height <= 0 {
		return invalid("page size must be positive, got %dx%d", g.Page.Width, g.Page.Height)
	}
	if g.Page.NoiseMin < 0 || g.Page.NoiseMin >= g.Page.NoiseMax {
		return invalid("page noise range [%d, %d) is empty", g.Page.NoiseMin, g.Page.NoiseMax)
	}
	if g.Page.RotationMax < 0 {
		return invalid("page.rotation_max must not be negative")
	}

	if err := validateCounts(g.Layout.PanelCounts); err != nil {
		return err
	}
	if err := validateTypes(g.Layout.PageTypes); err != nil {
		return err
	}

	t := g.Transform
	p := g.Placement
	probs := []struct {
		name string
		v    float64
	}{
		{"page.solid_background_chance", g.Page.SolidBackgroundChance},
		{"page.rotation_chance", g.Page.RotationChance},
		{"transform.chance", t.Chance},
		{"transform.slice_chance", t.SliceChance},
		{"transform.double_slice_chance", t.DoubleSliceChance},
		{"transform.slice_min_area", t.SliceMinArea},
		{"transform.center_side_ratio", t.CenterSideRatio},
		{"transform.box_chance", t.BoxChance},
		{"transform.box_panel_chance", t.BoxPanelChance},
		{"transform.trapezoid_ratio", t.TrapezoidRatio},
		{"transform.circular_chance", t.CircularChance},
		{"transform.removal_chance", t.RemovalChance},
		{"placement.panel_background_chance", p.PanelBackgroundChance},
		{"placement.object_panel_max_ratio", p.ObjectPanelMaxRatio},
		{"placement.object_area_spread", p.ObjectAreaSpread},
		{"placement.object_bubble_chance", p.ObjectBubbleChance},
		{"placement.object_transform_chance", p.ObjectTransformChance},
		{"placement.bubble_transform_chance", p.BubbleTransformChance},
		{"placement.invert_chance", p.InvertChance},
	}
	for _, pr := range probs {
		if pr.v < 0 || pr.v > 1 {
			return invalid("%s must be within [0, 1], got %v", pr.name, pr.v)
		}
	}

	for _, lim := range []struct {
		name string
		v    float64
	}{
		{"transform.trapezoid_limit", t.TrapezoidLimit},
		{"transform.rhombus_limit", t.RhombusLimit},
		{"transform.wobble_limit", t.WobbleLimit},
	} {
		// displacements start at 10% of the smallest extent
		if lim.v < 10 || lim.v > 100 {
			return invalid("%s must be within [10, 100], got %v", lim.name, lim.v)
		}
	}

	if t.ShrinkMax > 0 || t.ShrinkMin > t.ShrinkMax {
		return invalid("shrink range [%v, %v] must satisfy min <= max <= 0", t.ShrinkMin, t.ShrinkMax)
	}
	if t.RemovalMax < 0 {
		return invalid("transform.removal_max must not be negative")
	}

	ranges := []struct {
		name     string
		min, max float64
	}{
		{"placement.bubble_panel", p.BubblePanelMin, p.BubblePanelMax},
		{"placement.bubble_object", p.BubbleObjectMin, p.BubbleObjectMax},
		{"placement.font_size", float64(p.FontSizeMin), float64(p.FontSizeMax)},
		{"placement.rotation", p.RotationMin, p.RotationMax},
		{"placement.stretch", 0, p.StretchMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.min > r.max {
			return invalid("%s range [%v, %v] is invalid", r.name, r.min, r.max)
		}
	}
	if p.MaxObjects < 0 || p.MaxBubbles < 0 {
		return invalid("placement object and bubble maxima must not be negative")
	}
	if p.MinBubbleSize < 0 || p.MinObjectSize < 0 || p.OverlapOffset < 0 || p.BubbleMaskIncrease < 0 {
		return invalid("placement pixel sizes must not be negative")
	}
	return nil
}

func validateCounts(ws []CountWeight) error {
	if len(ws) == 0 {
		return invalid("layout.panel_counts is empty")
	}
	var sum float64
	for _, w := range ws {
		if w.Count < 1 {
			return invalid("layout.panel_counts has count %d", w.Count)
		}
		if w.Weight < 0 {
			return invalid("layout.panel_counts weight for %d is negative", w.Count)
		}
		sum += w.Weight
	}
	if sum <= 0 {
		return invalid("layout.panel_counts weights sum to zero")
	}
	return nil
}

func validateTypes(ws []TypeWeight) error {
	if len(ws) == 0 {
		return invalid("layout.page_types is empty")
	}
	var sum float64
	for _, w := range ws {
		switch w.Type {
		case "v", "h", "vh":
		default:
			return invalid("layout.page_types has unknown type %q", w.Type)
		}
		if w.Weight < 0 {
			return invalid("layout.page_types weight for %q is negative", w.Type)
		}
		sum += w.Weight
	}
	if sum <= 0 {
		return invalid("layout.page_types weights sum to zero")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
