package pipeline

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/catalog"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/layout"
	"github.com/matzehuels/mangalayout/pkg/observability"
	"github.com/matzehuels/mangalayout/pkg/panel"
	"github.com/matzehuels/mangalayout/pkg/placement"
	"github.com/matzehuels/mangalayout/pkg/store"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func quietLogger() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

type fakeSizer map[string][2]int

func (f fakeSizer) Size(_ context.Context, path string) (int, int, error) {
	s, ok := f[path]
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeResourceNotFound, "artwork %s", path)
	}
	return s[0], s[1], nil
}

func testCatalog() *catalog.Catalog {
	area := panel.WritingArea{X: 10, Y: 10, Width: 80, Height: 80, OriginalWidth: 200, OriginalHeight: 100}
	return &catalog.Catalog{
		Backgrounds: []string{"bg/a.png", "bg/b.png"},
		Foregrounds: []string{"fg/a.png", "fg/b.png"},
		Fonts:       []string{"fonts/a.ttf"},
		Texts:       []panel.TextRecord{{"English": "hi"}, {"English": "bye"}},
		Bubbles: []catalog.Bubble{
			{Path: "sb/round.png", WritingAreas: []panel.WritingArea{area}},
			{Path: "sb/tail.png", WritingAreas: []panel.WritingArea{area}, Orientation: panel.TopRight},
		},
	}
}

func testSizer() fakeSizer {
	return fakeSizer{
		"fg/a.png":     {300, 600},
		"fg/b.png":     {500, 400},
		"sb/round.png": {200, 100},
		"sb/tail.png":  {150, 150},
	}
}

func testConfig() *config.GenerationConfig {
	cfg := config.DefaultGeneration()
	cfg.Page.Width, cfg.Page.Height = 400, 600
	return &cfg
}

func testGenerator(sizer placement.Sizer) *Generator {
	return NewGenerator(testConfig(), testCatalog(), sizer, quietLogger())
}

func TestGenerateDeterministic(t *testing.T) {
	ctx := context.Background()
	gen := testGenerator(testSizer())
	for seed := uint64(0); seed < 10; seed++ {
		a, err := gen.Generate(ctx, newRand(seed), layout.Request{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		b, err := gen.Generate(ctx, newRand(seed), layout.Request{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		ja, _ := pageio.Marshal(a)
		jb, _ := pageio.Marshal(b)
		if !bytes.Equal(ja, jb) {
			t.Fatalf("seed %d: pages differ", seed)
		}
	}
}

func TestGeneratePageAttributes(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	gen := NewGenerator(cfg, testCatalog(), testSizer(), quietLogger())
	backgrounds := map[string]bool{"bg/a.png": true, "bg/b.png": true}

	for seed := uint64(0); seed < 40; seed++ {
		pg, err := gen.Generate(ctx, newRand(seed), layout.Request{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if pg.Width != 400 || pg.Height != 600 {
			t.Errorf("seed %d: size %dx%d", seed, pg.Width, pg.Height)
		}
		bg := pg.Background
		if !backgrounds[bg] && !(len(bg) == 7 && strings.HasPrefix(bg, "#")) {
			t.Errorf("seed %d: background %q", seed, bg)
		}
		if pg.Noise < cfg.Page.NoiseMin || pg.Noise >= cfg.Page.NoiseMax {
			t.Errorf("seed %d: noise %d", seed, pg.Noise)
		}
		if pg.Rotation < -cfg.Page.RotationMax || pg.Rotation >= cfg.Page.RotationMax {
			t.Errorf("seed %d: rotation %d", seed, pg.Rotation)
		}
		leaves := pg.Leaves()
		if len(leaves) == 0 {
			t.Fatalf("seed %d: no visible panels", seed)
		}
		for _, p := range leaves {
			if p.Area() <= 0 {
				t.Errorf("seed %d: panel %s has area %v", seed, p.Name, p.Area())
			}
		}
	}
}

func TestGenerateLeavesValid(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Transform.Chance = 1
	gen := NewGenerator(cfg, testCatalog(), testSizer(), quietLogger())
	types := []panel.PageType{"", panel.PageVertical, panel.PageHorizontal, panel.PageMixed}

	for seed := uint64(0); seed < 600; seed++ {
		req := layout.Request{Type: types[seed%uint64(len(types))]}
		pg, err := gen.Generate(ctx, newRand(seed), req)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, p := range pg.Leaves() {
			if err := p.Polygon.Validate(); err != nil {
				t.Fatalf("seed %d: leaf %s %v: %v", seed, p.Name, p.Polygon, err)
			}
		}
	}
}

func TestGenerateRequest(t *testing.T) {
	gen := testGenerator(testSizer())
	pg, err := gen.Generate(context.Background(), newRand(1), layout.Request{Name: "page-one", Count: 4, Type: panel.PageMixed})
	if err != nil {
		t.Fatal(err)
	}
	if pg.Name() != "page-one" {
		t.Errorf("name = %q", pg.Name())
	}
	if pg.NumPanels != 4 {
		t.Errorf("NumPanels = %d, want 4", pg.NumPanels)
	}

	_, err = gen.Generate(context.Background(), newRand(1), layout.Request{Type: "diagonal"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad page type: got %v", err)
	}
}

func TestGenerateMissingArtwork(t *testing.T) {
	gen := testGenerator(fakeSizer{})
	failed := 0
	for seed := uint64(0); seed < 20; seed++ {
		_, err := gen.Generate(context.Background(), newRand(seed), layout.Request{})
		if err == nil {
			continue
		}
		failed++
		if !errors.Is(err, errors.ErrCodeResourceNotFound) {
			t.Errorf("seed %d: got %v, want RESOURCE_NOT_FOUND", seed, err)
		}
	}
	if failed == 0 {
		t.Error("no page failed without artwork")
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testGenerator(testSizer()).Generate(ctx, newRand(1), layout.Request{}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)
	r := NewRunner(testGenerator(testSizer()), st, quietLogger())

	var mu sync.Mutex
	seen := map[int]bool{}
	stats, err := r.Batch(ctx, Options{
		Count:   6,
		Workers: 3,
		Seed:    42,
		Seeded:  true,
		OnPage: func(i int, _ *panel.Page, err error) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = err == nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Requested != 6 || stats.Generated != 6 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(seen) != 6 {
		t.Errorf("OnPage saw %d pages", len(seen))
	}
	if stats.Panels == 0 {
		t.Error("no panels counted")
	}

	names, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 6 {
		t.Fatalf("stored %d pages, want 6", len(names))
	}

	again, err := NewRunner(testGenerator(testSizer()), newFileStore(t), quietLogger()).
		Batch(ctx, Options{Count: 6, Workers: 2, Seed: 42, Seeded: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := range stats.Names {
		if stats.Names[i] != again.Names[i] {
			t.Errorf("page %d: %s != %s", i, stats.Names[i], again.Names[i])
		}
	}
}

func TestBatchCountsFailures(t *testing.T) {
	r := NewRunner(testGenerator(fakeSizer{}), nil, quietLogger())
	stats, err := r.Batch(context.Background(), Options{Count: 20, Workers: 4, Seed: 7, Seeded: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed == 0 {
		t.Error("expected failures without artwork")
	}
	if stats.Generated+stats.Failed != 20 {
		t.Errorf("generated %d + failed %d != 20", stats.Generated, stats.Failed)
	}
	if len(stats.Names) != stats.Generated {
		t.Errorf("names = %d, generated = %d", len(stats.Names), stats.Generated)
	}
}

// panickySizer panics for one artwork path and delegates the rest.
type panickySizer struct {
	fakeSizer
	bad string
}

func (p panickySizer) Size(ctx context.Context, path string) (int, int, error) {
	if path == p.bad {
		panic("decoder bug")
	}
	return p.fakeSizer.Size(ctx, path)
}

func TestBatchRecoversPanics(t *testing.T) {
	sizer := panickySizer{fakeSizer: testSizer(), bad: "fg/b.png"}
	var mu sync.Mutex
	var codes []errors.Code
	r := NewRunner(testGenerator(sizer), nil, quietLogger())
	stats, err := r.Batch(context.Background(), Options{
		Count:   50,
		Workers: 4,
		Seed:    5,
		Seeded:  true,
		OnPage: func(_ int, _ *panel.Page, err error) {
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			codes = append(codes, errors.GetCode(err))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Generated+stats.Failed != 50 {
		t.Errorf("generated %d + failed %d != 50", stats.Generated, stats.Failed)
	}
	if stats.Failed == 0 {
		t.Fatal("no page hit the panicking artwork")
	}
	for _, c := range codes {
		if c != errors.ErrCodeInternal {
			t.Errorf("failure code = %s, want %s", c, errors.ErrCodeInternal)
		}
	}
}

func TestBatchInvalid(t *testing.T) {
	r := NewRunner(testGenerator(testSizer()), nil, quietLogger())
	if _, err := r.Batch(context.Background(), Options{Count: -1}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative count: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Batch(ctx, Options{Count: 3}); err == nil {
		t.Error("cancelled batch: expected an error")
	}
}

type countingHooks struct {
	observability.NoopGenerationHooks
	mu        sync.Mutex
	started   int
	completed int
	failed    int
}

func (h *countingHooks) OnPageStart(context.Context, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *countingHooks) OnPageComplete(_ context.Context, _ int, _ string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed++
	if err != nil {
		h.failed++
	}
}

func TestBatchHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetGenerationHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(testGenerator(testSizer()), nil, quietLogger())
	stats, err := r.Batch(context.Background(), Options{Count: 5, Workers: 2, Seed: 3, Seeded: true})
	if err != nil {
		t.Fatal(err)
	}
	if hooks.started != 5 || hooks.completed != 5 {
		t.Errorf("started %d, completed %d", hooks.started, hooks.completed)
	}
	if hooks.failed != stats.Failed {
		t.Errorf("hook failures %d, stats %d", hooks.failed, stats.Failed)
	}
}

func TestAnnotate(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(testGenerator(testSizer()), newFileStore(t), quietLogger())
	stats, err := r.Batch(ctx, Options{Count: 3, Seed: 9, Seeded: true})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := r.Annotate(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Images) != stats.Generated {
		t.Errorf("images = %d, want %d", len(doc.Images), stats.Generated)
	}

	doc, err = r.Annotate(ctx, stats.Names[:1])
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Images) != 1 || doc.Images[0].FileName != stats.Names[0]+".png" {
		t.Errorf("images = %+v", doc.Images)
	}

	if _, err := r.Annotate(ctx, []string{"missing"}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing page: got %v", err)
	}
}
