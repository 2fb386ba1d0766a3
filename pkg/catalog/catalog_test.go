package catalog

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

const bubblesCSV = `imagename,label,orientation
bubbles/a.png,"[{""x"": 10, ""y"": 20, ""width"": 50, ""height"": 40, ""original_width"": 300, ""original_height"": 200}]",
bubbles/b.png,"[]",tl
`

func TestReadTexts(t *testing.T) {
	recs, err := ReadTexts(strings.NewReader("English,Japanese\nhello,konnichiwa\n\"a, b\",c\n"))
	if err != nil {
		t.Fatalf("ReadTexts: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["English"] != "hello" || recs[0]["Japanese"] != "konnichiwa" {
		t.Errorf("first record = %v", recs[0])
	}
	if recs[1]["English"] != "a, b" {
		t.Errorf("quoted field = %q", recs[1]["English"])
	}
}

func TestReadTextsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"empty", "", errors.ErrCodeCatalogueEmpty},
		{"no english column", "French\nbonjour\n", errors.ErrCodeCatalogueInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTexts(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadBubbles(t *testing.T) {
	bs, err := ReadBubbles(strings.NewReader(bubblesCSV))
	if err != nil {
		t.Fatalf("ReadBubbles: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("got %d bubbles, want 2", len(bs))
	}
	want := panel.WritingArea{X: 10, Y: 20, Width: 50, Height: 40, OriginalWidth: 300, OriginalHeight: 200}
	if bs[0].Path != "bubbles/a.png" || len(bs[0].WritingAreas) != 1 || bs[0].WritingAreas[0] != want {
		t.Errorf("first bubble = %+v", bs[0])
	}
	if bs[0].Orientation != panel.Unoriented {
		t.Errorf("first orientation = %q, want unoriented", bs[0].Orientation)
	}
	if bs[1].Orientation != panel.TopLeft || len(bs[1].WritingAreas) != 0 {
		t.Errorf("second bubble = %+v", bs[1])
	}

	cat := Catalog{Bubbles: bs}
	if n := len(cat.Oriented()); n != 1 {
		t.Errorf("Oriented() = %d, want 1", n)
	}
	if n := len(cat.Unoriented()); n != 1 {
		t.Errorf("Unoriented() = %d, want 1", n)
	}
}

func TestReadBubblesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing label column", "imagename,orientation\na.png,tl\n"},
		{"bad json", "imagename,label,orientation\na.png,{,tl\n"},
		{"bad orientation", "imagename,label,orientation\na.png,[],up\n"},
		{"empty path", "imagename,label,orientation\n,[],\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBubbles(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeCatalogueInvalid) {
				t.Errorf("err = %v, want CATALOGUE_INVALID", err)
			}
		})
	}
}

func TestReadFonts(t *testing.T) {
	fonts, err := ReadFonts(strings.NewReader("fonts/a.ttf,True\nfonts/b.ttf,False\nfonts/c.otf,true\n"))
	if err != nil {
		t.Fatalf("ReadFonts: %v", err)
	}
	if len(fonts) != 2 || fonts[0] != "fonts/a.ttf" || fonts[1] != "fonts/c.otf" {
		t.Errorf("ReadFonts = %v", fonts)
	}

	if _, err := ReadFonts(strings.NewReader("only-a-path\n")); !errors.Is(err, errors.ErrCodeCatalogueInvalid) {
		t.Errorf("short row err = %v", err)
	}
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), "x")
	writeFile(t, filepath.Join(dir, "a.png"), "x")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "x")
	writeFile(t, filepath.Join(dir, "sub", "c.png"), "x")

	got, err := ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ListDir = %v, want %v", got, want)
	}

	if _, err := ListDir(filepath.Join(dir, "missing")); !errors.Is(err, errors.ErrCodeCatalogueEmpty) {
		t.Errorf("missing dir err = %v", err)
	}
}

func testCatalog(t *testing.T) config.CatalogConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.CatalogConfig{
		Backgrounds: filepath.Join(dir, "backgrounds"),
		Foregrounds: filepath.Join(dir, "foregrounds"),
		Texts:       filepath.Join(dir, "texts.csv"),
		Bubbles:     filepath.Join(dir, "bubbles.csv"),
		Fonts:       filepath.Join(dir, "fonts.csv"),
	}
	writeFile(t, filepath.Join(cfg.Backgrounds, "bg.png"), "x")
	writeFile(t, filepath.Join(cfg.Foregrounds, "fg.png"), "x")
	writeFile(t, cfg.Texts, "English\nhi\n")
	writeFile(t, cfg.Bubbles, bubblesCSV)
	writeFile(t, cfg.Fonts, "f.ttf,True\n")
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := testCatalog(t)
	cat, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Backgrounds) != 1 || len(cat.Foregrounds) != 1 || len(cat.Texts) != 1 ||
		len(cat.Bubbles) != 2 || len(cat.Fonts) != 1 {
		t.Errorf("Load = %+v", cat)
	}
}

func TestLoadEmptyCatalogue(t *testing.T) {
	cfg := testCatalog(t)
	writeFile(t, cfg.Fonts, "f.ttf,False\n")
	_, err := Load(cfg)
	if !errors.Is(err, errors.ErrCodeCatalogueEmpty) {
		t.Errorf("err = %v, want CATALOGUE_EMPTY", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := testCatalog(t)
	cfg.Texts = filepath.Join(t.TempDir(), "nope.csv")
	_, err := Load(cfg)
	if !errors.Is(err, errors.ErrCodeResourceNotFound) {
		t.Errorf("err = %v, want RESOURCE_NOT_FOUND", err)
	}
}

func TestProberSize(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "fg.png")
	writePNG(t, path, 37, 21)

	mem := cache.NewMemoryCache(cache.DefaultMemoryExpiration, cache.DefaultCleanupInterval)
	p := NewProber(mem, nil, quietLogger())

	w, h, err := p.Size(ctx, path)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if w != 37 || h != 21 {
		t.Errorf("Size = %dx%d, want 37x21", w, h)
	}
	if mem.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", mem.Len())
	}

	// a second probe is served from the cache
	w, h, err = p.Size(ctx, path)
	if err != nil || w != 37 || h != 21 {
		t.Errorf("cached Size = %dx%d, %v", w, h, err)
	}
	if mem.Len() != 1 {
		t.Errorf("cache holds %d entries after hit, want 1", mem.Len())
	}
}

func TestProberErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.png")
	writeFile(t, corrupt, "not an image")

	p := NewProber(nil, nil, quietLogger())
	if _, _, err := p.Size(ctx, filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeResourceNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, _, err := p.Size(ctx, corrupt); !errors.Is(err, errors.ErrCodeResourceCorrupt) {
		t.Errorf("corrupt err = %v", err)
	}
}
