package catalog

import (
	"context"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/observability"
)

// ProbeTTL is how long a probed size stays cached. Keys change with the
// file's size and modification time, so stale entries are never read.
const ProbeTTL = 30 * 24 * time.Hour

// Prober reads artwork sizes from image headers and caches them.
type Prober struct {
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewProber returns a prober backed by c. A nil cache disables caching and a
// nil keyer uses [cache.DefaultKeyer].
func NewProber(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Prober {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Prober{cache: c, keyer: keyer, logger: logger}
}

type probed struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Size returns the pixel size of the image at path. Only the header is
// decoded. A missing file fails with RESOURCE_NOT_FOUND and an unreadable
// one with RESOURCE_CORRUPT.
func (p *Prober) Size(ctx context.Context, path string) (int, int, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errors.Wrap(errors.ErrCodeResourceNotFound, err, "artwork %s", path)
		}
		return 0, 0, errors.Wrap(errors.ErrCodeResourceCorrupt, err, "stat %s", path)
	}
	key := p.keyer.ProbeKey(path, fi.Size(), fi.ModTime())

	if data, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		var s probed
		if json.Unmarshal(data, &s) == nil {
			observability.Cache().OnCacheHit(ctx, "probe")
			return s.Width, s.Height, nil
		}
	} else if err != nil {
		p.logger.Debug("probe cache read failed", "path", path, "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "probe")

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeResourceNotFound, err, "artwork %s", path)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeResourceCorrupt, err, "decode %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.New(errors.ErrCodeResourceCorrupt, "%s has size %dx%d", path, cfg.Width, cfg.Height)
	}
	p.logger.Debug("probed artwork", "path", path, "format", format, "w", cfg.Width, "h", cfg.Height)

	data, _ := json.Marshal(probed{Width: cfg.Width, Height: cfg.Height})
	if err := p.cache.Set(ctx, key, data, ProbeTTL); err != nil {
		p.logger.Debug("probe cache write failed", "path", path, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "probe", len(data))
	}
	return cfg.Width, cfg.Height, nil
}
