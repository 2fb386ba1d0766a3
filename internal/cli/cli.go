// Package cli implements the mangalayout command-line interface.
//
// # Commands
//
//   - generate: build a batch of page records and store them
//   - preview: draw wireframe PNGs of stored pages
//   - inspect: print the panel tree of a page, or export it as DOT or SVG
//   - annotate: write COCO annotations for stored pages
//   - serve: expose the page store over HTTP
//   - config: print the effective configuration
//   - cache: manage the artwork probe cache
//
// Every command reads the configuration named by --config (TOML or YAML) on
// top of the built-in defaults. --verbose (-v) switches logging to debug.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangalayout/pkg/buildinfo"
	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/catalog"
	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
	"github.com/matzehuels/mangalayout/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mangalayout"

	// probeDir is the cache subdirectory holding artwork sizes.
	probeDir = "probe"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mangalayout generates procedural comic and manga page layouts",
		Long:         `Mangalayout builds randomized comic and manga page layouts (panel trees, characters and speech bubbles) as metadata records for synthetic dataset generation.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "configuration file (TOML or YAML)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.annotateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig reads the configuration named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// openStore opens the page store, preferring url over the configured one.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config, url string) (store.Store, error) {
	sc := cfg.Store
	if url != "" {
		sc.URL = url
	}
	return store.Open(ctx, sc, c.Logger)
}

// newGenerator loads the catalogues and returns a generator probing artwork
// through the probe cache.
func (c *CLI) newGenerator(cfg *config.Config, noCache bool) (*pipeline.Generator, error) {
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded catalogue",
		"backgrounds", len(cat.Backgrounds),
		"foregrounds", len(cat.Foregrounds),
		"texts", len(cat.Texts),
		"bubbles", len(cat.Bubbles),
		"fonts", len(cat.Fonts))

	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Store.Prefix+":")
	prober := catalog.NewProber(newProbeCache(noCache), keyer, c.Logger)
	return pipeline.NewGenerator(&cfg.Generation, cat, prober, c.Logger), nil
}

// newProbeCache returns an in-memory tier in front of the on-disk cache. The
// disk tier is skipped when the cache directory is unavailable.
func newProbeCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	mem := cache.NewMemoryCache(cache.DefaultMemoryExpiration, cache.DefaultCleanupInterval)
	dir, err := cacheDir()
	if err != nil {
		return mem
	}
	fc, err := cache.NewFileCache(filepath.Join(dir, probeDir))
	if err != nil {
		return mem
	}
	return cache.Tiered{mem, fc}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mangalayout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
