// Package store persists page records.
//
// Three backends implement [Store]:
//   - [FileStore]: one JSON file per page in a directory, for the CLI
//   - [RedisStore]: one key per page plus a set of names, for shared runs
//   - [MongoStore]: one document per page, keyed by name
//
// [Open] picks the backend from a URL:
//
//	s, err := store.Open(ctx, config.StoreConfig{URL: "redis://localhost:6379/0"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = s.Put(ctx, page)
//
// Every Put and Get is reported to [observability.Store].
package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangalayout/pkg/config"
	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/observability"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Store reads and writes page records by page name.
type Store interface {
	// Put writes pg, replacing any record with the same name.
	Put(ctx context.Context, pg *panel.Page) error

	// Get reads the page called name. A missing page fails with NOT_FOUND.
	Get(ctx context.Context, name string) (*panel.Page, error)

	// List returns the stored page names, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes the page called name. Deleting a missing page is not
	// an error.
	Delete(ctx context.Context, name string) error

	// Close releases the backend's resources.
	Close() error
}

// Open returns the store named by cfg.URL: a redis:// or rediss:// URL, a
// mongodb:// or mongodb+srv:// URL, a file:// URL, or a plain directory
// path.
func Open(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	raw := cfg.URL
	if raw == "" {
		raw = config.DefaultStoreURL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = config.DefaultPrefix
	}

	scheme := ""
	if i := strings.Index(raw, "://"); i > 0 {
		scheme = strings.ToLower(raw[:i])
	}
	switch scheme {
	case "":
		return NewFileStore(raw)
	case "file":
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "store url %q", raw)
		}
		return NewFileStore(u.Host + u.Path)
	case "redis", "rediss":
		return NewRedisStore(ctx, raw, prefix, logger)
	case "mongodb", "mongodb+srv":
		return NewMongoStore(ctx, raw, prefix, logger)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported store scheme %q", scheme)
	}
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "page %q not found", name)
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}

// validName rejects names that would escape a key space or directory.
func validName(name string) error {
	return errors.ValidatePageName(name)
}

func reportPut(ctx context.Context, backend, name string, size int, start time.Time, err error) {
	observability.Store().OnPut(ctx, backend, name, size, time.Since(start), err)
}

func reportGet(ctx context.Context, backend, name string, start time.Time, err error) {
	observability.Store().OnGet(ctx, backend, name, time.Since(start), err)
}
