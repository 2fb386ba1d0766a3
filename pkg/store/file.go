package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// FileStore keeps page records as <name>.json files in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storeErr(err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Put(ctx context.Context, pg *panel.Page) (err error) {
	start := time.Now()
	name := pg.Name()
	var data []byte
	defer func() { reportPut(ctx, "file", name, len(data), start, err) }()

	if err := validName(name); err != nil {
		return err
	}
	if data, err = pageio.Marshal(pg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// write then rename so readers never see half a record
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return storeErr(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		_ = os.Remove(tmp)
		return storeErr(err, "rename %s", tmp)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) (pg *panel.Page, err error) {
	start := time.Now()
	defer func() { reportGet(ctx, "file", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path(name))
	s.mu.RUnlock()
	if os.IsNotExist(err) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(err, "read page %s", name)
	}
	return pageio.Unmarshal(data)
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storeErr(err, "list %s", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return storeErr(err, "delete page %s", name)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
