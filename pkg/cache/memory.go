package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Defaults for in-process caches.
const (
	DefaultMemoryExpiration = 30 * time.Minute
	DefaultCleanupInterval  = 10 * time.Minute
)

// MemoryCache keeps entries in process memory. It is safe for concurrent
// use by the workers of a batch.
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates an in-memory cache whose entries expire after
// expiration unless Set is given a ttl of its own.
func NewMemoryCache(expiration, cleanup time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(expiration, cleanup)}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set stores a value in the cache. A zero ttl uses the cache's default
// expiration.
func (m *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, data, ttl)
	return nil
}

// Delete removes a value from the cache.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len returns the number of entries, including expired ones not yet
// cleaned up.
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

// Close empties the cache.
func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
