// Package cache provides the small key/value caches used across generation
// runs: artwork size probes, rendered previews and tree diagrams.
//
// All backends implement [Cache]. [MemoryCache] keeps entries in process,
// [FileCache] persists them under a directory so repeated CLI runs skip
// decoding the same artwork, and [NullCache] disables caching. [Tiered]
// stacks them, checking the fastest tier first.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl uses the backend default, which
	// for FileCache is no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Tiered checks each cache in order and back-fills faster tiers on a hit in
// a slower one. Writes go to every tier.
type Tiered []Cache

// Get returns the first hit, copying it into the tiers before it.
func (t Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, c := range t {
		data, ok, err := c.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		for _, faster := range t[:i] {
			_ = faster.Set(ctx, key, data, 0)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Set writes data to every tier.
func (t Tiered) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	for _, c := range t {
		if err := c.Set(ctx, key, data, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes key from every tier.
func (t Tiered) Delete(ctx context.Context, key string) error {
	for _, c := range t {
		if err := c.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every tier and returns the first error.
func (t Tiered) Close() error {
	var first error
	for _, c := range t {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Cache = Tiered(nil)

// NullCache never stores anything; every Get misses. It backs --no-cache.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
