package cache

import "time"

// ScopedKeyer wraps a Keyer with a prefix so that several datasets can
// share one cache directory or Redis database without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "manga109:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProbeKey generates a prefixed artwork probe key.
func (k *ScopedKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return k.prefix + k.inner.ProbeKey(path, size, modTime)
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(pageHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(pageHash, opts)
}

// TreeKey generates a prefixed tree diagram key.
func (k *ScopedKeyer) TreeKey(pageHash string, format string) string {
	return k.prefix + k.inner.TreeKey(pageHash, format)
}
