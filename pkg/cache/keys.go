package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Hash returns the hex SHA-256 of data. Page records are hashed with it so
// that render keys follow the record content rather than the page name.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix:Hash(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Keyer builds cache keys. Implementations must produce keys that change
// whenever any input that affects the cached value changes.
type Keyer interface {
	// ProbeKey addresses the decoded size of an artwork file.
	ProbeKey(path string, size int64, modTime time.Time) string

	// PreviewKey addresses a rendered wireframe of a page record.
	PreviewKey(pageHash string, opts PreviewKeyOpts) string

	// TreeKey addresses a rendered tree diagram of a page record.
	TreeKey(pageHash string, format string) string
}

// PreviewKeyOpts are the render options that change a preview.
type PreviewKeyOpts struct {
	Scale  float64 `json:"scale"`
	Labels bool    `json:"labels"`
	Rotate bool    `json:"rotate"`
}

// DefaultKeyer hashes its inputs under fixed prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ProbeKey keys on the path plus the file's size and modification time,
// so an edited file is probed again.
func (DefaultKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return hashKey("probe", path, size, modTime.UnixNano())
}

// PreviewKey keys on the page content hash and render options.
func (DefaultKeyer) PreviewKey(pageHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", pageHash, opts)
}

// TreeKey keys on the page content hash and output format.
func (DefaultKeyer) TreeKey(pageHash string, format string) string {
	return fmt.Sprintf("tree:%s:%s", format, pageHash)
}

var _ Keyer = DefaultKeyer{}
