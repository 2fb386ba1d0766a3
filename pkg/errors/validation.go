package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLength bounds page names.
const MaxNameLength = 256

// ValidatePageName checks that name can serve as a file name, a Redis key
// component and a URL path segment.
//
// The rules are conservative:
//   - No empty names or names longer than MaxNameLength
//   - No control characters
//   - No path separators or traversal names (".", "..")
//   - No hidden names (leading ".")
func ValidatePageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "page name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "page name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "page name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "page name %q contains path separators", name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "page name %q cannot start with a dot", name)
	}
	return nil
}

// hexColorRegex matches "#rrggbb".
var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateColor checks that s is a "#rrggbb" colour.
func ValidateColor(s string) error {
	if !hexColorRegex.MatchString(s) {
		return New(ErrCodeInvalidFormat, "invalid colour %q (want #rrggbb)", s)
	}
	return nil
}
