package util

import (
	"errors"
	"strings"
	"unicode"
)

// MaxKeySegmentLen bounds a single object key segment.
const MaxKeySegmentLen = 128

var ErrInvalidKeySegment = errors.New("invalid key segment")

// KeySegment turns name into one path-free object key segment. Separators and whitespace
// become underscores; traversal, control characters and oversized names are rejected.
func KeySegment(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" || strings.Contains(s, "..") || len(s) > MaxKeySegmentLen {
		return "", ErrInvalidKeySegment
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			return "", ErrInvalidKeySegment
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
