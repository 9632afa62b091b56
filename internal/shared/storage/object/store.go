package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by Open when no object exists under the key.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore saves and retrieves binary objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// CleanKey normalizes a slash-separated key and rejects traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.Contains(trimmed, "..") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidKey
	}
	clean := strings.TrimLeft(path.Clean("/"+trimmed), "/")
	if clean == "" {
		return "", ErrInvalidKey
	}
	return clean, nil
}
