// Package sessions persists workflow state per session and exposes it over HTTP.
package sessions

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store keeps the encoded workflow state of each session as an opaque blob.
type Store interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, blob []byte) error
	Delete(ctx context.Context, id string) error
}
