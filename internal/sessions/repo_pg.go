package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGStore keeps session blobs in the workflow_sessions table.
type PGStore struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func (s *PGStore) Load(ctx context.Context, id string) ([]byte, error) {
	const query = `
SELECT state
FROM workflow_sessions
WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)`
	var blob []byte
	err := s.DB.QueryRowContext(ctx, query, id, s.now()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return blob, nil
}

// Save upserts the blob, bumping version and pushing out the expiry.
func (s *PGStore) Save(ctx context.Context, id string, blob []byte) error {
	const query = `
INSERT INTO workflow_sessions (id, state, version, created_at, updated_at, expires_at)
VALUES ($1, $2, 1, $3, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    state = EXCLUDED.state,
    version = workflow_sessions.version + 1,
    updated_at = EXCLUDED.updated_at,
    expires_at = EXCLUDED.expires_at`
	now := s.now()
	var expiresAt sql.NullTime
	if s.TTL > 0 {
		expiresAt = sql.NullTime{Time: now.Add(s.TTL), Valid: true}
	}
	if _, err := s.DB.ExecContext(ctx, query, id, string(blob), now, expiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM workflow_sessions WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ Store = (*PGStore)(nil)
