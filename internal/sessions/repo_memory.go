package sessions

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	blob      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Entries expire after TTL when it is positive.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.data[id]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.blob...), nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := memoryEntry{blob: append([]byte(nil), blob...)}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = entry
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[id]
	if !ok || s.expired(entry) {
		delete(s.data, id)
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

var _ Store = (*MemoryStore)(nil)
