package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), ttl)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestRedisStoreSaveAndLoad(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "s-1", []byte(`{"lastId":1}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("session:s-1") {
		t.Fatalf("expected key with session prefix")
	}
	if ttl := mr.TTL("session:s-1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	got, err := store.Load(ctx, "s-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `{"lastId":1}` {
		t.Fatalf("unexpected blob %q", got)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "s-1", []byte(`{}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, "s-1", []byte(`{}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", time.Minute); err == nil {
		t.Fatalf("expected parse error")
	}
}
