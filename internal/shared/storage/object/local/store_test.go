package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"sourcing-backend/internal/shared/storage/object"
)

func TestPutThenOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "exports/s-1/20260101T000000Z_sourcing_decisions.xlsx", "application/octet-stream", bytes.NewReader([]byte("workbook")))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("workbook")) {
		t.Fatalf("expected %d bytes, got %d", len("workbook"), n)
	}

	rc, err := store.Open(ctx, "exports/s-1/20260101T000000Z_sourcing_decisions.xlsx")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "workbook" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Put(context.Background(), "../escape.xlsx", "", bytes.NewReader(nil))
	if !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestPutReplacesExistingObject(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "events/s-1/1-100.json"

	if _, err := store.Put(ctx, key, "application/json", bytes.NewReader([]byte(`{"v":1}`))); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, key, "application/json", bytes.NewReader([]byte(`{"v":2}`))); err != nil {
		t.Fatalf("second put: %v", err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != `{"v":2}` {
		t.Fatalf("expected replaced content, got %q", data)
	}
}

func TestOpenMissingObject(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "events/none.json")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
