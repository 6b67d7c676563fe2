package textstore

import (
	"context"
	"errors"
	"testing"
)

// TestMemoryStoreRoundTrip ensures stored content comes back intact
// with a stable content key.
func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	key, err := store.Put(ctx, Record{
		Account:     "product:p1:description",
		Field:       "value",
		Content:     "A very long description",
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != ContentKey("product:p1:description", "value") {
		t.Fatalf("content key = %d, want %d", key, ContentKey("product:p1:description", "value"))
	}

	record, err := store.Get(ctx, "product:p1:description", "value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Content != "A very long description" {
		t.Fatalf("content = %q, want original text", record.Content)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

// TestMemoryStoreOverwriteKeepsCreatedAt ensures updates preserve the
// original creation time.
func TestMemoryStoreOverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Put(ctx, Record{Account: "a", Field: "value", Content: "first"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	first, _ := store.Get(ctx, "a", "value")

	if _, err := store.Put(ctx, Record{Account: "a", Field: "value", Content: "second"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	second, err := store.Get(ctx, "a", "value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Content != "second" {
		t.Fatalf("content = %q, want second", second.Content)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created at changed on overwrite: %v != %v", second.CreatedAt, first.CreatedAt)
	}
}

// TestMemoryStoreMissingRecord ensures absent records report
// ErrNotFound.
func TestMemoryStoreMissingRecord(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get(context.Background(), "ghost", "value"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get error = %v, want ErrNotFound", err)
	}
}

// TestContentKeyIsStable pins key derivation across accounts and
// fields.
func TestContentKeyIsStable(t *testing.T) {
	if ContentKey("a", "b") != ContentKey("a", "b") {
		t.Fatal("content key not deterministic")
	}
	if ContentKey("a", "b") == ContentKey("a:b", "") {
		t.Fatal("account/field boundary must affect the key")
	}
}
