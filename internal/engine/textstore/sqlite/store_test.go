package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/tally.space/internal/engine/textstore"
)

// TestOpenRequiresPath ensures empty storage paths are rejected.
func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

// TestPutGetRoundTrip ensures records survive a write/read cycle with
// metadata and timestamps intact.
func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	key, err := store.Put(ctx, textstore.Record{
		Account:     "user:u1:bio",
		Field:       "value",
		Content:     "Hello from the test suite",
		ContentType: "text/markdown",
		Metadata:    map[string]string{"lang": "en"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != textstore.ContentKey("user:u1:bio", "value") {
		t.Fatalf("content key = %d, want derived key", key)
	}

	record, err := store.Get(ctx, "user:u1:bio", "value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Content != "Hello from the test suite" {
		t.Fatalf("content = %q, want original text", record.Content)
	}
	if record.ContentType != "text/markdown" {
		t.Fatalf("content type = %q, want text/markdown", record.ContentType)
	}
	if record.Metadata["lang"] != "en" {
		t.Fatalf("metadata = %v, want lang=en", record.Metadata)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

// TestOverwriteKeepsCreatedAt ensures updates bump updated_at while
// preserving the original creation time.
func TestOverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.clock = func() time.Time { return now }

	if _, err := store.Put(ctx, textstore.Record{Account: "a", Field: "value", Content: "first"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	now = base.Add(time.Hour)
	if _, err := store.Put(ctx, textstore.Record{Account: "a", Field: "value", Content: "second"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	record, err := store.Get(ctx, "a", "value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Content != "second" {
		t.Fatalf("content = %q, want second", record.Content)
	}
	if !record.CreatedAt.Equal(base) {
		t.Fatalf("created at = %v, want %v", record.CreatedAt, base)
	}
	if !record.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("updated at = %v, want %v", record.UpdatedAt, base.Add(time.Hour))
	}
}

// TestMissingRecord ensures absent rows map to ErrNotFound.
func TestMissingRecord(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(context.Background(), "ghost", "value"); !errors.Is(err, textstore.ErrNotFound) {
		t.Fatalf("get error = %v, want ErrNotFound", err)
	}
}

// TestReopenKeepsRecords ensures records persist across store handles.
func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "text.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Put(ctx, textstore.Record{Account: "a", Field: "value", Content: "persisted"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	record, err := reopened.Get(ctx, "a", "value")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if record.Content != "persisted" {
		t.Fatalf("content = %q, want persisted", record.Content)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "text.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
