// Package textstore persists text content that is too large or too
// unstructured to encode as a hashed balance. Records are keyed by
// (account, field); the ledger holds only a reference balance while
// the content lives here.
package textstore

import (
	"context"
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ErrNotFound indicates no content is stored under (account, field).
var ErrNotFound = errors.New("text record not found")

// Record is one stored text value for an account field.
type Record struct {
	Account     string            `json:"account"`
	Field       string            `json:"field"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Store persists text records. Put overwrites any previous value for
// the same (account, field) pair and returns the record's content key.
type Store interface {
	Put(ctx context.Context, record Record) (uint64, error)
	// Get returns the stored record, or ErrNotFound.
	Get(ctx context.Context, account, field string) (Record, error)
}

// ContentKey derives the stable numeric key a ledger reference carries
// for a stored text record.
func ContentKey(account, field string) uint64 {
	return xxhash.Sum64String(account + "\x00" + field)
}
