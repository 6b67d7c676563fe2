// Package ledger defines the storage contracts for account balances and
// the append-only transfer log, plus an in-memory reference
// implementation of both.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrImmutableLog indicates an attempt to rewrite transfer history.
var ErrImmutableLog = errors.New("transfer log is append-only")

// Entry is one immutable transfer record. Entries are never updated or
// deleted; their append order is the total order of application.
type Entry struct {
	ID        string         `json:"id"`
	From      string         `json:"from_account"`
	To        string         `json:"to_account"`
	Amount    int64          `json:"amount"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Store persists one balance per account. Absent accounts hold zero.
// Apply is only ever invoked by the transfer executor; callers read
// through BalanceOf and mutate through transfers.
type Store interface {
	// BalanceOf returns the stored balance, zero for unknown accounts.
	BalanceOf(ctx context.Context, account string) (int64, error)
	// Apply adjusts the stored balance by delta.
	Apply(ctx context.Context, account string, delta int64) error
}

// Log records every applied transfer in append order.
type Log interface {
	Append(ctx context.Context, entry Entry) error
	// Entries returns all recorded transfers in append order.
	Entries(ctx context.Context) ([]Entry, error)
}
