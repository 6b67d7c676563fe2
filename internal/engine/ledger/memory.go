package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps balances in process memory. It is the reference
// Store for tests and single-node deployments without durability needs.
type MemoryStore struct {
	mu       sync.RWMutex
	balances map[string]int64
}

// NewMemoryStore creates an empty in-memory balance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]int64)}
}

// BalanceOf returns the stored balance, zero for unknown accounts.
func (s *MemoryStore) BalanceOf(ctx context.Context, account string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// Apply adjusts the stored balance by delta, creating the account on
// first touch.
func (s *MemoryStore) Apply(ctx context.Context, account string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] += delta
	return nil
}

// MemoryLog keeps transfer entries in process memory, in append order.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryLog creates an empty in-memory transfer log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append records one transfer entry.
func (l *MemoryLog) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of all recorded transfers in append order.
func (l *MemoryLog) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}
