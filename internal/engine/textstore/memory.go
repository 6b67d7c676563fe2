package textstore

import (
	"context"
	"sync"
	"time"
)

type recordKey struct {
	account string
	field   string
}

// MemoryStore keeps text records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	clock   func() time.Time
}

// NewMemoryStore creates an empty in-memory text store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[recordKey]Record),
		clock:   time.Now,
	}
}

// Put stores a record, preserving the original creation time on
// overwrite, and returns its content key.
func (s *MemoryStore) Put(ctx context.Context, record Record) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := s.clock().UTC()
	key := recordKey{account: record.Account, field: record.Field}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[key] = record
	return ContentKey(record.Account, record.Field), nil
}

// Get returns the stored record, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, account, field string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{account: account, field: field}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}
