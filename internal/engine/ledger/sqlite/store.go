// Package sqlite provides a SQLite-backed balance store and transfer
// log for durable deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/tally.space/internal/engine/ledger"
	"github.com/louisbranch/tally.space/internal/engine/ledger/sqlite/migrations"
	"github.com/louisbranch/tally.space/internal/platform/storage/sqlitemigrate"
)

// Store persists balances and the transfer log in SQLite. It satisfies
// both ledger.Store and ledger.Log so one handle backs the engine.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// BalanceOf returns the stored balance, zero for unknown accounts.
func (s *Store) BalanceOf(ctx context.Context, account string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var balance int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT balance FROM balances WHERE account = ?", account,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Apply adjusts the stored balance by delta, creating the row on first
// touch.
func (s *Store) Apply(ctx context.Context, account string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO balances (account, balance) VALUES (?, ?)
		 ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance`,
		account, delta,
	)
	if err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}
	return nil
}

// Append records one transfer entry. Entries are insert-only; the seq
// rowid preserves application order.
func (s *Store) Append(ctx context.Context, entry ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var metadata []byte
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = encoded
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO transfers (id, from_account, to_account, amount, metadata, timestamp_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.From,
		entry.To,
		entry.Amount,
		metadata,
		entry.Timestamp.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

// Entries returns all recorded transfers in append order.
func (s *Store) Entries(ctx context.Context) ([]ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, from_account, to_account, amount, metadata, timestamp_ms
		 FROM transfers ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			entry       ledger.Entry
			metadata    sql.NullString
			timestampMS int64
		)
		if err := rows.Scan(&entry.ID, &entry.From, &entry.To, &entry.Amount, &metadata, &timestampMS); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			decoded := make(map[string]any)
			if err := json.Unmarshal([]byte(metadata.String), &decoded); err != nil {
				return nil, fmt.Errorf("decode metadata for transfer %s: %w", entry.ID, err)
			}
			entry.Metadata = decoded
		}
		entry.Timestamp = time.UnixMilli(timestampMS).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return entries, nil
}
