// Package sqlite provides a SQLite-backed text store implementation.
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

	"github.com/louisbranch/tally.space/internal/engine/textstore"
	"github.com/louisbranch/tally.space/internal/engine/textstore/sqlite/migrations"
	"github.com/louisbranch/tally.space/internal/platform/storage/sqlitemigrate"
)

// Store persists text records in SQLite.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens a SQLite text store and applies embedded migrations.
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
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put stores a record, preserving creation time on overwrite, and
// returns its content key.
func (s *Store) Put(ctx context.Context, record textstore.Record) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	contentType := record.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	var metadata []byte
	if len(record.Metadata) > 0 {
		encoded, err := json.Marshal(record.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = encoded
	}
	key := textstore.ContentKey(record.Account, record.Field)
	now := s.clock().UTC().UnixMilli()

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO text_records (account, field, content, content_type, content_key, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account, field) DO UPDATE SET
		   content = excluded.content,
		   content_type = excluded.content_type,
		   metadata = excluded.metadata,
		   updated_at = excluded.updated_at`,
		record.Account,
		record.Field,
		record.Content,
		contentType,
		int64(key),
		metadata,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("store text record: %w", err)
	}
	return key, nil
}

// Get returns the stored record, or textstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, account, field string) (textstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return textstore.Record{}, err
	}
	var (
		record    textstore.Record
		metadata  sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT account, field, content, content_type, metadata, created_at, updated_at
		 FROM text_records WHERE account = ? AND field = ?`,
		account, field,
	).Scan(&record.Account, &record.Field, &record.Content, &record.ContentType, &metadata, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return textstore.Record{}, textstore.ErrNotFound
	}
	if err != nil {
		return textstore.Record{}, fmt.Errorf("read text record: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		decoded := make(map[string]string)
		if err := json.Unmarshal([]byte(metadata.String), &decoded); err != nil {
			return textstore.Record{}, fmt.Errorf("decode metadata: %w", err)
		}
		record.Metadata = decoded
	}
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return record, nil
}
