package migrations

import "embed"

// FS contains embedded SQLite migrations for text storage.
//
//go:embed *.sql
var FS embed.FS
