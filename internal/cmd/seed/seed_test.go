package seed

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "tally.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.TextDBPath != "tally-text.db" {
		t.Fatalf("expected default text db path, got %q", cfg.TextDBPath)
	}
}

func TestRunSeedsSQLiteStores(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DBPath:     filepath.Join(dir, "ledger.db"),
		TextDBPath: filepath.Join(dir, "text.db"),
	}

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}
