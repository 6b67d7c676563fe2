// Package seed parses seeding flags and loads the demo catalogue.
package seed

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/louisbranch/tally.space/internal/engine"
	ledgersqlite "github.com/louisbranch/tally.space/internal/engine/ledger/sqlite"
	textsqlite "github.com/louisbranch/tally.space/internal/engine/textstore/sqlite"
	"github.com/louisbranch/tally.space/internal/platform/config"
	"github.com/louisbranch/tally.space/internal/seed"
)

// Config holds seed command configuration. Seeding writes durable
// state, so both stores must be SQLite paths.
type Config struct {
	DBPath     string `env:"TALLY_SPACE_DB_PATH"      envDefault:"tally.db"`
	TextDBPath string `env:"TALLY_SPACE_TEXT_DB_PATH" envDefault:"tally-text.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite ledger path")
	fs.StringVar(&cfg.TextDBPath, "text-db", cfg.TextDBPath, "SQLite text store path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the demo catalogue into the configured stores.
func Run(ctx context.Context, cfg Config) error {
	store, err := ledgersqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}()

	texts, err := textsqlite.Open(cfg.TextDBPath)
	if err != nil {
		return fmt.Errorf("open text store: %w", err)
	}
	defer func() {
		if err := texts.Close(); err != nil {
			log.Printf("close text store: %v", err)
		}
	}()

	eng := engine.New(store, store)
	return seed.Run(ctx, eng, texts)
}
