// Package mcp parses MCP command flags and selects stdio or HTTP
// transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/ledger"
	ledgersqlite "github.com/louisbranch/tally.space/internal/engine/ledger/sqlite"
	"github.com/louisbranch/tally.space/internal/engine/recipe"
	"github.com/louisbranch/tally.space/internal/engine/textstore"
	textsqlite "github.com/louisbranch/tally.space/internal/engine/textstore/sqlite"
	"github.com/louisbranch/tally.space/internal/platform/config"
	"github.com/louisbranch/tally.space/internal/platform/otel"
	"github.com/louisbranch/tally.space/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr    string `env:"TALLY_SPACE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	Transport   string `env:"TALLY_SPACE_MCP_TRANSPORT" envDefault:"stdio"`
	DBPath      string `env:"TALLY_SPACE_DB_PATH"`
	TextDBPath  string `env:"TALLY_SPACE_TEXT_DB_PATH"`
	RecipesPath string `env:"TALLY_SPACE_RECIPES_PATH" envDefault:"recipes.json"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite ledger path (empty = in-memory)")
	fs.StringVar(&cfg.TextDBPath, "text-db", cfg.TextDBPath, "SQLite text store path (empty = in-memory)")
	fs.StringVar(&cfg.RecipesPath, "recipes", cfg.RecipesPath, "recipe document path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	var (
		store ledger.Store
		tlog  ledger.Log
		texts textstore.Store
	)
	if cfg.DBPath == "" {
		store, tlog = ledger.NewMemoryStore(), ledger.NewMemoryLog()
	} else {
		sqlStore, err := ledgersqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open ledger store: %w", err)
		}
		defer func() {
			if err := sqlStore.Close(); err != nil {
				log.Printf("close ledger store: %v", err)
			}
		}()
		store, tlog = sqlStore, sqlStore
	}
	if cfg.TextDBPath == "" {
		texts = textstore.NewMemoryStore()
	} else {
		sqlTexts, err := textsqlite.Open(cfg.TextDBPath)
		if err != nil {
			return fmt.Errorf("open text store: %w", err)
		}
		defer func() {
			if err := sqlTexts.Close(); err != nil {
				log.Printf("close text store: %v", err)
			}
		}()
		texts = sqlTexts
	}

	eng := engine.New(store, tlog)
	if err := eng.EnsureSystemAccounts(ctx); err != nil {
		return fmt.Errorf("ensure system accounts: %w", err)
	}

	set := recipe.LoadOrEmpty(cfg.RecipesPath)
	log.Printf("loaded %d recipes from %s", set.Len(), cfg.RecipesPath)
	interp := recipe.New(set, eng, recipe.WithTextStore(texts))

	return service.New(eng, interp).Run(ctx, service.Config{
		Transport: service.TransportKind(cfg.Transport),
		HTTPAddr:  cfg.HTTPAddr,
	})
}
