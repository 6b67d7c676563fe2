// Package server parses API server flags and runs the HTTP surface.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/ledger"
	ledgersqlite "github.com/louisbranch/tally.space/internal/engine/ledger/sqlite"
	"github.com/louisbranch/tally.space/internal/engine/recipe"
	"github.com/louisbranch/tally.space/internal/engine/textstore"
	textsqlite "github.com/louisbranch/tally.space/internal/engine/textstore/sqlite"
	"github.com/louisbranch/tally.space/internal/platform/config"
	"github.com/louisbranch/tally.space/internal/platform/otel"
	"github.com/louisbranch/tally.space/internal/services/api"
)

const version = "0.1.0"

// Config holds API server configuration.
type Config struct {
	Addr        string `env:"TALLY_SPACE_HTTP_ADDR" envDefault:"localhost:8080"`
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

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite ledger path (empty = in-memory)")
	fs.StringVar(&cfg.TextDBPath, "text-db", cfg.TextDBPath, "SQLite text store path (empty = in-memory)")
	fs.StringVar(&cfg.RecipesPath, "recipes", cfg.RecipesPath, "recipe document path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the HTTP server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "server")
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

	eng, storeKind, closeStores, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := eng.EnsureSystemAccounts(ctx); err != nil {
		return fmt.Errorf("ensure system accounts: %w", err)
	}

	texts, closeTexts, err := buildTextStore(cfg)
	if err != nil {
		return err
	}
	defer closeTexts()

	set := recipe.LoadOrEmpty(cfg.RecipesPath)
	log.Printf("loaded %d recipes from %s", set.Len(), cfg.RecipesPath)
	interp := recipe.New(set, eng, recipe.WithTextStore(texts))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.New(eng, interp, version, storeKind).Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("serving HTTP on %s (store: %s)", cfg.Addr, storeKind)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// buildEngine selects the ledger backend from config: SQLite when a
// path is set, in-memory otherwise.
func buildEngine(cfg Config) (*engine.Engine, string, func(), error) {
	if cfg.DBPath == "" {
		return engine.New(ledger.NewMemoryStore(), ledger.NewMemoryLog()), "memory", func() {}, nil
	}
	store, err := ledgersqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open ledger store: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
	return engine.New(store, store), "sqlite", closeStore, nil
}

// buildTextStore selects the text backend the same way.
func buildTextStore(cfg Config) (textstore.Store, func(), error) {
	if cfg.TextDBPath == "" {
		return textstore.NewMemoryStore(), func() {}, nil
	}
	store, err := textsqlite.Open(cfg.TextDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open text store: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Printf("close text store: %v", err)
		}
	}
	return store, closeStore, nil
}
