// Package seed loads a small demo catalogue into the accounting
// engine: products with hashed attributes, users with text profiles,
// and an order flow paying product revenue out of a user balance.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/textstore"
)

type product struct {
	id          string
	name        string
	description string
	priceCents  int64
	category    string
}

type user struct {
	id    string
	name  string
	email string
	role  string
}

var products = []product{
	{"laptop-001", "Gaming Laptop", "High-performance laptop for gaming and development", 149999, "Electronics"},
	{"book-001", "The Accounting Manifesto", "Every mutation is a transfer; every entity is an account", 1999, "Books"},
}

var users = []user{
	{"alice", "Alice Johnson", "alice@example.com", "Full-Stack Developer"},
	{"bob", "Bob Wilson", "bob@example.com", "DevOps Engineer"},
	{"charlie", "Charlie Brown", "charlie@example.com", "Product Manager"},
}

// Run populates the engine and text store with the demo catalogue.
// Seeding is additive; it assumes a fresh ledger.
func Run(ctx context.Context, eng *engine.Engine, texts textstore.Store) error {
	if err := eng.EnsureSystemAccounts(ctx); err != nil {
		return fmt.Errorf("ensure system accounts: %w", err)
	}

	for _, p := range products {
		if err := seedProduct(ctx, eng, p); err != nil {
			return err
		}
		log.Printf("seeded product %s (%s)", p.id, p.name)
	}

	for _, u := range users {
		if err := seedUser(ctx, eng, texts, u); err != nil {
			return err
		}
		log.Printf("seeded user %s (%s)", u.id, u.name)
	}

	if err := seedOrder(ctx, eng, texts); err != nil {
		return err
	}
	log.Printf("seeded demo order and review")
	return nil
}

func seedProduct(ctx context.Context, eng *engine.Engine, p product) error {
	account := "product:" + p.id
	transfers := []struct {
		to       string
		amount   int64
		metadata map[string]any
	}{
		{account + ":existence", 1, nil},
		{account + ":name", engine.HashText(p.name), map[string]any{"name": p.name}},
		{account + ":description", engine.HashText(p.description), map[string]any{"description": p.description}},
		{account + ":price", p.priceCents, map[string]any{"price_cents": p.priceCents}},
		{account + ":category", engine.HashText(p.category), map[string]any{"category": p.category}},
	}
	for _, tr := range transfers {
		if _, err := eng.Transfer(ctx, engine.GenesisAccount, tr.to, tr.amount, tr.metadata); err != nil {
			return fmt.Errorf("seed product %s: %w", p.id, err)
		}
	}
	return nil
}

func seedUser(ctx context.Context, eng *engine.Engine, texts textstore.Store, u user) error {
	account := "user:" + u.id
	if _, err := eng.Transfer(ctx, engine.GenesisAccount, account+":existence", 1, nil); err != nil {
		return fmt.Errorf("seed user %s: %w", u.id, err)
	}
	// Every demo user starts with a $500.00 balance.
	if _, err := eng.Transfer(ctx, engine.GenesisAccount, account+":balance", 50000, nil); err != nil {
		return fmt.Errorf("seed user %s balance: %w", u.id, err)
	}

	fields := map[string]string{
		"name":  u.name,
		"email": u.email,
		"role":  u.role,
	}
	for field, content := range fields {
		if _, err := texts.Put(ctx, textstore.Record{
			Account:     account,
			Field:       field,
			Content:     content,
			ContentType: "text/plain",
		}); err != nil {
			return fmt.Errorf("seed user %s profile: %w", u.id, err)
		}
	}
	return nil
}

// seedOrder has alice buy the book and leave a five-star review. The
// payment is a real debit, so it must fit her starting balance.
func seedOrder(ctx context.Context, eng *engine.Engine, texts textstore.Store) error {
	const orderAccount = "order:001"
	const reviewAccount = "review:001"

	price, err := eng.Balance(ctx, "product:book-001:price")
	if err != nil {
		return fmt.Errorf("read book price: %w", err)
	}
	if _, err := eng.Transfer(ctx, "user:alice:balance", "store:revenue", price, map[string]any{
		"order_id":   orderAccount,
		"product_id": "book-001",
	}); err != nil {
		return fmt.Errorf("seed order payment: %w", err)
	}

	// Status 1 = pending.
	if _, err := eng.Transfer(ctx, engine.GenesisAccount, orderAccount+":status", 1, nil); err != nil {
		return fmt.Errorf("seed order status: %w", err)
	}
	orderFields := map[string]string{
		"user_id":          "alice",
		"product_id":       "book-001",
		"shipping_address": "123 Main St, San Francisco, CA",
		"notes":            "Please handle with care",
	}
	for field, content := range orderFields {
		if _, err := texts.Put(ctx, textstore.Record{
			Account:     orderAccount,
			Field:       field,
			Content:     content,
			ContentType: "text/plain",
		}); err != nil {
			return fmt.Errorf("seed order field %s: %w", field, err)
		}
	}

	if _, err := eng.Transfer(ctx, engine.GenesisAccount, reviewAccount+":rating", 5, nil); err != nil {
		return fmt.Errorf("seed review rating: %w", err)
	}
	if _, err := texts.Put(ctx, textstore.Record{
		Account:     reviewAccount,
		Field:       "content",
		Content:     "Changed how I think about backends. Arrived quickly too.",
		ContentType: "text/plain",
	}); err != nil {
		return fmt.Errorf("seed review content: %w", err)
	}
	return nil
}
