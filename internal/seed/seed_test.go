package seed

import (
	"context"
	"testing"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/ledger"
	"github.com/louisbranch/tally.space/internal/engine/textstore"
)

// TestRunSeedsCatalogue checks the demo catalogue lands in the engine
// and text store.
func TestRunSeedsCatalogue(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(ledger.NewMemoryStore(), ledger.NewMemoryLog())
	texts := textstore.NewMemoryStore()

	if err := Run(ctx, eng, texts); err != nil {
		t.Fatalf("run: %v", err)
	}

	existence, err := eng.Balance(ctx, "product:laptop-001:existence")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if existence != 1 {
		t.Fatalf("laptop existence = %d, want 1", existence)
	}

	price, err := eng.Balance(ctx, "product:laptop-001:price")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if price != 149999 {
		t.Fatalf("laptop price = %d, want 149999", price)
	}

	// Alice paid for the book out of her starting balance.
	wallet, err := eng.Balance(ctx, "user:alice:balance")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if wallet != 50000-1999 {
		t.Fatalf("alice balance = %d, want %d", wallet, 50000-1999)
	}

	revenue, err := eng.Balance(ctx, "store:revenue")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if revenue != 1999 {
		t.Fatalf("store revenue = %d, want 1999", revenue)
	}

	profile, err := texts.Get(ctx, "user:alice", "email")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Content != "alice@example.com" {
		t.Fatalf("alice email = %q", profile.Content)
	}
}
