// Package service tests the MCP server wiring.
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/ledger"
	"github.com/louisbranch/tally.space/internal/engine/recipe"
	"github.com/louisbranch/tally.space/internal/services/mcp/domain"
)

const testRecipes = `{
	"recipes": {
		"create_product": {
			"description": "Create a product",
			"inputs": ["id", "name", "price"],
			"operations": [
				{"type": "transfer", "from": "system:genesis", "to": "product:{id}:existence", "amount": 1},
				{"type": "transfer", "from": "system:genesis", "to": "product:{id}:price", "amount": "hash({price})", "metadata": {"price": "{price}"}}
			],
			"return": {"id": "{id}", "status": "created"}
		},
		"read_product": {
			"description": "Read a product",
			"inputs": ["id"],
			"operations": [
				{"type": "balance", "account": "product:{id}:existence", "condition": "> 0", "on_fail": "return null"},
				{"type": "get_metadata", "account": "product:{id}:price", "field": "price", "store_as": "price"}
			],
			"return": {"id": "{id}", "price": "{price}"}
		}
	}
}`

func newTestDeps(t *testing.T) (*engine.Engine, *recipe.Interpreter) {
	t.Helper()
	set, err := recipe.Parse([]byte(testRecipes))
	if err != nil {
		t.Fatalf("parse recipes: %v", err)
	}
	eng := engine.New(ledger.NewMemoryStore(), ledger.NewMemoryLog())
	return eng, recipe.New(set, eng)
}

// TestNewConfiguresServer ensures New returns a configured server.
func TestNewConfiguresServer(t *testing.T) {
	eng, interp := newTestDeps(t)
	server := New(eng, interp)
	if server == nil || server.mcpServer == nil {
		t.Fatal("expected configured server")
	}
}

// TestServeRequiresConfiguredServer ensures Serve reports an error
// when unconfigured.
func TestServeRequiresConfiguredServer(t *testing.T) {
	tests := []struct {
		name   string
		server *Server
	}{
		{name: "nil server", server: nil},
		{name: "missing mcp server", server: &Server{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.server.Serve(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// TestRunRejectsUnsupportedTransport ensures unknown transports fail.
func TestRunRejectsUnsupportedTransport(t *testing.T) {
	eng, interp := newTestDeps(t)
	server := New(eng, interp)

	if err := server.Run(context.Background(), Config{Transport: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

// TestServeStopsOnContext ensures serving exits cleanly when the
// context is cancelled.
func TestServeStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, interp := newTestDeps(t)
	server := New(eng, interp)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), time.Second)
	defer clientCancel()
	clientSession, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer clientSession.Close()

	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

// TestToolsRoundTripOverSession drives transfer, balance, and recipe
// tools through an in-memory client session.
func TestToolsRoundTripOverSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eng, interp := newTestDeps(t)
	server := New(eng, interp)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer clientSession.Close()

	tools, err := clientSession.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 6 {
		t.Fatalf("tool count = %d, want 6", len(tools.Tools))
	}

	transfer, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
		Name: "transfer",
		Arguments: map[string]any{
			"from":   "system:genesis",
			"to":     "wallet:a",
			"amount": 10,
		},
	})
	if err != nil {
		t.Fatalf("call transfer: %v", err)
	}
	if transfer.IsError {
		t.Fatalf("transfer tool errored: %v", transfer.Content)
	}

	balance, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
		Name:      "balance",
		Arguments: map[string]any{"account": "wallet:a"},
	})
	if err != nil {
		t.Fatalf("call balance: %v", err)
	}
	structured, ok := balance.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("balance structured content = %T, want object", balance.StructuredContent)
	}
	if structured["balance"] != float64(10) {
		t.Fatalf("balance = %v, want 10", structured["balance"])
	}

	created, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
		Name: "execute_recipe",
		Arguments: map[string]any{
			"name":   "create_product",
			"inputs": map[string]any{"id": "p1", "name": "Widget", "price": 9.99},
		},
	})
	if err != nil {
		t.Fatalf("call execute_recipe: %v", err)
	}
	if created.IsError {
		t.Fatalf("execute_recipe errored: %v", created.Content)
	}
}

// TestTransferHandlerReturnsEngineError ensures engine failures become
// tool errors.
func TestTransferHandlerReturnsEngineError(t *testing.T) {
	eng, _ := newTestDeps(t)
	handler := domain.TransferHandler(eng)

	result, _, err := handler(context.Background(), &mcp.CallToolRequest{}, domain.TransferInput{
		From: "wallet:empty", To: "wallet:b", Amount: 5,
	})
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if result != nil {
		t.Fatal("expected nil result on error")
	}
}

// TestExecuteRecipeHandlerNullResult ensures on_fail short circuits
// surface as a null result flag, not a tool error.
func TestExecuteRecipeHandlerNullResult(t *testing.T) {
	_, interp := newTestDeps(t)
	handler := domain.ExecuteRecipeHandler(interp)

	result, output, err := handler(context.Background(), &mcp.CallToolRequest{}, domain.ExecuteRecipeInput{
		Name:   "read_product",
		Inputs: map[string]any{"id": "ghost"},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result != nil {
		t.Fatal("expected nil result on success")
	}
	if !output.Null || output.Result != nil {
		t.Fatalf("output = %+v, want null flag set", output)
	}
}

// TestExecuteRecipeHandlerUnknownRecipe ensures unregistered names
// fail the tool call.
func TestExecuteRecipeHandlerUnknownRecipe(t *testing.T) {
	_, interp := newTestDeps(t)
	handler := domain.ExecuteRecipeHandler(interp)

	if _, _, err := handler(context.Background(), &mcp.CallToolRequest{}, domain.ExecuteRecipeInput{
		Name: "no_such_recipe",
	}); err == nil {
		t.Fatal("expected error for unknown recipe")
	}
}

// TestListRecipesHandlerSummaries ensures listings carry counts and
// descriptions.
func TestListRecipesHandlerSummaries(t *testing.T) {
	_, interp := newTestDeps(t)
	handler := domain.ListRecipesHandler(interp)

	_, output, err := handler(context.Background(), &mcp.CallToolRequest{}, domain.ListRecipesInput{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if output.Count != 2 {
		t.Fatalf("count = %d, want 2", output.Count)
	}
	if output.Recipes["create_product"].OperationsCount != 2 {
		t.Fatalf("create_product operations = %d, want 2", output.Recipes["create_product"].OperationsCount)
	}
}
