// Package domain defines the MCP tool schemas and handlers for the
// accounting engine.
package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tally.space/internal/engine/ledger"
)

// Accountant is the engine surface the accounting tools call.
type Accountant interface {
	Balance(ctx context.Context, account string) (int64, error)
	Transfer(ctx context.Context, from, to string, amount int64, metadata map[string]any) (string, error)
	Transfers(ctx context.Context) ([]ledger.Entry, error)
	LedgerState(ctx context.Context) (map[string]int64, error)
}

// BalanceInput represents the MCP tool input for a balance read.
type BalanceInput struct {
	Account string `json:"account" jsonschema:"colon-delimited account identifier"`
}

// BalanceResult represents the MCP tool output for a balance read.
type BalanceResult struct {
	Account string `json:"account" jsonschema:"account identifier"`
	Balance int64  `json:"balance" jsonschema:"current balance, 0 for unknown accounts"`
}

// TransferInput represents the MCP tool input for a transfer.
type TransferInput struct {
	From     string         `json:"from" jsonschema:"source account"`
	To       string         `json:"to" jsonschema:"destination account"`
	Amount   int64          `json:"amount" jsonschema:"positive integer amount"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"optional metadata attached to the transfer"`
}

// TransferResult represents the MCP tool output for a transfer.
type TransferResult struct {
	TransferID string `json:"transfer_id" jsonschema:"unique transfer identifier"`
}

// TransactionHistoryInput represents the MCP tool input for the
// transfer history listing.
type TransactionHistoryInput struct{}

// TransactionHistoryResult represents the MCP tool output for the
// transfer history listing.
type TransactionHistoryResult struct {
	Count     int            `json:"count" jsonschema:"number of transfers applied"`
	Transfers []ledger.Entry `json:"transfers" jsonschema:"transfer records in application order"`
}

// LedgerStateInput represents the MCP tool input for the derived
// ledger state.
type LedgerStateInput struct{}

// LedgerStateResult represents the MCP tool output for the derived
// ledger state.
type LedgerStateResult struct {
	Accounts int              `json:"accounts" jsonschema:"number of accounts with activity"`
	Balances map[string]int64 `json:"balances" jsonschema:"account to balance map derived from the log"`
}

// BalanceTool defines the MCP tool schema for balance reads.
func BalanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "balance",
		Description: "Reads the current balance of an account; unknown accounts report 0",
	}
}

// TransferTool defines the MCP tool schema for transfers.
func TransferTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transfer",
		Description: "Moves an amount from one account to another and records it in the transfer log",
	}
}

// TransactionHistoryTool defines the MCP tool schema for the transfer
// history listing.
func TransactionHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transaction_history",
		Description: "Lists every applied transfer in application order",
	}
}

// LedgerStateTool defines the MCP tool schema for the derived ledger
// state.
func LedgerStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ledger_state",
		Description: "Derives the account-to-balance map by replaying the transfer log",
	}
}

// BalanceHandler executes a balance read.
func BalanceHandler(accountant Accountant) mcp.ToolHandlerFor[BalanceInput, BalanceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BalanceInput) (*mcp.CallToolResult, BalanceResult, error) {
		balance, err := accountant.Balance(ctx, input.Account)
		if err != nil {
			return nil, BalanceResult{}, fmt.Errorf("balance read failed: %w", err)
		}
		return nil, BalanceResult{Account: input.Account, Balance: balance}, nil
	}
}

// TransferHandler executes a transfer.
func TransferHandler(accountant Accountant) mcp.ToolHandlerFor[TransferInput, TransferResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TransferInput) (*mcp.CallToolResult, TransferResult, error) {
		id, err := accountant.Transfer(ctx, input.From, input.To, input.Amount, input.Metadata)
		if err != nil {
			return nil, TransferResult{}, fmt.Errorf("transfer failed: %w", err)
		}
		return nil, TransferResult{TransferID: id}, nil
	}
}

// TransactionHistoryHandler returns the full transfer history.
func TransactionHistoryHandler(accountant Accountant) mcp.ToolHandlerFor[TransactionHistoryInput, TransactionHistoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ TransactionHistoryInput) (*mcp.CallToolResult, TransactionHistoryResult, error) {
		entries, err := accountant.Transfers(ctx)
		if err != nil {
			return nil, TransactionHistoryResult{}, fmt.Errorf("transaction history failed: %w", err)
		}
		return nil, TransactionHistoryResult{Count: len(entries), Transfers: entries}, nil
	}
}

// LedgerStateHandler derives the ledger state from the transfer log.
func LedgerStateHandler(accountant Accountant) mcp.ToolHandlerFor[LedgerStateInput, LedgerStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ LedgerStateInput) (*mcp.CallToolResult, LedgerStateResult, error) {
		state, err := accountant.LedgerState(ctx)
		if err != nil {
			return nil, LedgerStateResult{}, fmt.Errorf("ledger state failed: %w", err)
		}
		return nil, LedgerStateResult{Accounts: len(state), Balances: state}, nil
	}
}
