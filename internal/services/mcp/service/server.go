// Package service hosts the MCP server exposing the accounting engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tally.space/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Tally Space MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures how the MCP server is served.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP listen address; defaults to localhost:8081 for HTTP transport.
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New creates an MCP server wired to the given accountant and recipe
// runner.
func New(accountant domain.Accountant, runner domain.RecipeRunner) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(mcpServer, domain.BalanceTool(), domain.BalanceHandler(accountant))
	mcp.AddTool(mcpServer, domain.TransferTool(), domain.TransferHandler(accountant))
	mcp.AddTool(mcpServer, domain.TransactionHistoryTool(), domain.TransactionHistoryHandler(accountant))
	mcp.AddTool(mcpServer, domain.LedgerStateTool(), domain.LedgerStateHandler(accountant))
	mcp.AddTool(mcpServer, domain.ExecuteRecipeTool(), domain.ExecuteRecipeHandler(runner))
	mcp.AddTool(mcpServer, domain.ListRecipesTool(), domain.ListRecipesHandler(runner))

	return &Server{mcpServer: mcpServer}
}

// Run serves the MCP server over the configured transport until the
// context ends.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return s.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return s.serveHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or
// the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided
// transport. Context cancellation is a clean stop, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// serveHTTP serves MCP over streamable HTTP until the context ends.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	// Localhost-only binding by default.
	if addr == "" {
		addr = "localhost:8081"
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	httpServer := &http.Server{Addr: addr, Handler: handler}
	log.Printf("serving MCP over HTTP on %s", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("MCP HTTP server: %w", err)
	}
}
