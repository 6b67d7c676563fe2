package otel

import (
	"context"
	"testing"
)

// TestSetupDisabledByDefault ensures Setup is a no-op without an
// endpoint configured.
func TestSetupDisabledByDefault(t *testing.T) {
	t.Setenv("TALLY_SPACE_OTEL_ENDPOINT", "")

	shutdown, err := Setup(context.Background(), "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

// TestSetupRespectsDisableFlag ensures an explicit disable wins over a
// configured endpoint.
func TestSetupRespectsDisableFlag(t *testing.T) {
	t.Setenv("TALLY_SPACE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("TALLY_SPACE_OTEL_ENABLED", "false")

	shutdown, err := Setup(context.Background(), "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
