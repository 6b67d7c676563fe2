package recipe

import (
	"errors"
	"testing"

	"github.com/louisbranch/tally.space/internal/engine"
)

// TestInterpolateSubstitutesPlaceholders covers plain substitution of
// inputs and stored values.
func TestInterpolateSubstitutesPlaceholders(t *testing.T) {
	inputs := map[string]any{"id": "p1", "price": 9.99}
	stored := map[string]any{"count": int64(3)}

	got := Interpolate("product:{id}:{count}@{price}", inputs, stored)
	if got != "product:p1:3@9.99" {
		t.Fatalf("interpolated = %q, want product:p1:3@9.99", got)
	}
}

// TestInterpolateStoredOverridesInputs pins the precedence rule: a
// stored value sharing a key with an input wins.
func TestInterpolateStoredOverridesInputs(t *testing.T) {
	inputs := map[string]any{"id": "from-input"}
	stored := map[string]any{"id": "from-stored"}

	if got := Interpolate("{id}", inputs, stored); got != "from-stored" {
		t.Fatalf("interpolated = %q, want from-stored", got)
	}
}

// TestInterpolateValueKeepsTypes ensures bare-placeholder templates
// return the underlying value untouched while mixed templates become
// strings.
func TestInterpolateValueKeepsTypes(t *testing.T) {
	inputs := map[string]any{"price": 9.99, "name": "Widget"}

	price := interpolateValue("{price}", inputs, nil)
	if got, ok := price.(float64); !ok || got != 9.99 {
		t.Fatalf("bare placeholder = %v (%T), want 9.99 (float64)", price, price)
	}

	label := interpolateValue("{name}: {price}", inputs, nil)
	if got, ok := label.(string); !ok || got != "Widget: 9.99" {
		t.Fatalf("mixed template = %v (%T), want string", label, label)
	}

	missing := interpolateValue("{ghost}", inputs, nil)
	if got, ok := missing.(string); !ok || got != "{ghost}" {
		t.Fatalf("unresolved placeholder = %v, want literal {ghost}", missing)
	}
}

// TestEvaluateAmountLiterals covers numeric passthrough and rejection
// of fractional literals.
func TestEvaluateAmountLiterals(t *testing.T) {
	if got, err := EvaluateAmount(float64(42), nil, nil); err != nil || got != 42 {
		t.Fatalf("EvaluateAmount(42) = %d, %v", got, err)
	}
	if _, err := EvaluateAmount(9.99, nil, nil); !errors.Is(err, ErrUnparseableAmount) {
		t.Fatalf("fractional literal error = %v, want ErrUnparseableAmount", err)
	}
}

// TestEvaluateAmountHash ensures hash(...) expressions resolve through
// the stable text hash after interpolation.
func TestEvaluateAmountHash(t *testing.T) {
	inputs := map[string]any{"name": "Widget"}

	got, err := EvaluateAmount("hash({name})", inputs, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if want := engine.HashText("Widget"); got != want {
		t.Fatalf("hash amount = %d, want %d", got, want)
	}
}

// TestEvaluateAmountTimestamp ensures timestamp() yields epoch millis.
func TestEvaluateAmountTimestamp(t *testing.T) {
	before := engine.NowMillis()
	got, err := EvaluateAmount("timestamp()", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	after := engine.NowMillis()
	if got < before || got > after {
		t.Fatalf("timestamp amount = %d, want within [%d, %d]", got, before, after)
	}
}

// TestEvaluateAmountParsesInterpolatedIntegers covers the fallback
// integer parse and its failure mode.
func TestEvaluateAmountParsesInterpolatedIntegers(t *testing.T) {
	stored := map[string]any{"existence": int64(1)}

	if got, err := EvaluateAmount("{existence}", nil, stored); err != nil || got != 1 {
		t.Fatalf("EvaluateAmount({existence}) = %d, %v", got, err)
	}
	if _, err := EvaluateAmount("not a number", nil, nil); !errors.Is(err, ErrUnparseableAmount) {
		t.Fatalf("non-numeric error = %v, want ErrUnparseableAmount", err)
	}
}
