package recipe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/tally.space/internal/engine/textstore"
)

const tracerName = "tally.space/recipe"

// Accountant is the transfer executor surface the interpreter drives.
// All ledger access goes through it; the interpreter never mutates
// balances directly.
type Accountant interface {
	Balance(ctx context.Context, account string) (int64, error)
	Transfer(ctx context.Context, from, to string, amount int64, metadata map[string]any) (string, error)
	LatestMetadata(ctx context.Context, account, field string) (any, bool, error)
}

// Interpreter executes recipes from a set against an accountant.
type Interpreter struct {
	set    *Set
	ledger Accountant
	texts  textstore.Store
	tracer trace.Tracer
}

// Option adjusts interpreter construction.
type Option func(*Interpreter)

// WithTextStore enables operations flagged "text": true, which keep
// long-form content in the given store instead of hashed balances.
func WithTextStore(store textstore.Store) Option {
	return func(it *Interpreter) { it.texts = store }
}

// New creates an interpreter over the given recipe set and accountant.
func New(set *Set, accountant Accountant, opts ...Option) *Interpreter {
	it := &Interpreter{
		set:    set,
		ledger: accountant,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Recipes returns the interpreter's recipe set.
func (it *Interpreter) Recipes() *Set {
	return it.set
}

// Execute runs a named recipe with the given inputs. Operations run
// strictly in declaration order; each store_as result becomes visible
// to later operations in the same run. A nil result with a nil error
// means the recipe short-circuited via an on_fail "return" directive.
//
// Failures after some transfers have applied are not rolled back; each
// transfer is atomic on its own, but a recipe run is not a transaction.
func (it *Interpreter) Execute(ctx context.Context, name string, inputs map[string]any) (map[string]any, error) {
	ctx, span := it.tracer.Start(ctx, "recipe.Execute", trace.WithAttributes(
		attribute.String("recipe.name", name),
	))
	defer span.End()

	r, ok := it.set.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}

	stored := make(map[string]any)
	for i, op := range r.Operations {
		result, err := it.executeOperation(ctx, op, inputs, stored)
		if err != nil {
			if strings.HasPrefix(op.OnFail, "return") {
				return nil, nil
			}
			return nil, fmt.Errorf("recipe %s operation %d (%s): %w", name, i+1, op.Type, err)
		}
		if op.StoreAs != "" {
			stored[op.StoreAs] = result
		}
	}

	if r.Return != nil {
		out := make(map[string]any, len(r.Return))
		for key, template := range r.Return {
			out[key] = interpolateValue(template, inputs, stored)
		}
		return out, nil
	}
	return stored, nil
}

func (it *Interpreter) executeOperation(ctx context.Context, op Operation, inputs, stored map[string]any) (any, error) {
	switch op.Type {
	case OpTransfer:
		return it.executeTransfer(ctx, op, inputs, stored)
	case OpBalance:
		return it.executeBalance(ctx, op, inputs, stored)
	case OpGetMetadata:
		return it.executeGetMetadata(ctx, op, inputs, stored)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Type)
	}
}

func (it *Interpreter) executeTransfer(ctx context.Context, op Operation, inputs, stored map[string]any) (any, error) {
	from := Interpolate(op.From, inputs, stored)
	to := Interpolate(op.To, inputs, stored)

	if op.Text {
		return it.executeTextTransfer(ctx, op, from, to, inputs, stored)
	}

	amount, err := EvaluateAmount(op.Amount, inputs, stored)
	if err != nil {
		return nil, err
	}
	return it.ledger.Transfer(ctx, from, to, amount, interpolateMetadata(op.Metadata, inputs, stored))
}

// executeTextTransfer stores the interpolated amount expression as
// long-form text keyed by the destination account and applies a 1-unit
// reference transfer whose metadata carries the content key.
func (it *Interpreter) executeTextTransfer(ctx context.Context, op Operation, from, to string, inputs, stored map[string]any) (any, error) {
	if it.texts == nil {
		return nil, errors.New("text storage not configured")
	}
	template, ok := op.Amount.(string)
	if !ok {
		return nil, fmt.Errorf("%w: text operations need a string amount expression", ErrUnparseableAmount)
	}
	content := Interpolate(template, inputs, stored)

	recordMeta := make(map[string]string, len(op.Metadata))
	for key, value := range op.Metadata {
		recordMeta[key] = Interpolate(value, inputs, stored)
	}
	key, err := it.texts.Put(ctx, textstore.Record{
		Account:     to,
		Field:       "value",
		Content:     content,
		ContentType: "text/plain",
		Metadata:    recordMeta,
	})
	if err != nil {
		return nil, fmt.Errorf("store text content: %w", err)
	}

	metadata := interpolateMetadata(op.Metadata, inputs, stored)
	if metadata == nil {
		metadata = make(map[string]any, 2)
	}
	metadata["storage"] = "text"
	metadata["content_key"] = strconv.FormatUint(key, 10)
	return it.ledger.Transfer(ctx, from, to, 1, metadata)
}

func (it *Interpreter) executeBalance(ctx context.Context, op Operation, inputs, stored map[string]any) (any, error) {
	account := Interpolate(op.Account, inputs, stored)
	balance, err := it.ledger.Balance(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("read balance of %s: %w", account, err)
	}
	if op.Condition != "" {
		if err := checkCondition(op.Condition, account, balance); err != nil {
			return nil, err
		}
	}
	if op.Text {
		return it.readTextContent(ctx, account, balance)
	}
	return balance, nil
}

// readTextContent resolves a text-flagged balance read to the stored
// content. A zero reference balance or absent record yields null.
func (it *Interpreter) readTextContent(ctx context.Context, account string, balance int64) (any, error) {
	if it.texts == nil {
		return nil, errors.New("text storage not configured")
	}
	if balance <= 0 {
		return nil, nil
	}
	record, err := it.texts.Get(ctx, account, "value")
	if errors.Is(err, textstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read text content of %s: %w", account, err)
	}
	return record.Content, nil
}

func (it *Interpreter) executeGetMetadata(ctx context.Context, op Operation, inputs, stored map[string]any) (any, error) {
	account := Interpolate(op.Account, inputs, stored)
	value, found, err := it.ledger.LatestMetadata(ctx, account, op.Field)
	if err != nil {
		return nil, fmt.Errorf("read metadata of %s: %w", account, err)
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

// checkCondition evaluates the closed set of balance conditions:
// "> 0", ">= n", "== n".
func checkCondition(condition, account string, balance int64) error {
	switch {
	case condition == "> 0":
		if balance <= 0 {
			return fmt.Errorf("%w: %s = %d, want > 0", ErrConditionFailed, account, balance)
		}
	case strings.HasPrefix(condition, ">= "):
		min, err := strconv.ParseInt(strings.TrimSpace(condition[3:]), 10, 64)
		if err != nil {
			return fmt.Errorf("malformed balance condition %q", condition)
		}
		if balance < min {
			return fmt.Errorf("%w: %s = %d, want %s", ErrConditionFailed, account, balance, condition)
		}
	case strings.HasPrefix(condition, "== "):
		want, err := strconv.ParseInt(strings.TrimSpace(condition[3:]), 10, 64)
		if err != nil {
			return fmt.Errorf("malformed balance condition %q", condition)
		}
		if balance != want {
			return fmt.Errorf("%w: %s = %d, want %s", ErrConditionFailed, account, balance, condition)
		}
	default:
		return fmt.Errorf("malformed balance condition %q", condition)
	}
	return nil
}

func interpolateMetadata(metadata map[string]string, inputs, stored map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for key, template := range metadata {
		out[key] = interpolateValue(template, inputs, stored)
	}
	return out
}
