package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/tally.space/internal/engine/ledger"
)

const (
	// GenesisAccount is the unlimited source of value. It is never
	// debited regardless of how much is transferred from it.
	GenesisAccount = "system:genesis"
	// DeletedAccount is where deleted entities move their balances by
	// convention. The original accounts and their history remain
	// queryable.
	DeletedAccount = "system:deleted"
	// OperationsAccount collects operational bookkeeping value.
	OperationsAccount = "system:operations"
)

const tracerName = "tally.space/engine"

// Engine is the transfer executor: the single enforcement point through
// which every balance mutation flows. It owns the check-then-act
// sequence on the source balance and guarantees that ledger mutation
// and log append happen together.
type Engine struct {
	store ledger.Store
	log   ledger.Log

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	clock  func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// Option adjusts engine construction, mainly for tests.
type Option func(*Engine)

// WithClock overrides the transfer timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator overrides transfer id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over the given balance store and transfer log.
func New(store ledger.Store, log ledger.Log, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
		clock:  time.Now,
		tracer: otel.Tracer(tracerName),
		newID: func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", fmt.Errorf("generate transfer id: %w", err)
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Balance returns the current balance of an account. Unknown accounts
// report zero; the read never fails on account absence.
func (e *Engine) Balance(ctx context.Context, account string) (int64, error) {
	return e.store.BalanceOf(ctx, account)
}

// Transfer moves amount from one account to another, appending exactly
// one log entry, and returns the new transfer id.
//
// It fails with ErrInvalidAmount when amount <= 0 and with
// ErrInsufficientFunds when a non-genesis source cannot cover the
// debit. The balance check and the mutation happen under per-account
// locks, so concurrent transfers debiting the same account serialize
// while transfers on disjoint accounts proceed without contention.
func (e *Engine) Transfer(ctx context.Context, from, to string, amount int64, metadata map[string]any) (string, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Transfer", trace.WithAttributes(
		attribute.String("ledger.from", from),
		attribute.String("ledger.to", to),
		attribute.Int64("ledger.amount", amount),
	))
	defer span.End()

	if amount <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	unlock := e.lockAccounts(from, to)
	defer unlock()

	if from != GenesisAccount {
		balance, err := e.store.BalanceOf(ctx, from)
		if err != nil {
			return "", fmt.Errorf("read balance of %s: %w", from, err)
		}
		if balance < amount {
			return "", fmt.Errorf("%w: %s holds %d, transfer needs %d", ErrInsufficientFunds, from, balance, amount)
		}
		if err := e.store.Apply(ctx, from, -amount); err != nil {
			return "", fmt.Errorf("debit %s: %w", from, err)
		}
	}

	if err := e.store.Apply(ctx, to, amount); err != nil {
		e.reverseDebit(ctx, from, amount)
		return "", fmt.Errorf("credit %s: %w", to, err)
	}

	id, err := e.newID()
	if err != nil {
		e.reverseDebit(ctx, from, amount)
		_ = e.store.Apply(ctx, to, -amount)
		return "", err
	}

	entry := ledger.Entry{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Metadata:  metadata,
		Timestamp: e.clock().UTC(),
	}
	if err := e.log.Append(ctx, entry); err != nil {
		e.reverseDebit(ctx, from, amount)
		_ = e.store.Apply(ctx, to, -amount)
		return "", fmt.Errorf("append transfer log: %w", err)
	}
	return id, nil
}

// reverseDebit undoes the source debit of a partially applied transfer
// so the ledger and the log move together or not at all. Genesis was
// never debited, so there is nothing to reverse for it. The reversal is
// best effort; the caller still reports the original failure.
func (e *Engine) reverseDebit(ctx context.Context, from string, amount int64) {
	if from == GenesisAccount {
		return
	}
	_ = e.store.Apply(ctx, from, amount)
}

// Transfers returns the full transfer history in application order.
func (e *Engine) Transfers(ctx context.Context) ([]ledger.Entry, error) {
	return e.log.Entries(ctx)
}

// TransferCount reports how many transfers have been applied.
func (e *Engine) TransferCount(ctx context.Context) (int, error) {
	entries, err := e.log.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// LedgerState derives the account-to-balance map by replaying the
// transfer log. Genesis debits are skipped during replay, matching the
// executor's behavior.
func (e *Engine) LedgerState(ctx context.Context) (map[string]int64, error) {
	entries, err := e.log.Entries(ctx)
	if err != nil {
		return nil, err
	}
	state := make(map[string]int64)
	for _, entry := range entries {
		if entry.From != GenesisAccount {
			state[entry.From] -= entry.Amount
		}
		state[entry.To] += entry.Amount
	}
	return state, nil
}

// LatestMetadata looks up a metadata field from the most recent
// transfer addressed to the account. The second return is false when no
// such transfer or field exists; the lookup never fails on absence.
func (e *Engine) LatestMetadata(ctx context.Context, account, field string) (any, bool, error) {
	entries, err := e.log.Entries(ctx)
	if err != nil {
		return nil, false, err
	}
	var (
		value any
		found bool
		at    time.Time
	)
	for _, entry := range entries {
		if entry.To != account || entry.Metadata == nil {
			continue
		}
		v, ok := entry.Metadata[field]
		if !ok {
			continue
		}
		// Later-appended entries win timestamp ties.
		if !found || !entry.Timestamp.Before(at) {
			value, found, at = v, true, entry.Timestamp
		}
	}
	return value, found, nil
}

// EnsureSystemAccounts seeds the conventional system accounts with an
// existence credit so fresh deployments expose them. Genesis needs no
// bootstrap; it is special-cased by the executor rather than stored.
func (e *Engine) EnsureSystemAccounts(ctx context.Context) error {
	for _, account := range []string{DeletedAccount, OperationsAccount} {
		existence := account + ":existence"
		balance, err := e.store.BalanceOf(ctx, existence)
		if err != nil {
			return fmt.Errorf("check system account %s: %w", account, err)
		}
		if balance > 0 {
			continue
		}
		if _, err := e.Transfer(ctx, GenesisAccount, existence, 1, map[string]any{"system": "bootstrap"}); err != nil {
			return fmt.Errorf("seed system account %s: %w", account, err)
		}
	}
	return nil
}

// lockAccounts acquires the per-account mutexes for the given accounts
// in a stable order, skipping duplicates and genesis. The returned
// function releases them in reverse order.
func (e *Engine) lockAccounts(accounts ...string) func() {
	names := make([]string, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		if account == GenesisAccount || seen[account] {
			continue
		}
		seen[account] = true
		names = append(names, account)
	}
	sort.Strings(names)

	held := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		held = append(held, e.accountLock(name))
	}
	for _, mu := range held {
		mu.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (e *Engine) accountLock(account string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[account]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[account] = mu
	}
	return mu
}

// HashText maps arbitrary text to a stable positive integer so textual
// content can ride in a numeric balance: SHA-256 of the UTF-8 bytes,
// first 8 bytes read big-endian, absolute value. External consumers
// compare these values for equality, so the scheme must never change.
func HashText(input string) int64 {
	sum := sha256.Sum256([]byte(input))
	value := int64(binary.BigEndian.Uint64(sum[:8]))
	if value == math.MinInt64 {
		return math.MaxInt64
	}
	if value < 0 {
		value = -value
	}
	return value
}

// NowMillis returns the current time in milliseconds since the epoch,
// the unit used by timestamp() amount expressions.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
