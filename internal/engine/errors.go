package engine

import "errors"

var (
	// ErrInvalidAmount indicates a transfer amount of zero or less.
	ErrInvalidAmount = errors.New("transfer amount must be positive")
	// ErrInsufficientFunds indicates the source account cannot cover the debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
