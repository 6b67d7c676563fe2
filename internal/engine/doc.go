// Package engine implements the accounting core: balances keyed by
// colon-delimited account identifiers, an append-only transfer log, and
// the transfer primitive that is the only way state changes.
//
// Every entity attribute is an account (`product:123:price`) and every
// mutation is a transfer between two accounts. The distinguished
// `system:genesis` account is an unlimited source: transfers from it
// credit the destination without debiting genesis, so the ledger
// deliberately does not conserve total value.
package engine
