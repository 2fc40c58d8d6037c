package models

import "errors"

// Error kinds surfaced by the services. Callers distinguish them with errors.Is;
// concrete errors wrap one of these with context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidTransaction marks a transaction that violates the ledger invariants
	// (missing symbol or non-positive quantity on a trade, unknown currency, ...).
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidArgument marks malformed request parameters (bad ranges, ids).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a missing portfolio, account, transaction, position or snapshot.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a write that collides with existing state, e.g. a reused
	// idempotency key.
	ErrConflict = errors.New("conflict")

	// ErrDependencyUnavailable marks a failure of an upstream collaborator:
	// the market data service or the storage backend.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
