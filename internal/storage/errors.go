package storage

import "errors"

// Decision log errors. Backends translate driver errors into these so callers
// can branch with errors.Is regardless of the configured store.
var (
	// ErrNotFound is returned when no decision matches a lookup.
	ErrNotFound = errors.New("decision not found")

	// ErrDuplicateKey is returned when a decision_id is already recorded.
	// Decisions are append-only; a repeated id is never overwritten.
	ErrDuplicateKey = errors.New("duplicate decision_id: decision log is append-only")

	// ErrInvalidInput is returned for a decision missing its id, mint or a
	// known stage.
	ErrInvalidInput = errors.New("invalid decision")
)
