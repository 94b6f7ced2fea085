package queue

import "errors"

var (
	// ErrNotFound reports a call for a number that is not waiting.
	ErrNotFound = errors.New("ticket not found")
	// ErrStorage wraps a persistence failure; the mutation was not applied.
	ErrStorage = errors.New("ledger storage failed")
)
