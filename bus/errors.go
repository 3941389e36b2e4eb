package bus

import "errors"

var (
	// ErrNotRunning is returned by operations that require Start to have
	// been called first.
	ErrNotRunning = errors.New("bus: not running")
	// ErrUnknownSubscription is returned by Unsubscribe only for diagnostics;
	// Unsubscribe itself stays idempotent and never returns it.
	ErrUnknownSubscription = errors.New("bus: unknown subscription")
	// ErrDeadLetterNotFound mirrors provider.NotFoundError for dead-letter
	// reprocessing an unknown id.
	ErrDeadLetterNotFound = errors.New("bus: dead-letter record not found")
)
