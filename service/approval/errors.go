package approval

import "errors"

// Sentinel errors. Callers detect conditions via errors.Is instead of
// brittle string comparisons.

var (
	// ErrNotFound is returned by Resolve when the request id is unknown or
	// already cleaned up. Transports surface it as a client-visible "no such
	// request" condition; it is never fatal.
	ErrNotFound = errors.New("approval: request not found")

	// ErrDuplicateID indicates an identifier collision inside the registry.
	// Practically unreachable with random ids, but it must fail loudly
	// rather than silently overwrite another request.
	ErrDuplicateID = errors.New("approval: duplicate request id")

	// ErrInvalidTimeout is returned when RequestDecision is invoked without
	// a positive timeout. An unbounded wait would leak the waiter, so the
	// timeout is mandatory.
	ErrInvalidTimeout = errors.New("approval: timeout must be positive")

	// ErrEmptyOwner is returned when the owner identity is missing.
	ErrEmptyOwner = errors.New("approval: empty owner")
)
