package ot

import "errors"

// Sentinel errors for the two failure classes assigned to the
// algebra itself: a precondition violation on the caller's input, or an
// internal invariant this package itself failed to uphold. They are
// separate from pkg/coreerr's sentinels; pkg/server reports a submitted
// change set that fails to decode as coreerr.InvalidInput.
var (
	// ErrInvalidInput marks a change set that violates its own
	// preconditions: a length mismatch against its counterpart or the
	// document it's applied to, an empty op, or a non-canonical adjacent
	// pair.
	ErrInvalidInput = errors.New("ot: invalid input")

	// ErrPostConditionFailed marks an internal invariant violation —
	// this package produced a change set that fails its own length
	// bookkeeping. Always a bug, never a caller mistake.
	ErrPostConditionFailed = errors.New("ot: postcondition failed")
)
