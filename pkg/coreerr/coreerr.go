// Package coreerr defines the error taxonomy shared by the revision log,
// the committed/pending logs and the editor engine. The revision-log
// stores and pkg/server classify the errors they return as one of these
// seven classes, expressed as sentinels matched with errors.Is — the same
// idiom pkg/ot uses for its own, separate sentinels ErrInvalidBaseLength,
// ErrCannotUndo and ErrCannotRedo.
package coreerr

import "errors"

var (
	// InvalidInput: a change set violates its own preconditions (length
	// mismatch, empty op, non-canonical adjacent pair). Surfaced to the
	// caller; never swallowed.
	InvalidInput = errors.New("invalid input")

	// PostConditionFailed: the engine produced a change set that fails
	// its own invariants. Indicates a bug; must cause a test failure.
	PostConditionFailed = errors.New("postcondition failed")

	// StorageTransient: the revision-log store failed to respond.
	// Retried by the sync loop on its next tick, never retried inline.
	StorageTransient = errors.New("storage transient error")

	// Conflict is not itself surfaced as an error from the submit RPC —
	// it is encoded as DISCOVERED_NEW_REVISIONS in the response — but is
	// exposed here for callers (e.g. the revision-log store adapters)
	// that need to signal "uniqueness conflict, not a failure" up to the
	// layer that turns it into that response.
	Conflict = errors.New("conflict")

	// Unauthorized / Forbidden / NotFound are produced by the
	// authorization collaborator and propagated verbatim.
	Unauthorized = errors.New("unauthorized")
	Forbidden    = errors.New("forbidden")
	NotFound     = errors.New("not found")
)

// Is reports whether err is (or wraps) one of this package's sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
