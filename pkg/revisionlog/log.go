// Package revisionlog implements the server's append-only, per-document
// revision log with optimistic concurrency on (doc_id, revision_number).
// The interface is storage-agnostic; Memory and SQLite both satisfy it.
package revisionlog

import (
	"context"
	"time"
)

// AppendResult is the outcome of a Submit call.
type AppendResult int

const (
	// ResultAck means the change set was appended as the next revision.
	ResultAck AppendResult = iota
	// ResultStale means the caller's on-revision number is behind the
	// log's head; the caller must catch up on the returned revisions.
	ResultStale
)

// Revision is one immutable, persisted entry of a document's log. The
// change set is stored and transmitted in its wire-encoded form
// (pkg/ot.Operation.Encode / Decode) — the server never interprets the
// bytes.
type Revision struct {
	DocID       string
	Number      int64
	ChangeSet   []byte
	CommittedAt time.Time
}

// Log is a per-document append-only revision log. Implementations must
// provide atomic compare-and-append on (doc_id, revision_number): of any
// set of concurrent Submit calls sharing the same onRevisionNumber,
// exactly one succeeds.
type Log interface {
	// Submit attempts to append changeSet as revision
	// onRevisionNumber+1 for docID.
	//
	//   - onRevisionNumber == current head: appended, ResultAck, the new
	//     revision's number is head+1.
	//   - onRevisionNumber < current head: rejected, ResultStale, plus
	//     the revisions the caller is missing (bounded by maxCatchUp;
	//     callers needing more continue with GetRevisions).
	//   - onRevisionNumber > current head: invalid input — the caller is
	//     asking to skip ahead of a log it cannot have observed.
	Submit(ctx context.Context, docID string, onRevisionNumber int64, changeSet []byte, maxCatchUp int) (result AppendResult, newRevisionNumber int64, catchUp []Revision, err error)

	// GetRevisions returns revisions with number strictly greater than
	// afterRevisionNumber, in ascending order, capped at limit entries.
	// endOfRevisions is true iff no further revisions existed at read
	// time beyond those returned — strongly consistent, never a
	// gap-prefix read under concurrent submits.
	GetRevisions(ctx context.Context, docID string, afterRevisionNumber int64, limit int) (revisions []Revision, endOfRevisions bool, lastRevisionNumber int64, err error)
}
