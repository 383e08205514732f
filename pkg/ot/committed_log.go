package ot

import (
	"context"
	"fmt"
	"time"
)

// Revision is one immutable entry of a document's revision log: a change
// set at a strictly increasing, contiguous-from-1 sequence number,
// stamped with when it was committed.
type Revision struct {
	Number      int64
	ChangeSet   *Operation
	CommittedAt time.Time
}

// CommitOutcome is the result of submitting a local change set as the
// next revision.
type CommitOutcome int

const (
	// Ack means the submitted change set was appended as the next
	// revision.
	Ack CommitOutcome = iota
	// DiscoveredNewRevisions means the server already has later
	// revisions than the client knew about; the submit did not happen.
	DiscoveredNewRevisions
)

// RevisionClient is the client-side stub for reaching the server's
// revision log (the server's SubmitDocumentChangeSet / GetDocumentRevisions
// RPCs). CommittedLog depends only on this interface, not on any
// particular transport.
type RevisionClient interface {
	// Submit attempts to append cs as revision onRevision+1. It returns
	// Ack (with no revisions) on success, or DiscoveredNewRevisions
	// with the revisions the caller is missing ("a bounded prefix
	// plus a continuation marker" — callers drain continuations via
	// GetRevisions until EndOfRevisions).
	Submit(ctx context.Context, docID string, onRevision int64, cs *Operation) (CommitOutcome, []Revision, error)

	// GetRevisions returns revisions strictly after afterRevision, in
	// ascending order, plus whether end-of-log was reached.
	GetRevisions(ctx context.Context, docID string, afterRevision int64) (revisions []Revision, endOfRevisions bool, err error)
}

// CommittedLog mirrors the server's revision log locally.
// Invariant: Revisions is always a contiguous run of revision numbers
// starting at 1 (or empty).
type CommittedLog struct {
	docID     string
	client    RevisionClient
	revisions []Revision
}

// NewCommittedLog creates an empty committed log for docID, talking to
// the server through client.
func NewCommittedLog(docID string, client RevisionClient) *CommittedLog {
	return &CommittedLog{docID: docID, client: client}
}

// Len returns the number of revisions known locally.
func (c *CommittedLog) Len() int {
	return len(c.revisions)
}

// LastRevisionNumber returns the number of the most recent known
// revision, or 0 if none.
func (c *CommittedLog) LastRevisionNumber() int64 {
	if len(c.revisions) == 0 {
		return 0
	}
	return c.revisions[len(c.revisions)-1].Number
}

// ComposeRange returns the composition of change sets with indices in
// [i, j), or nil if the range is empty.
func (c *CommittedLog) ComposeRange(i, j int) (*Operation, error) {
	if i < 0 || i >= len(c.revisions) || j <= i {
		return nil, nil
	}
	if j > len(c.revisions) {
		j = len(c.revisions)
	}
	composed := c.revisions[i].ChangeSet
	for _, rev := range c.revisions[i+1 : j] {
		var err error
		composed, err = Compose(composed, rev.ChangeSet)
		if err != nil {
			return nil, err
		}
	}
	return composed, nil
}

// CommitLocalChangeSet submits cs as a candidate next revision. On Ack,
// the new revision is appended to the committed log. On
// DiscoveredNewRevisions, the committed log is left untouched — the
// caller is expected to call LoadNewRemoteRevisions next.
func (c *CommittedLog) CommitLocalChangeSet(ctx context.Context, cs *Operation) (CommitOutcome, error) {
	outcome, _, err := c.client.Submit(ctx, c.docID, c.LastRevisionNumber(), cs)
	if err != nil {
		return outcome, err
	}
	if outcome == Ack {
		c.revisions = append(c.revisions, Revision{
			Number:    c.LastRevisionNumber() + 1,
			ChangeSet: cs,
		})
	}
	return outcome, nil
}

// LoadNewRemoteRevisions polls GetRevisions in a loop until end-of-log,
// appending each returned revision after checking the contiguity
// invariant, and returns the composition of everything newly appended
// plus the [first, last] revision-number range. Returns (nil, 0, 0, nil)
// if there was nothing new.
func (c *CommittedLog) LoadNewRemoteRevisions(ctx context.Context) (composed *Operation, first, last int64, err error) {
	after := c.LastRevisionNumber()
	var newRevisions []Revision

	for {
		batch, endOfRevisions, err := c.client.GetRevisions(ctx, c.docID, after)
		if err != nil {
			return nil, 0, 0, err
		}
		for _, rev := range batch {
			if rev.Number != after+1 {
				return nil, 0, 0, fmt.Errorf("%w: expected revision %d, got %d", ErrPostConditionFailed, after+1, rev.Number)
			}
			newRevisions = append(newRevisions, rev)
			after = rev.Number
		}
		if endOfRevisions {
			break
		}
	}

	if len(newRevisions) == 0 {
		return nil, 0, 0, nil
	}

	composed = newRevisions[0].ChangeSet
	for _, rev := range newRevisions[1:] {
		composed, err = Compose(composed, rev.ChangeSet)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	c.revisions = append(c.revisions, newRevisions...)
	return composed, newRevisions[0].Number, newRevisions[len(newRevisions)-1].Number, nil
}
