// Package server wires the two document RPCs (SubmitDocumentChangeSet,
// GetDocumentRevisions), the wire format (pkg/ot.Operation.Encode/Decode)
// and the authorization collaborator contract onto HTTP, with an
// optional WebSocket channel that pings idle clients when a new revision
// lands. Request routing and sessions are the caller's concern: the
// package exposes http.HandlerFunc values to be mounted on any mux.
package server

import (
	"fmt"

	"github.com/coreseekdev/texere/pkg/coreerr"
	"github.com/coreseekdev/texere/pkg/ot"
)

// ResponseCode is the outcome of SubmitDocumentChangeSet.
type ResponseCode int

const (
	// Ack means the change set was appended as the next revision.
	Ack ResponseCode = iota
	// DiscoveredNewRevisions means the submitter's on_revision_number
	// lagged the log's head; no append happened and the caller must
	// catch up on the attached revisions before retrying.
	DiscoveredNewRevisions
)

// RevisionDTO is one revision as carried over the wire: the change set
// is left wire-encoded (pkg/ot.Operation.Encode) rather than decoded,
// since the server treats document content as opaque bytes.
type RevisionDTO struct {
	Number      int64
	ChangeSet   []byte
	CommittedAt int64 // unix seconds
}

// SubmitDocumentChangeSetRequest carries one candidate next revision for
// a document.
type SubmitDocumentChangeSetRequest struct {
	DocID            string
	OrgID            string
	SessionUser      string
	OnRevisionNumber int64
	ChangeSet        []byte
}

// SubmitDocumentChangeSetResponse is the submit outcome, plus any
// revisions a stale submitter is missing.
type SubmitDocumentChangeSetResponse struct {
	ResponseCode      ResponseCode
	LastRevisionNumber int64
	Revisions          []RevisionDTO
	EndOfRevisions     bool
}

// GetDocumentRevisionsRequest asks for the revisions of a document after
// a given cursor.
type GetDocumentRevisionsRequest struct {
	DocID             string
	OrgID             string
	SessionUser       string
	AfterRevisionNumber int64
}

// GetDocumentRevisionsResponse is one page of a document's revision log.
type GetDocumentRevisionsResponse struct {
	Revisions          []RevisionDTO
	LastRevisionNumber int64
	EndOfRevisions     bool
}

// decodeChangeSet wraps a submitted change set's decode error as
// coreerr.InvalidInput, so HandleSubmit's error classification doesn't
// need to know pkg/ot's own sentinel errors.
func decodeChangeSet(wire []byte) (*ot.Operation, error) {
	op, err := ot.Decode(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", coreerr.InvalidInput, err)
	}
	return op, nil
}
