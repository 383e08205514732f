package server

import "context"

// Decision is the authorization collaborator's verdict.
type Decision int

const (
	// DecisionOK allows the RPC to proceed.
	DecisionOK Decision = iota
	// DecisionNotFound means the document (or org) does not exist.
	DecisionNotFound
	// DecisionForbidden means the session user lacks the required
	// capabilities on this document.
	DecisionForbidden
)

// Capability is one permission the authorization collaborator checks
// for. The core never interprets these beyond passing them through —
// permission semantics are the collaborator's job.
type Capability string

const (
	CapabilityRead  Capability = "read"
	CapabilityWrite Capability = "write"
)

// Authorizer is the external permission check consulted before either
// RPC executes against the log. This package never implements the
// policy — only a stub for tests/demos (AllowAllAuthorizer).
type Authorizer interface {
	Check(ctx context.Context, sessionUser, docID, orgID string, required Capability) (Decision, error)
}

// AllowAllAuthorizer is a stub Authorizer that always returns
// DecisionOK. It exists for tests and for running this package without
// wiring a real permission system; production deployments must supply
// their own Authorizer.
type AllowAllAuthorizer struct{}

// Check always returns DecisionOK.
func (AllowAllAuthorizer) Check(ctx context.Context, sessionUser, docID, orgID string, required Capability) (Decision, error) {
	return DecisionOK, nil
}
