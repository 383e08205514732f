package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreseekdev/texere/pkg/ot"
	"github.com/coreseekdev/texere/pkg/revisionlog"
)

// denyAllAuthorizer always refuses, to exercise the authorization check
// that runs before either RPC touches the log.
type denyAllAuthorizer struct{ decision Decision }

func (d denyAllAuthorizer) Check(ctx context.Context, sessionUser, docID, orgID string, required Capability) (Decision, error) {
	return d.decision, nil
}

func newTestHandler() *Handler {
	return NewHandler(revisionlog.NewMemory(), AllowAllAuthorizer{}, nil, 0)
}

// An empty document submitted at on_revision=0 is acknowledged as
// revision 1.
func TestHandleSubmit_Ack(t *testing.T) {
	h := newTestHandler()
	cs := ot.NewBuilder().Insert("abc").Build()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader(cs.Encode()))
	w := httptest.NewRecorder()
	h.HandleSubmit(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp, err := DecodeSubmitResponse(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Ack, resp.ResponseCode)
	assert.Equal(t, int64(1), resp.LastRevisionNumber)
}

// A second submitter racing on the same on_revision is told about
// the revision it's missing instead of silently failing.
func TestHandleSubmit_DiscoveredNewRevisions(t *testing.T) {
	h := newTestHandler()
	cs1 := ot.NewBuilder().Insert("abc").Build()
	req1 := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader(cs1.Encode()))
	h.HandleSubmit(httptest.NewRecorder(), req1)

	cs2 := ot.NewBuilder().Insert("XYZ").Build()
	req2 := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader(cs2.Encode()))
	w2 := httptest.NewRecorder()
	h.HandleSubmit(w2, req2)

	require.Equal(t, http.StatusOK, w2.Code)
	resp, err := DecodeSubmitResponse(w2.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, DiscoveredNewRevisions, resp.ResponseCode)
	require.Len(t, resp.Revisions, 1)
	assert.Equal(t, int64(1), resp.Revisions[0].Number)
}

func TestHandleSubmit_InvalidChangeSet(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader([]byte{0xFF}))
	w := httptest.NewRecorder()
	h.HandleSubmit(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSubmit_Forbidden(t *testing.T) {
	h := NewHandler(revisionlog.NewMemory(), denyAllAuthorizer{decision: DecisionForbidden}, nil, 0)
	cs := ot.NewBuilder().Insert("abc").Build()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader(cs.Encode()))
	w := httptest.NewRecorder()
	h.HandleSubmit(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleGetRevisions(t *testing.T) {
	h := newTestHandler()
	cs := ot.NewBuilder().Insert("abc").Build()
	submitReq := httptest.NewRequest(http.MethodPost, "/api/documents/submit?doc_id=doc1&on_revision=0", bytes.NewReader(cs.Encode()))
	h.HandleSubmit(httptest.NewRecorder(), submitReq)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/revisions?doc_id=doc1&after=0", nil)
	w := httptest.NewRecorder()
	h.HandleGetRevisions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp, err := DecodeGetRevisionsResponse(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, resp.EndOfRevisions)
	require.Len(t, resp.Revisions, 1)
	assert.Equal(t, int64(1), resp.Revisions[0].Number)

	decoded, err := ot.Decode(resp.Revisions[0].ChangeSet)
	require.NoError(t, err)
	assert.True(t, decoded.Equals(cs))
}

func TestHandleGetRevisions_NotFound(t *testing.T) {
	h := NewHandler(revisionlog.NewMemory(), denyAllAuthorizer{decision: DecisionNotFound}, nil, 0)
	req := httptest.NewRequest(http.MethodGet, "/api/documents/revisions?doc_id=doc1&after=0", nil)
	w := httptest.NewRecorder()
	h.HandleGetRevisions(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateDocument(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/create", nil)
	w := httptest.NewRecorder()
	h.HandleCreateDocument(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
}
