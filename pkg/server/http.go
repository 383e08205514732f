package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/coreseekdev/texere/internal/telemetry"
	"github.com/coreseekdev/texere/pkg/coreerr"
	"github.com/coreseekdev/texere/pkg/revisionlog"
)

// statusForLogError maps a revisionlog error to an HTTP status: a
// precondition the caller violated is a 400, anything else (the store
// itself failing) is a 500 the caller should retry.
func statusForLogError(err error) int {
	if coreerr.Is(err, coreerr.InvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Handler mounts the two document RPCs as net/http handlers over binary
// request/response bodies, checking the Authorizer collaborator before
// either RPC touches the log.
//
// Doc/org/session identity and the on_revision_number cursor travel as
// query parameters; the POST body is the wire-encoded change set alone
// for Submit, and empty for GetRevisions.
type Handler struct {
	Log                     revisionlog.Log
	Authz                   Authorizer
	Notifier                *Notifier
	MaxRevisionsPerResponse int
	log                     *telemetry.Logger
}

// NewHandler creates a Handler. maxRevisionsPerResponse bounds how many
// revisions a single response carries before the caller must continue
// with another GetRevisions call. notifier may be nil, in which case
// successful submits simply don't wake up idle WebSocket subscribers.
func NewHandler(log revisionlog.Log, authz Authorizer, notifier *Notifier, maxRevisionsPerResponse int) *Handler {
	if maxRevisionsPerResponse <= 0 {
		maxRevisionsPerResponse = 256
	}
	return &Handler{
		Log:                     log,
		Authz:                   authz,
		Notifier:                notifier,
		MaxRevisionsPerResponse: maxRevisionsPerResponse,
		log:                     telemetry.FromEnv("server"),
	}
}

func toRevisionDTOs(revs []revisionlog.Revision) []RevisionDTO {
	out := make([]RevisionDTO, len(revs))
	for i, r := range revs {
		out[i] = RevisionDTO{Number: r.Number, ChangeSet: r.ChangeSet, CommittedAt: r.CommittedAt.Unix()}
	}
	return out
}

// HandleSubmit implements POST .../submit?doc_id=...&org_id=...&session_user=...&on_revision=N
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID := r.URL.Query().Get("doc_id")
	orgID := r.URL.Query().Get("org_id")
	sessionUser := r.URL.Query().Get("session_user")
	onRevision, err := strconv.ParseInt(r.URL.Query().Get("on_revision"), 10, 64)
	if err != nil {
		http.Error(w, "invalid on_revision", http.StatusBadRequest)
		return
	}

	decision, err := h.Authz.Check(r.Context(), sessionUser, docID, orgID, CapabilityWrite)
	if err != nil {
		h.log.Error("authorization check failed: %v", err)
		http.Error(w, "authorization check failed", http.StatusInternalServerError)
		return
	}
	switch decision {
	case DecisionNotFound:
		http.Error(w, "not found", http.StatusNotFound)
		return
	case DecisionForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	changeSet, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if _, err := decodeChangeSet(changeSet); err != nil {
		http.Error(w, fmt.Sprintf("invalid change set: %v", err), http.StatusBadRequest)
		return
	}

	result, newNumber, catchUp, err := h.Log.Submit(r.Context(), docID, onRevision, changeSet, h.MaxRevisionsPerResponse)
	if err != nil {
		h.log.Error("submit failed for doc %s: %v", docID, err)
		http.Error(w, "submit failed", statusForLogError(err))
		return
	}

	resp := SubmitDocumentChangeSetResponse{EndOfRevisions: true}
	switch result {
	case revisionlog.ResultAck:
		resp.ResponseCode = Ack
		resp.LastRevisionNumber = newNumber
		if h.Notifier != nil {
			h.Notifier.NotifyNewRevision(docID, newNumber)
		}
	case revisionlog.ResultStale:
		resp.ResponseCode = DiscoveredNewRevisions
		resp.LastRevisionNumber = newNumber
		resp.Revisions = toRevisionDTOs(catchUp)
		resp.EndOfRevisions = len(catchUp) == 0 || catchUp[len(catchUp)-1].Number == newNumber
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(EncodeSubmitResponse(resp))
}

// HandleGetRevisions implements GET .../revisions?doc_id=...&org_id=...&session_user=...&after=N
func (h *Handler) HandleGetRevisions(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc_id")
	orgID := r.URL.Query().Get("org_id")
	sessionUser := r.URL.Query().Get("session_user")
	after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
	if err != nil {
		http.Error(w, "invalid after", http.StatusBadRequest)
		return
	}

	decision, err := h.Authz.Check(r.Context(), sessionUser, docID, orgID, CapabilityRead)
	if err != nil {
		h.log.Error("authorization check failed: %v", err)
		http.Error(w, "authorization check failed", http.StatusInternalServerError)
		return
	}
	switch decision {
	case DecisionNotFound:
		http.Error(w, "not found", http.StatusNotFound)
		return
	case DecisionForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	revs, endOfRevisions, last, err := h.Log.GetRevisions(r.Context(), docID, after, h.MaxRevisionsPerResponse)
	if err != nil {
		h.log.Error("get_revisions failed for doc %s: %v", docID, err)
		http.Error(w, "get_revisions failed", http.StatusInternalServerError)
		return
	}

	resp := GetDocumentRevisionsResponse{
		Revisions:          toRevisionDTOs(revs),
		LastRevisionNumber: last,
		EndOfRevisions:     endOfRevisions,
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(EncodeGetRevisionsResponse(resp))
}

// HandleCreateDocument mints a fresh, globally-unique doc_id for a new
// document. The revision log itself has no notion of document creation —
// a doc_id with no revisions simply has an empty log — so this exists
// purely so a client doesn't have to invent collision-free identifiers
// of its own.
func (h *Handler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	docID := uuid.NewString()
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(docID))
}

// RegisterRoutes mounts the RPC handlers onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/documents/create", h.HandleCreateDocument)
	mux.HandleFunc("/api/documents/submit", h.HandleSubmit)
	mux.HandleFunc("/api/documents/revisions", h.HandleGetRevisions)
}
