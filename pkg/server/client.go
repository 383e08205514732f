package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coreseekdev/texere/pkg/coreerr"
	"github.com/coreseekdev/texere/pkg/ot"
)

// Client is the HTTP implementation of ot.RevisionClient: it carries the
// editor engine's submits and revision pulls to a Handler on the other
// side of the wire, speaking the same binary bodies HandleSubmit and
// HandleGetRevisions produce. A CommittedLog (and therefore an
// editor.Editor) wired with a Client instead of an in-process fake talks
// to a real server.
type Client struct {
	BaseURL     string
	OrgID       string
	SessionUser string
	HTTPClient  *http.Client
}

// NewClient creates a Client for the server at baseURL, identifying as
// sessionUser within orgID on every RPC.
func NewClient(baseURL, orgID, sessionUser string) *Client {
	return &Client{
		BaseURL:     baseURL,
		OrgID:       orgID,
		SessionUser: sessionUser,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit implements ot.RevisionClient.
func (c *Client) Submit(ctx context.Context, docID string, onRevision int64, cs *ot.Operation) (ot.CommitOutcome, []ot.Revision, error) {
	u := c.endpoint("/api/documents/submit", docID)
	u += "&on_revision=" + strconv.FormatInt(onRevision, 10)

	body, err := c.post(ctx, u, cs.Encode())
	if err != nil {
		return ot.DiscoveredNewRevisions, nil, err
	}

	resp, err := DecodeSubmitResponse(body)
	if err != nil {
		return ot.DiscoveredNewRevisions, nil, fmt.Errorf("%w: decoding submit response: %v", coreerr.StorageTransient, err)
	}

	switch resp.ResponseCode {
	case Ack:
		return ot.Ack, nil, nil
	case DiscoveredNewRevisions:
		revs, err := toClientRevisions(resp.Revisions)
		if err != nil {
			return ot.DiscoveredNewRevisions, nil, err
		}
		return ot.DiscoveredNewRevisions, revs, nil
	default:
		return ot.DiscoveredNewRevisions, nil, fmt.Errorf("%w: unknown response code %d", coreerr.StorageTransient, resp.ResponseCode)
	}
}

// GetRevisions implements ot.RevisionClient. A response whose
// EndOfRevisions is false is returned as-is with endOfRevisions false;
// CommittedLog.LoadNewRemoteRevisions already loops until the end of the
// log, so the continuation lives there, not here.
func (c *Client) GetRevisions(ctx context.Context, docID string, after int64) ([]ot.Revision, bool, error) {
	u := c.endpoint("/api/documents/revisions", docID)
	u += "&after=" + strconv.FormatInt(after, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, false, err
	}

	resp, err := DecodeGetRevisionsResponse(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: decoding revisions response: %v", coreerr.StorageTransient, err)
	}
	revs, err := toClientRevisions(resp.Revisions)
	if err != nil {
		return nil, false, err
	}
	return revs, resp.EndOfRevisions, nil
}

func (c *Client) endpoint(path, docID string) string {
	return c.BaseURL + path +
		"?doc_id=" + url.QueryEscape(docID) +
		"&org_id=" + url.QueryEscape(c.OrgID) +
		"&session_user=" + url.QueryEscape(c.SessionUser)
}

func (c *Client) post(ctx context.Context, u string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	return c.do(req)
}

// do executes the request and maps non-200 statuses onto the coreerr
// taxonomy: the permission collaborator's verdicts propagate verbatim, a
// rejected precondition is InvalidInput, and everything else is a
// transient the next sync tick may retry.
func (c *Client) do(req *http.Request) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", coreerr.StorageTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", coreerr.StorageTransient, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", coreerr.InvalidInput, bytes.TrimSpace(body))
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", coreerr.Unauthorized, bytes.TrimSpace(body))
	case http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", coreerr.Forbidden, bytes.TrimSpace(body))
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", coreerr.NotFound, bytes.TrimSpace(body))
	default:
		return nil, fmt.Errorf("%w: status %d: %s", coreerr.StorageTransient, resp.StatusCode, bytes.TrimSpace(body))
	}
}

func toClientRevisions(dtos []RevisionDTO) ([]ot.Revision, error) {
	revs := make([]ot.Revision, 0, len(dtos))
	for _, dto := range dtos {
		cs, err := ot.Decode(dto.ChangeSet)
		if err != nil {
			return nil, fmt.Errorf("%w: revision %d carries an undecodable change set: %v", coreerr.PostConditionFailed, dto.Number, err)
		}
		revs = append(revs, ot.Revision{
			Number:      dto.Number,
			ChangeSet:   cs,
			CommittedAt: time.Unix(dto.CommittedAt, 0).UTC(),
		})
	}
	return revs, nil
}
