package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreseekdev/texere/pkg/coreerr"
	"github.com/coreseekdev/texere/pkg/editor"
	"github.com/coreseekdev/texere/pkg/ot"
	"github.com/coreseekdev/texere/pkg/revisionlog"
)

func newTestServer(t *testing.T, authz Authorizer) *httptest.Server {
	t.Helper()
	h := NewHandler(revisionlog.NewMemory(), authz, nil, 0)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SubmitAndGetRevisions_RoundTrip(t *testing.T) {
	srv := newTestServer(t, AllowAllAuthorizer{})
	client := NewClient(srv.URL, "org1", "alice")

	cs := ot.NewBuilder().Insert("abc").Build()
	outcome, _, err := client.Submit(context.Background(), "doc1", 0, cs)
	require.NoError(t, err)
	assert.Equal(t, ot.Ack, outcome)

	revs, endOfRevisions, err := client.GetRevisions(context.Background(), "doc1", 0)
	require.NoError(t, err)
	assert.True(t, endOfRevisions)
	require.Len(t, revs, 1)
	assert.Equal(t, int64(1), revs[0].Number)
	assert.True(t, revs[0].ChangeSet.Equals(cs))
}

func TestClient_Submit_Stale_CarriesMissedRevisions(t *testing.T) {
	srv := newTestServer(t, AllowAllAuthorizer{})
	client := NewClient(srv.URL, "org1", "alice")

	first := ot.NewBuilder().Insert("abc").Build()
	_, _, err := client.Submit(context.Background(), "doc1", 0, first)
	require.NoError(t, err)

	outcome, missed, err := client.Submit(context.Background(), "doc1", 0, ot.NewBuilder().Insert("XYZ").Build())
	require.NoError(t, err)
	assert.Equal(t, ot.DiscoveredNewRevisions, outcome)
	require.Len(t, missed, 1)
	assert.True(t, missed[0].ChangeSet.Equals(first))
}

func TestClient_Forbidden(t *testing.T) {
	srv := newTestServer(t, denyAllAuthorizer{decision: DecisionForbidden})
	client := NewClient(srv.URL, "org1", "mallory")

	_, _, err := client.Submit(context.Background(), "doc1", 0, ot.NewBuilder().Insert("x").Build())
	assert.ErrorIs(t, err, coreerr.Forbidden)

	_, _, err = client.GetRevisions(context.Background(), "doc1", 0)
	assert.ErrorIs(t, err, coreerr.Forbidden)
}

func TestClient_ServerUnreachable_IsStorageTransient(t *testing.T) {
	srv := newTestServer(t, AllowAllAuthorizer{})
	client := NewClient(srv.URL, "org1", "alice")
	srv.Close()

	_, _, err := client.Submit(context.Background(), "doc1", 0, ot.NewBuilder().Insert("x").Build())
	assert.ErrorIs(t, err, coreerr.StorageTransient)
}

// Two editors sharing one document over the HTTP transport converge to
// the same value once both have synced, with the earlier-committed
// peer's insert ordered first.
func TestClient_TwoEditorsConverge(t *testing.T) {
	srv := newTestServer(t, AllowAllAuthorizer{})

	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	alice := editor.New("doc1", NewClient(srv.URL, "org1", "alice"), editor.Config{Clock: clock})
	bob := editor.New("doc1", NewClient(srv.URL, "org1", "bob"), editor.Config{Clock: clock})

	require.NoError(t, alice.UpdateFromInputEvent(editor.InputEvent{
		Type:            editor.InputInsertText,
		NativeData:      "foo",
		TargetSelection: ot.Caret(3),
	}))
	require.NoError(t, bob.UpdateFromInputEvent(editor.InputEvent{
		Type:            editor.InputInsertText,
		NativeData:      "bar",
		TargetSelection: ot.Caret(3),
	}))

	now = now.Add(3 * time.Second) // expire both current changes

	require.NoError(t, alice.Sync(context.Background()))
	require.NoError(t, bob.Sync(context.Background()))
	require.NoError(t, alice.Sync(context.Background()))

	aliceValue, err := alice.ComputeValue()
	require.NoError(t, err)
	bobValue, err := bob.ComputeValue()
	require.NoError(t, err)

	assert.Equal(t, "foobar", aliceValue)
	assert.Equal(t, aliceValue, bobValue)
}
