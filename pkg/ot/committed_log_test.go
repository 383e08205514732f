package ot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRevisionClient is an in-memory stand-in for the server RPCs that
// CommittedLog talks to, letting these tests exercise the client-side
// contiguity and composition logic without pkg/revisionlog or a
// transport.
type fakeRevisionClient struct {
	revisions []Revision
}

func (f *fakeRevisionClient) Submit(ctx context.Context, docID string, onRevision int64, cs *Operation) (CommitOutcome, []Revision, error) {
	head := int64(len(f.revisions))
	if onRevision != head {
		return DiscoveredNewRevisions, f.revisions[onRevision:], nil
	}
	f.revisions = append(f.revisions, Revision{Number: head + 1, ChangeSet: cs, CommittedAt: time.Unix(0, 0)})
	return Ack, nil, nil
}

func (f *fakeRevisionClient) GetRevisions(ctx context.Context, docID string, after int64) ([]Revision, bool, error) {
	if after >= int64(len(f.revisions)) {
		return nil, true, nil
	}
	return f.revisions[after:], true, nil
}

func TestCommittedLog_CommitLocalChangeSet_Ack(t *testing.T) {
	client := &fakeRevisionClient{}
	log := NewCommittedLog("doc1", client)

	cs := NewBuilder().Insert("abc").Build()
	outcome, err := log.CommitLocalChangeSet(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, Ack, outcome)
	assert.Equal(t, 1, log.Len())
	assert.Equal(t, int64(1), log.LastRevisionNumber())
}

// A second client submitting against a stale revision number must be
// told to catch up, not silently accepted.
func TestCommittedLog_CommitLocalChangeSet_Stale(t *testing.T) {
	client := &fakeRevisionClient{}
	log := NewCommittedLog("doc1", client)

	first := NewBuilder().Insert("abc").Build()
	_, err := log.CommitLocalChangeSet(context.Background(), first)
	require.NoError(t, err)

	// A second, independent client still believes revision 0 is current.
	stale := NewCommittedLog("doc1", client)
	outcome, err := stale.CommitLocalChangeSet(context.Background(), NewBuilder().Insert("XYZ").Build())
	require.NoError(t, err)
	assert.Equal(t, DiscoveredNewRevisions, outcome)
	assert.Equal(t, 0, stale.Len())
}

func TestCommittedLog_LoadNewRemoteRevisions(t *testing.T) {
	client := &fakeRevisionClient{}
	producer := NewCommittedLog("doc1", client)
	_, err := producer.CommitLocalChangeSet(context.Background(), NewBuilder().Insert("a").Build())
	require.NoError(t, err)
	_, err = producer.CommitLocalChangeSet(context.Background(), NewBuilder().Retain(1).Insert("b").Build())
	require.NoError(t, err)

	consumer := NewCommittedLog("doc1", client)
	composed, first, last, err := consumer.LoadNewRemoteRevisions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), last)
	assert.Equal(t, 2, consumer.Len())

	result, err := composed.Apply("")
	require.NoError(t, err)
	assert.Equal(t, "ab", result)
}

func TestCommittedLog_LoadNewRemoteRevisions_NothingNew(t *testing.T) {
	client := &fakeRevisionClient{}
	log := NewCommittedLog("doc1", client)
	composed, first, last, err := log.LoadNewRemoteRevisions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, composed)
	assert.Equal(t, int64(0), first)
	assert.Equal(t, int64(0), last)
}

func TestCommittedLog_ComposeRange(t *testing.T) {
	client := &fakeRevisionClient{}
	log := NewCommittedLog("doc1", client)
	_, err := log.CommitLocalChangeSet(context.Background(), NewBuilder().Insert("a").Build())
	require.NoError(t, err)
	_, err = log.CommitLocalChangeSet(context.Background(), NewBuilder().Retain(1).Insert("b").Build())
	require.NoError(t, err)

	composed, err := log.ComposeRange(0, 2)
	require.NoError(t, err)
	result, err := composed.Apply("")
	require.NoError(t, err)
	assert.Equal(t, "ab", result)
}
