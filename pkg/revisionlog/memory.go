package revisionlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreseekdev/texere/pkg/coreerr"
)

// Memory is an in-process Log: a single mutex guarding a map of
// per-document revision slices. Suitable for tests and for a
// single-process deployment; SQLite backs durable deployments (see
// sqlite.go).
type Memory struct {
	mu   sync.Mutex
	docs map[string][]Revision
}

// NewMemory creates an empty in-memory revision log.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]Revision)}
}

// Submit implements Log.
func (m *Memory) Submit(ctx context.Context, docID string, onRevisionNumber int64, changeSet []byte, maxCatchUp int) (AppendResult, int64, []Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	revs := m.docs[docID]
	head := int64(len(revs))

	if onRevisionNumber > head {
		return ResultStale, 0, nil, fmt.Errorf("%w: on_revision_number %d is ahead of log head %d for doc %s", coreerr.InvalidInput, onRevisionNumber, head, docID)
	}

	if onRevisionNumber < head {
		catchUp := catchUpSlice(revs, onRevisionNumber, maxCatchUp)
		return ResultStale, head, catchUp, nil
	}

	rev := Revision{
		DocID:       docID,
		Number:      head + 1,
		ChangeSet:   append([]byte(nil), changeSet...),
		CommittedAt: time.Now(),
	}
	m.docs[docID] = append(revs, rev)
	return ResultAck, rev.Number, nil, nil
}

// GetRevisions implements Log.
func (m *Memory) GetRevisions(ctx context.Context, docID string, afterRevisionNumber int64, limit int) ([]Revision, bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	revs := m.docs[docID]
	head := int64(len(revs))
	batch := catchUpSlice(revs, afterRevisionNumber, limit)
	last := afterRevisionNumber
	if len(batch) > 0 {
		last = batch[len(batch)-1].Number
	}
	return batch, last == head, head, nil
}

// catchUpSlice returns the revisions strictly after afterRevisionNumber,
// bounded to at most limit entries (0 or negative means unbounded).
// revs is indexed from revision 1 at position 0, so revision N is
// revs[N-1]; this holds because Submit only ever appends one revision at
// a time onto a contiguous slice.
func catchUpSlice(revs []Revision, afterRevisionNumber int64, limit int) []Revision {
	if afterRevisionNumber < 0 {
		afterRevisionNumber = 0
	}
	if afterRevisionNumber >= int64(len(revs)) {
		return nil
	}
	end := len(revs)
	if limit > 0 && int(afterRevisionNumber)+limit < end {
		end = int(afterRevisionNumber) + limit
	}
	out := make([]Revision, end-int(afterRevisionNumber))
	copy(out, revs[afterRevisionNumber:end])
	return out
}
