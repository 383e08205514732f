// Package editor implements the client-side editor engine: it turns
// input events into change sets, batches them into the current change
// and the pending log, maintains undo/redo, and reconciles with the
// server's revision log through pkg/ot's OT algebra.
package editor

import (
	"time"

	"github.com/coreseekdev/texere/internal/telemetry"
	"github.com/coreseekdev/texere/pkg/ot"
)

// Clock supplies the current time. Time is a parameter of the engine,
// not a global; tests inject a fake one so editable_until deadlines are
// deterministic.
type Clock func() time.Time

// Editor is the per-document state machine: committed log, pending log,
// undo manager, an optional current change, the current selection and a
// sync-running flag, all owned by one engine and never shared across
// documents.
type Editor struct {
	committed      *ot.CommittedLog
	pending        *ot.PendingLog
	undo           *ot.UndoManager
	current        *CurrentChange
	selection      ot.Selection
	syncRunning    bool
	editableWindow time.Duration
	clock          Clock
	log            *telemetry.Logger
}

// Config configures a new Editor.
type Config struct {
	// UndoStackLimit caps the undo/redo stacks. Defaults to 10,000.
	UndoStackLimit int
	// EditableWindow is how long a current change stays open for
	// coalescing before a sync or input event forces a flush. Defaults
	// to 2000ms.
	EditableWindow time.Duration
	// Clock supplies the current time. Defaults to time.Now.
	Clock Clock
}

// New creates an Editor for docID backed by client, which implements the
// server RPCs the committed log needs.
func New(docID string, client ot.RevisionClient, cfg Config) *Editor {
	if cfg.UndoStackLimit <= 0 {
		cfg.UndoStackLimit = 10000
	}
	if cfg.EditableWindow <= 0 {
		cfg.EditableWindow = 2000 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Editor{
		committed:      ot.NewCommittedLog(docID, client),
		pending:        ot.NewPendingLog(),
		undo:           ot.NewUndoManager(cfg.UndoStackLimit),
		editableWindow: cfg.EditableWindow,
		clock:          cfg.Clock,
		log:            telemetry.FromEnv("editor"),
	}
}

// Selection returns the current selection.
func (e *Editor) Selection() ot.Selection { return e.selection }

// SetSelection overwrites the current selection without generating an
// edit — used to apply a post-event selection that input handling
// itself doesn't already set.
func (e *Editor) SetSelection(sel ot.Selection) { e.selection = sel }

// CanUndo reports whether an undo item is available.
func (e *Editor) CanUndo() bool { return e.undo.CanUndo() }

// CanRedo reports whether a redo item is available.
func (e *Editor) CanRedo() bool { return e.undo.CanRedo() }

// composedCommittedAndPending returns the composition of everything the
// server has acknowledged plus everything still queued locally — i.e.
// the document value immediately before any in-progress current change.
func (e *Editor) composedCommittedAndPending() (*ot.Operation, error) {
	committedOp, err := e.committed.ComposeRange(0, e.committed.Len())
	if err != nil {
		return nil, err
	}
	pendingOp, err := e.pending.ComposeRange(0, e.pending.Len())
	if err != nil {
		return nil, err
	}
	return composeChain(committedOp, pendingOp)
}

// ComputeValue returns the visible document value: the composition of
// all committed revisions, the pending log, and the current change (if
// any), applied to the empty document.
func (e *Editor) ComputeValue() (string, error) {
	base, err := e.composedCommittedAndPending()
	if err != nil {
		return "", err
	}
	var currentOp *ot.Operation
	if e.current != nil {
		currentOp = e.current.ChangeSet
	}
	full, err := composeChain(base, currentOp)
	if err != nil {
		return "", err
	}
	if full == nil {
		return "", nil
	}
	return full.Apply("")
}

// composeChain composes a sequence of operations, skipping nils (a nil
// stands for "no change at this stage" and composes as identity).
func composeChain(ops ...*ot.Operation) (*ot.Operation, error) {
	var result *ot.Operation
	for _, op := range ops {
		if op == nil {
			continue
		}
		if result == nil {
			result = op
			continue
		}
		var err error
		result, err = ot.Compose(result, op)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// flushIfExpired forces a flush if the current change's editable_until
// deadline has passed. Every input event arriving after the deadline
// flushes before the event itself is processed.
func (e *Editor) flushIfExpired() error {
	if e.current != nil && e.clock().After(e.current.EditableUntil) {
		return e.flush()
	}
	return nil
}

// flush appends the current change (if any) to the pending log, pushes
// an undo item whose change set is its inverse evaluated against the
// document state that existed when the current change began, and clears
// the current change.
func (e *Editor) flush() error {
	if e.current == nil {
		return nil
	}
	docBefore, err := e.composedCommittedAndPending()
	if err != nil {
		return err
	}
	var docBeforeStr string
	if docBefore != nil {
		docBeforeStr, err = docBefore.Apply("")
		if err != nil {
			return err
		}
	}

	cs := e.current.ChangeSet
	inverse := cs.Invert(docBeforeStr)

	e.pending.PushBack(cs)
	e.undo.Add(ot.UndoItem{ChangeSet: inverse, SelectionAfter: e.current.PriorSelection}, true)
	e.current = nil
	return nil
}
