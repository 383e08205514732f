package ot

import (
	"sync"
)

// UndoManagerState represents the current state of the undo manager.
type UndoManagerState int

const (
	// StateNormal is the default state when not undoing or redoing.
	StateNormal UndoManagerState = iota
	// StateUndoing indicates that an undo operation is in progress.
	StateUndoing
	// StateRedoing indicates that a redo operation is in progress.
	StateRedoing
)

// UndoItem is one entry of the undo or redo stack: the change set that
// undoes (or redoes) an edit, paired with the selection that should be
// restored once it is applied. ChangeSet is stored as the inverse of
// the edit it undoes, evaluated against the document state that existed
// when it was created — it must be kept in lockstep with SelectionAfter
// whenever either stack is transformed against a remote change.
type UndoItem struct {
	ChangeSet      *Operation
	SelectionAfter Selection
}

// UndoManager manages undo/redo stacks of UndoItems.
//
// Based on the ot.js UndoManager: a small state machine
// (Normal/Undoing/Redoing) governs which stack Add pushes to, so that a
// callback invoked from PerformUndo/PerformRedo which itself calls Add
// (because undoing is itself an edit) lands on the opposite stack rather
// than clobbering history.
type UndoManager struct {
	mu          sync.RWMutex
	maxItems    int
	state       UndoManagerState
	dontCompose bool
	undoStack   []UndoItem
	redoStack   []UndoItem
}

// NewUndoManager creates a new undo manager. maxItems caps each stack;
// 10,000 is the default cap for the editor engine, but the manager
// itself takes it as a parameter so tests can use a small cap.
func NewUndoManager(maxItems int) *UndoManager {
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &UndoManager{
		maxItems:  maxItems,
		state:     StateNormal,
		undoStack: make([]UndoItem, 0, 16),
		redoStack: make([]UndoItem, 0, 16),
	}
}

// Add pushes item onto the stack selected by the current state:
//   - StateNormal: undo stack, and the redo stack is cleared (any
//     non-undo, non-redo edit invalidates redo .)
//   - StateUndoing: redo stack (an undo is itself an edit with its own undo).
//   - StateRedoing: undo stack.
//
// When compose is true and the top of the undo stack judges itself
// composable with item (ShouldBeComposedWith), the two change sets are
// composed into one entry instead of pushing a second; SelectionAfter is
// always taken from item, since it reflects the later edit's resulting
// selection.
func (um *UndoManager) Add(item UndoItem, compose bool) {
	um.mu.Lock()
	defer um.mu.Unlock()

	switch um.state {
	case StateUndoing:
		um.redoStack = append(um.redoStack, item)
		um.dontCompose = true
		return

	case StateRedoing:
		um.undoStack = append(um.undoStack, item)
		um.dontCompose = true
		return
	}

	// StateNormal
	if !um.dontCompose && compose && len(um.undoStack) > 0 {
		last := um.undoStack[len(um.undoStack)-1]
		if last.ChangeSet.ShouldBeComposedWith(item.ChangeSet) {
			if composed, err := Compose(last.ChangeSet, item.ChangeSet); err == nil {
				um.undoStack[len(um.undoStack)-1] = UndoItem{
					ChangeSet:      composed,
					SelectionAfter: item.SelectionAfter,
				}
				um.dontCompose = false
				um.redoStack = um.redoStack[:0]
				return
			}
		}
	}

	um.undoStack = append(um.undoStack, item)
	if len(um.undoStack) > um.maxItems {
		um.undoStack = um.undoStack[1:]
	}
	um.dontCompose = false
	um.redoStack = um.redoStack[:0]
}

// Transform rewrites both stacks in place against a remote change set,
// from the most recent entry down to the oldest: each entry's change set
// and SelectionAfter are carried forward past the remote edit, and the
// remote edit itself is carried forward past each entry in turn so that
// older entries transform against a remote change already adjusted for
// the newer ones.
//
// Both stacks are anchored to the same current document state — a redo
// item is not sequenced after the undo chain — so each stack starts from
// the original remote, not from the remote carried past the other stack.
func (um *UndoManager) Transform(remote *Operation) error {
	um.mu.Lock()
	defer um.mu.Unlock()

	newUndo, err := transformStack(um.undoStack, remote)
	if err != nil {
		return err
	}
	newRedo, err := transformStack(um.redoStack, remote)
	if err != nil {
		return err
	}
	um.undoStack = newUndo
	um.redoStack = newRedo
	return nil
}

func transformStack(stack []UndoItem, remote *Operation) ([]UndoItem, error) {
	newStack := make([]UndoItem, len(stack))

	for i := len(stack) - 1; i >= 0; i-- {
		remotePrime, itemPrime, err := Transform(remote, stack[i].ChangeSet)
		if err != nil {
			return nil, err
		}
		// A transform that collapses an entry to a no-op still occupies
		// its stack slot: an undo neutralized by a concurrent remote
		// edit consumes one undo step rather than vanishing.
		newStack[i] = UndoItem{
			ChangeSet:      itemPrime,
			SelectionAfter: TransformSelection(stack[i].SelectionAfter, remote),
		}
		remote = remotePrime
	}

	return newStack, nil
}

// PerformUndo pops the top undo item and invokes fn with it. The lock is
// released before fn runs so fn may itself call Add (pushing the redo
// entry created by actually applying the inverse) without deadlocking.
func (um *UndoManager) PerformUndo(fn func(item UndoItem)) error {
	um.mu.Lock()
	if len(um.undoStack) == 0 {
		um.mu.Unlock()
		return ErrCannotUndo
	}
	item := um.undoStack[len(um.undoStack)-1]
	um.undoStack = um.undoStack[:len(um.undoStack)-1]
	um.state = StateUndoing
	um.mu.Unlock()

	fn(item)

	um.mu.Lock()
	um.state = StateNormal
	um.mu.Unlock()
	return nil
}

// PerformRedo is PerformUndo's mirror image over the redo stack.
func (um *UndoManager) PerformRedo(fn func(item UndoItem)) error {
	um.mu.Lock()
	if len(um.redoStack) == 0 {
		um.mu.Unlock()
		return ErrCannotRedo
	}
	item := um.redoStack[len(um.redoStack)-1]
	um.redoStack = um.redoStack[:len(um.redoStack)-1]
	um.state = StateRedoing
	um.mu.Unlock()

	fn(item)

	um.mu.Lock()
	um.state = StateNormal
	um.mu.Unlock()
	return nil
}

// CanUndo returns true if undo is possible.
func (um *UndoManager) CanUndo() bool {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.undoStack) > 0
}

// CanRedo returns true if redo is possible.
func (um *UndoManager) CanRedo() bool {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.redoStack) > 0
}

// IsUndoing returns true if an undo operation is in progress.
func (um *UndoManager) IsUndoing() bool {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return um.state == StateUndoing
}

// IsRedoing returns true if a redo operation is in progress.
func (um *UndoManager) IsRedoing() bool {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return um.state == StateRedoing
}

// Clear empties both stacks.
func (um *UndoManager) Clear() {
	um.mu.Lock()
	defer um.mu.Unlock()
	um.undoStack = um.undoStack[:0]
	um.redoStack = um.redoStack[:0]
}

// ClearRedo empties only the redo stack. Any non-undo, non-redo edit
// invalidates redo without touching undo history.
func (um *UndoManager) ClearRedo() {
	um.mu.Lock()
	defer um.mu.Unlock()
	um.redoStack = um.redoStack[:0]
}

// UndoStackLength returns the number of items in the undo stack.
func (um *UndoManager) UndoStackLength() int {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.undoStack)
}

// RedoStackLength returns the number of items in the redo stack.
func (um *UndoManager) RedoStackLength() int {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.redoStack)
}
