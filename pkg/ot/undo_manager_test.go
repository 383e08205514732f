package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoManager_AddAndPerformUndo(t *testing.T) {
	um := NewUndoManager(10)
	assert.False(t, um.CanUndo())

	inverse := NewBuilder().Delete(3).Build()
	um.Add(UndoItem{ChangeSet: inverse, SelectionAfter: Caret(0)}, false)
	assert.True(t, um.CanUndo())
	assert.False(t, um.CanRedo())

	var got UndoItem
	err := um.PerformUndo(func(item UndoItem) { got = item })
	require.NoError(t, err)
	assert.True(t, got.ChangeSet.Equals(inverse))
	assert.False(t, um.CanUndo())
}

func TestUndoManager_PerformUndo_EmptyStack(t *testing.T) {
	um := NewUndoManager(10)
	err := um.PerformUndo(func(UndoItem) {})
	assert.ErrorIs(t, err, ErrCannotUndo)
}

func TestUndoManager_PerformRedo_EmptyStack(t *testing.T) {
	um := NewUndoManager(10)
	err := um.PerformRedo(func(UndoItem) {})
	assert.ErrorIs(t, err, ErrCannotRedo)
}

// A callback running under PerformUndo that calls Add must land on the
// redo stack, not the undo stack, since undoing is itself an edit.
func TestUndoManager_UndoThenRedo(t *testing.T) {
	um := NewUndoManager(10)
	undoCS := NewBuilder().Delete(3).Build()
	um.Add(UndoItem{ChangeSet: undoCS, SelectionAfter: Caret(0)}, false)

	redoCS := NewBuilder().Insert("foo").Build()
	err := um.PerformUndo(func(item UndoItem) {
		um.Add(UndoItem{ChangeSet: redoCS, SelectionAfter: Caret(3)}, false)
	})
	require.NoError(t, err)

	assert.False(t, um.CanUndo())
	assert.True(t, um.CanRedo())

	var got UndoItem
	err = um.PerformRedo(func(item UndoItem) { got = item })
	require.NoError(t, err)
	assert.True(t, got.ChangeSet.Equals(redoCS))
}

// Any normal (non-undo, non-redo) Add clears the redo stack.
func TestUndoManager_NormalAddClearsRedo(t *testing.T) {
	um := NewUndoManager(10)
	um.Add(UndoItem{ChangeSet: NewBuilder().Delete(1).Build(), SelectionAfter: Caret(0)}, false)
	_ = um.PerformUndo(func(item UndoItem) {
		um.Add(UndoItem{ChangeSet: NewBuilder().Insert("x").Build(), SelectionAfter: Caret(1)}, false)
	})
	require.True(t, um.CanRedo())

	um.Add(UndoItem{ChangeSet: NewBuilder().Delete(1).Build(), SelectionAfter: Caret(0)}, false)
	assert.False(t, um.CanRedo())
}

func TestUndoManager_MaxItemsEviction(t *testing.T) {
	um := NewUndoManager(2)
	for i := 0; i < 5; i++ {
		// compose=false so distinct, non-adjacent deletes never merge.
		um.Add(UndoItem{ChangeSet: NewBuilder().Delete(1).Build(), SelectionAfter: Caret(i)}, false)
	}
	assert.Equal(t, 2, um.UndoStackLength())
}

// Undo and redo items are both anchored to the current document state,
// so each stack transforms against the incoming remote itself — not the
// remote carried past the other stack, whose base length no longer
// matches once the undo chain changes document length.
func TestUndoManager_Transform_BothStacksAnchoredToCurrentState(t *testing.T) {
	um := NewUndoManager(10)

	// Two edits on "abc": the first typed the whole document, the second
	// appended "X". Undoing the second leaves doc "abc" with one undo
	// item (delete everything) and one redo item (re-append "X"), both
	// based on the same 3-unit state.
	um.Add(UndoItem{ChangeSet: NewBuilder().Delete(3).Build(), SelectionAfter: Caret(0)}, false)
	um.Add(UndoItem{ChangeSet: NewBuilder().Retain(3).Delete(1).Build(), SelectionAfter: Caret(3)}, false)
	err := um.PerformUndo(func(item UndoItem) {
		um.Add(UndoItem{ChangeSet: NewBuilder().Retain(3).Insert("X").Build(), SelectionAfter: Caret(4)}, false)
	})
	require.NoError(t, err)
	require.True(t, um.CanUndo())
	require.True(t, um.CanRedo())

	// A length-changing remote: after the undo stack transforms, a
	// remote carried forward past it would no longer match the redo
	// items' base length.
	remote := NewBuilder().Retain(3).Insert("YZ").Build()
	require.NoError(t, um.Transform(remote))

	assert.Equal(t, 1, um.UndoStackLength())
	assert.Equal(t, 1, um.RedoStackLength())
	undoPrime := NewBuilder().Delete(3).Retain(2).Build()
	assert.True(t, um.undoStack[0].ChangeSet.Equals(undoPrime))
	redoPrime := NewBuilder().Retain(5).Insert("X").Build()
	assert.True(t, um.redoStack[0].ChangeSet.Equals(redoPrime))
}

// An undo step neutralized by a concurrent remote edit still occupies
// its stack slot; it must not vanish and shift undo depth.
func TestUndoManager_Transform_KeepsNoopEntries(t *testing.T) {
	um := NewUndoManager(10)
	um.Add(UndoItem{ChangeSet: NewBuilder().Delete(1).Build(), SelectionAfter: Caret(0)}, false)

	// The remote deletes the same single unit the undo item would have.
	remote := NewBuilder().Delete(1).Build()
	require.NoError(t, um.Transform(remote))

	require.Equal(t, 1, um.UndoStackLength())
	assert.True(t, um.undoStack[0].ChangeSet.IsNoop())
}

// Transform must rewrite stack entries top-to-bottom and keep the
// selection and change set for each entry in lockstep.
func TestUndoManager_Transform(t *testing.T) {
	um := NewUndoManager(10)
	item := UndoItem{
		ChangeSet:      NewBuilder().Retain(1).Build(),
		SelectionAfter: Caret(1),
	}
	um.Add(item, false)

	remote := NewBuilder().Insert("X").Retain(1).Build() // inserted at position 0, base doc length 1
	err := um.Transform(remote)
	require.NoError(t, err)

	assert.Equal(t, 1, um.UndoStackLength())
	assert.Equal(t, Caret(2), um.undoStack[0].SelectionAfter)
}
