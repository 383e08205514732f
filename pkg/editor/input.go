package editor

import (
	"fmt"

	"github.com/coreseekdev/texere/pkg/ot"
)

// InputType enumerates the browser input_type values the dispatch table
// distinguishes. Anything else collapses to InputOther, which is handled
// by diffing the pre-event value against the event's TargetValue (see
// applyUnrecognizedInput); such an event that leaves the value unchanged
// is logged and ignored.
type InputType int

const (
	InputOther InputType = iota
	InputHistoryUndo
	InputHistoryRedo
	InputDeleteByCut
	InputDeleteByDrag
	InputDeleteContentBackward
	InputDeleteContentForward
	InputInsertFromDrop
	InputInsertText
	InputInsertFromPaste
	InputInsertLineBreak
)

// InputEvent is the normalized shape UpdateFromInputEvent consumes: the
// input_type tag, the native event's data payload (the inserted text, for
// insert-family events), the post-event value of the editable surface,
// and the post-event selection. The pre-event selection is not part of
// the event — it is whatever Editor.Selection() already holds from the
// previous event.
type InputEvent struct {
	Type            InputType
	NativeData      string
	TargetValue     string
	TargetSelection ot.Selection
}

// UpdateFromInputEvent is the engine's single entry point for live
// keystrokes: it builds the change set the event implies,
// routes it through coalescing or a forced flush depending on the
// input_type, and updates the selection. Every branch that edits the
// document and is not coupled to undo/redo clears the redo stack, since
// any ordinary edit invalidates
// whatever was previously undone.
func (e *Editor) UpdateFromInputEvent(ev InputEvent) error {
	if err := e.flushIfExpired(); err != nil {
		return err
	}

	switch ev.Type {
	case InputHistoryUndo:
		return e.applyHistoryUndo(ev)

	case InputHistoryRedo:
		return e.applyHistoryRedo(ev)

	case InputDeleteByCut, InputDeleteByDrag:
		cs, err := e.deleteSelectionOp()
		if err != nil {
			return err
		}
		e.undo.ClearRedo()
		if err := e.forceNewRevision(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputDeleteContentBackward:
		cs, err := e.deleteCaretOp(ev, true)
		if err != nil {
			return err
		}
		e.undo.ClearRedo()
		if err := e.openOrCoalesce(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputDeleteContentForward:
		cs, err := e.deleteCaretOp(ev, false)
		if err != nil {
			return err
		}
		e.undo.ClearRedo()
		if err := e.openOrCoalesce(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputInsertFromDrop:
		oldLen, err := e.currentLength()
		if err != nil {
			return err
		}
		cs := insertAtOp(oldLen, e.selection.Offset, ev.NativeData)
		e.undo.ClearRedo()
		if err := e.forceNewRevision(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputInsertLineBreak:
		oldLen, err := e.currentLength()
		if err != nil {
			return err
		}
		cs := insertAtOp(oldLen, e.selection.Offset, "\n")
		e.undo.ClearRedo()
		if err := e.forceNewRevision(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputInsertText:
		oldLen, err := e.currentLength()
		if err != nil {
			return err
		}
		cs := insertWithSelectionOp(oldLen, e.selection, ev.NativeData)
		e.undo.ClearRedo()
		if e.selection.Count == 0 {
			err = e.openOrCoalesce(cs)
		} else {
			err = e.forceNewRevision(cs)
		}
		if err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	case InputInsertFromPaste:
		oldLen, err := e.currentLength()
		if err != nil {
			return err
		}
		cs := insertWithSelectionOp(oldLen, e.selection, ev.NativeData)
		e.undo.ClearRedo()
		if err := e.forceNewRevision(cs); err != nil {
			return err
		}
		e.selection = ev.TargetSelection
		return nil

	default:
		return e.applyUnrecognizedInput(ev)
	}
}

// applyUnrecognizedInput handles input_type values outside the dispatch
// table (insertCompositionText and similar IME-driven events chief among
// them): rather than ignore an event that actually changed the document,
// it diffs the pre-event value against TargetValue to recover a change
// set, and treats the result like any other forced-revision insert. A
// no-op diff (the event fired but nothing changed, as composition start
// events often do) is genuinely ignored.
func (e *Editor) applyUnrecognizedInput(ev InputEvent) error {
	before, err := e.ComputeValue()
	if err != nil {
		return err
	}
	if before == ev.TargetValue {
		e.log.Debug("ignoring unrecognized input event %s with no value change", ev.Type)
		return nil
	}
	cs := ChangeSetFromDiff(before, ev.TargetValue)
	e.undo.ClearRedo()
	if err := e.forceNewRevision(cs); err != nil {
		return err
	}
	e.selection = ev.TargetSelection
	return nil
}

// currentLength returns the UTF-16 length of the document's current
// visible value, used to size the trailing Retain of a freshly built
// change set.
func (e *Editor) currentLength() (int, error) {
	value, err := e.ComputeValue()
	if err != nil {
		return 0, err
	}
	return ot.UTF16Len(value), nil
}

// deleteSelectionOp builds Retain(sel.Offset)·Delete(sel.Count)·Retain(tail)
// against the current selection, for events that always delete a range
// (cut, drag).
func (e *Editor) deleteSelectionOp() (*ot.Operation, error) {
	oldLen, err := e.currentLength()
	if err != nil {
		return nil, err
	}
	return deleteRangeOp(oldLen, e.selection), nil
}

// deleteCaretOp builds the change set for deleteContentBackward (backward
// true) or deleteContentForward (backward false). A range selection is
// always deleted outright; a collapsed caret infers how many units were
// removed from the drop in the post-event target value's length, falling
// back to a grapheme-cluster boundary when that diff is inconclusive (the
// event fired but the reported value length didn't shrink).
func (e *Editor) deleteCaretOp(ev InputEvent, backward bool) (*ot.Operation, error) {
	value, err := e.ComputeValue()
	if err != nil {
		return nil, err
	}
	oldLen := ot.UTF16Len(value)

	if e.selection.Count > 0 {
		return deleteRangeOp(oldLen, e.selection), nil
	}

	delta := oldLen - ot.UTF16Len(ev.TargetValue)
	if delta <= 0 {
		if backward {
			delta = graphemeLengthBefore(value, e.selection.Offset)
		} else {
			delta = graphemeLengthAfter(value, e.selection.Offset)
		}
	}

	var start int
	if backward {
		start = e.selection.Offset - delta
	} else {
		start = e.selection.Offset
	}
	if start < 0 {
		start = 0
	}
	if start+delta > oldLen {
		delta = oldLen - start
	}
	return retainDeleteRetain(oldLen, start, delta), nil
}

func deleteRangeOp(oldLen int, sel ot.Selection) *ot.Operation {
	return retainDeleteRetain(oldLen, sel.Offset, sel.Count)
}

func retainDeleteRetain(oldLen, start, count int) *ot.Operation {
	b := ot.NewBuilder()
	b.Retain(start)
	b.Delete(count)
	b.Retain(oldLen - start - count)
	return b.Build()
}

// insertAtOp builds Retain(at)·Insert(text)·Retain(tail), with no
// deletion: used by events that insert without replacing a selection
// (drop, line break).
func insertAtOp(oldLen, at int, text string) *ot.Operation {
	b := ot.NewBuilder()
	b.Retain(at)
	b.Insert(text)
	b.Retain(oldLen - at)
	return b.Build()
}

// insertWithSelectionOp builds Retain(sel.Offset)·Delete(sel.Count)·
// Insert(text)·Retain(tail): used by events that replace whatever was
// selected (insertText, insertFromPaste).
func insertWithSelectionOp(oldLen int, sel ot.Selection, text string) *ot.Operation {
	b := ot.NewBuilder()
	b.Retain(sel.Offset)
	b.Delete(sel.Count)
	b.Insert(text)
	b.Retain(oldLen - sel.End())
	return b.Build()
}

// applyHistoryUndo flushes any open current change, then pops the undo
// stack and applies its change set, pushing the re-inverted change set
// onto the redo stack (UndoManager.Add does this automatically for a
// callback invoked from inside PerformUndo, since it observes
// StateUndoing).
func (e *Editor) applyHistoryUndo(ev InputEvent) error {
	if err := e.flush(); err != nil {
		return err
	}
	var applyErr error
	err := e.undo.PerformUndo(func(item ot.UndoItem) {
		docBefore, err := e.composedCommittedAndPending()
		if err != nil {
			applyErr = err
			return
		}
		var docStr string
		if docBefore != nil {
			docStr, err = docBefore.Apply("")
			if err != nil {
				applyErr = err
				return
			}
		}
		redo := item.ChangeSet.Invert(docStr)
		e.pending.PushBack(item.ChangeSet)
		e.selection = item.SelectionAfter
		e.undo.Add(ot.UndoItem{ChangeSet: redo, SelectionAfter: ev.TargetSelection}, false)
	})
	if err != nil {
		return err
	}
	return applyErr
}

// applyHistoryRedo is applyHistoryUndo's mirror over the redo stack.
func (e *Editor) applyHistoryRedo(ev InputEvent) error {
	if err := e.flush(); err != nil {
		return err
	}
	var applyErr error
	err := e.undo.PerformRedo(func(item ot.UndoItem) {
		docBefore, err := e.composedCommittedAndPending()
		if err != nil {
			applyErr = err
			return
		}
		var docStr string
		if docBefore != nil {
			docStr, err = docBefore.Apply("")
			if err != nil {
				applyErr = err
				return
			}
		}
		undo := item.ChangeSet.Invert(docStr)
		e.pending.PushBack(item.ChangeSet)
		e.selection = item.SelectionAfter
		e.undo.Add(ot.UndoItem{ChangeSet: undo, SelectionAfter: ev.TargetSelection}, false)
	})
	if err != nil {
		return err
	}
	return applyErr
}

func (t InputType) String() string {
	switch t {
	case InputHistoryUndo:
		return "historyUndo"
	case InputHistoryRedo:
		return "historyRedo"
	case InputDeleteByCut:
		return "deleteByCut"
	case InputDeleteByDrag:
		return "deleteByDrag"
	case InputDeleteContentBackward:
		return "deleteContentBackward"
	case InputDeleteContentForward:
		return "deleteContentForward"
	case InputInsertFromDrop:
		return "insertFromDrop"
	case InputInsertText:
		return "insertText"
	case InputInsertFromPaste:
		return "insertFromPaste"
	case InputInsertLineBreak:
		return "insertLineBreak"
	default:
		return fmt.Sprintf("other(%d)", int(t))
	}
}
