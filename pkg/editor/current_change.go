package editor

import (
	"time"

	"github.com/coreseekdev/texere/pkg/ot"
)

// CurrentChange is the in-progress change set being mutated by live
// keystrokes. Its existence is the Open state of the None/Open state
// machine; a nil *CurrentChange on Editor is the None state.
type CurrentChange struct {
	ChangeSet      *ot.Operation
	PriorSelection ot.Selection
	EditableUntil  time.Time
}

// openOrCoalesce is the None->Open / Open->Open transition: if no
// current change exists, cs opens one (recording the pre-edit selection
// and a fresh editable_until deadline); otherwise cs is composed into
// the existing current change without touching its deadline or prior
// selection.
func (e *Editor) openOrCoalesce(cs *ot.Operation) error {
	if e.current == nil {
		e.current = &CurrentChange{
			ChangeSet:      cs,
			PriorSelection: e.selection,
			EditableUntil:  e.clock().Add(e.editableWindow),
		}
		return nil
	}
	composed, err := ot.Compose(e.current.ChangeSet, cs)
	if err != nil {
		return err
	}
	e.current.ChangeSet = composed
	return nil
}

// forceNewRevision is the "flush first, then open a new current change"
// transition used by inputs that must not coalesce with whatever came
// before them.
func (e *Editor) forceNewRevision(cs *ot.Operation) error {
	if err := e.flush(); err != nil {
		return err
	}
	e.current = &CurrentChange{
		ChangeSet:      cs,
		PriorSelection: e.selection,
		EditableUntil:  e.clock().Add(e.editableWindow),
	}
	return nil
}
