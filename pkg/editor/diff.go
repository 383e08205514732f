package editor

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/coreseekdev/texere/pkg/ot"
)

// ChangeSetFromDiff derives a change set from an old/new document value by
// diffing them, for input events whose payload alone doesn't pin down
// what changed (composed IME input in particular: the native event's
// data is the composed character, not the span it replaced). Equal runs
// become Retain, deletions and insertions become Delete/Insert in the
// order diffmatchpatch reports them, except that the Builder places an
// Insert ahead of a Delete it directly follows.
func ChangeSetFromDiff(oldValue, newValue string) *ot.Operation {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldValue, newValue, false)

	b := ot.NewBuilder()
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.Retain(ot.UTF16Len(d.Text))
		case diffmatchpatch.DiffDelete:
			b.Delete(ot.UTF16Len(d.Text))
		case diffmatchpatch.DiffInsert:
			b.Insert(d.Text)
		}
	}
	return b.Build()
}
