package ot

// Selection is a caret or range over a document, measured in the same
// code-unit space as the change sets that apply to that document.
// Count == 0 denotes a caret at Offset.
type Selection struct {
	Offset int
	Count  int
}

// Caret returns a zero-length Selection at offset.
func Caret(offset int) Selection {
	return Selection{Offset: offset}
}

// End returns the offset one past the selection's last retained unit.
func (s Selection) End() int {
	return s.Offset + s.Count
}

// TransformSelection moves sel across a concurrently-applied change set c.
// Both endpoints are mapped independently by walking c's ops and tracking
// how each retained/deleted region shifts the source-document offsets.
//
// Tie-break: a caret sitting exactly at an insertion point stays to the
// left of that insert — consistent with the remote-before-local insert
// tie-break transform.go applies, so a caret's apparent position in the
// text never jumps across a concurrently-inserted run it didn't cause.
func TransformSelection(sel Selection, c *Operation) Selection {
	newOffset := transformOffset(sel.Offset, c, false)
	if sel.Count == 0 {
		// A caret has no right edge to absorb a concurrent insert with;
		// treating its End() as isEnd=true here would make it swallow an
		// insert landing exactly at the caret, turning a zero-width caret
		// into a non-empty selection it never made.
		return Selection{Offset: newOffset}
	}
	newEnd := transformOffset(sel.End(), c, true)
	return Selection{Offset: newOffset, Count: newEnd - newOffset}
}

// transformOffset maps a single source offset through c. isEnd controls
// whether an insert exactly at offset is treated as preceding it (isEnd
// true: the endpoint of a range absorbs concurrent inserts at its right
// edge) or following it (isEnd false: a caret/start stays left of an
// insert at the same point).
func transformOffset(offset int, c *Operation, isEnd bool) int {
	if offset < 0 {
		offset = 0
	}
	srcPos := 0
	outPos := 0

	for _, op := range c.ops {
		if srcPos > offset {
			break
		}
		switch v := op.(type) {
		case RetainOp:
			n := int(v)
			if srcPos+n > offset {
				outPos += offset - srcPos
				return outPos
			}
			outPos += n
			srcPos += n
			// Exactly at the boundary: don't return yet. Let the loop
			// continue so a following InsertOp at this same source
			// position can be evaluated by its own isEnd rule below —
			// an early return here would make isEnd's "absorb a
			// concurrent insert at the range's right edge" unreachable
			// whenever the insert is preceded by a retain.

		case DeleteOp:
			n := v.Length()
			if srcPos+n > offset {
				// offset falls inside a deleted run; it collapses to the
				// start of the deletion.
				return outPos
			}
			srcPos += n

		case InsertOp:
			n := v.Length()
			if srcPos == offset {
				if isEnd {
					outPos += n
					continue
				}
				return outPos
			}
			outPos += n
		}
	}
	return outPos
}
