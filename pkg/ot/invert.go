package ot

import "unicode/utf16"

// Invert produces the change set that undoes op, given the document it was
// applied against (invert(doc_before, c) -> c'):
//
//	apply(apply(doc_before, op), op.Invert(doc_before)) == doc_before
//
// Retain(n) stays Retain(n); Insert(s) becomes Delete(len(s)); Delete(n)
// becomes Insert of the n code units op consumed from doc_before. Walking
// doc_before in UTF-16 code units (not bytes) matters at a chunk boundary
// that splits a surrogate pair or falls between composed characters.
func (op *Operation) Invert(docBefore string) *Operation {
	inverse := NewBuilder()
	units := utf16.Encode([]rune(docBefore))
	pos := 0

	for _, o := range op.ops {
		switch v := o.(type) {
		case RetainOp:
			inverse.Retain(int(v))
			pos += int(v)

		case InsertOp:
			inverse.Delete(v.Length())

		case DeleteOp:
			n := v.Length()
			end := pos + n
			if end > len(units) {
				end = len(units)
			}
			inverse.Insert(string(utf16.Decode(units[pos:end])))
			pos += n
		}
	}

	return inverse.Build()
}
