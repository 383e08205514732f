package ot

import (
	"fmt"
	"unicode/utf16"
)

// utf16Len returns the length of s in UTF-16 code units, matching the
// browser text model change sets are defined over: work happens in code
// units of the chosen text encoding. A rune outside the basic
// multilingual plane counts as two units (a surrogate pair).
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// UTF16Len exports utf16Len for callers outside this package (pkg/editor
// needs it to size Retain/Delete spans against native event payloads,
// which arrive as Go strings but describe positions in UTF-16 units).
func UTF16Len(s string) int {
	return utf16Len(s)
}

// utf16Head returns the first n UTF-16 code units of s, re-encoded as a
// UTF-8 string. Used when an Insert op must be split mid-string during
// compose/transform; splitting on byte offsets instead would cut a
// multi-byte rune or a surrogate pair in half.
func utf16Head(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if n > len(units) {
		n = len(units)
	}
	return string(utf16.Decode(units[:n]))
}

// utf16Drop returns s with its first n UTF-16 code units removed.
func utf16Drop(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if n > len(units) {
		n = len(units)
	}
	return string(utf16.Decode(units[n:]))
}

// OperationType represents the type of an OT operation.
type OperationType int

const (
	// OpRetain retains (skips over) characters without modification.
	OpRetain OperationType = iota
	// OpInsert inserts new text at the current position.
	OpInsert
	// OpDelete removes characters from the current position.
	OpDelete
)

// Op is the interface for all operation types.
//
// In the ot.js implementation, operations are represented as:
//   - positive numbers: retain operations
//   - strings: insert operations
//   - negative numbers: delete operations
//
// In Go, we use a type-based approach with explicit Op types for better
// type safety and performance.
type Op interface {
	// Type returns the operation type.
	Type() OperationType
	// Length returns the length of the operation.
	// For retain: number of characters retained
	// For insert: length of inserted string
	// For delete: number of characters deleted
	Length() int
	// String returns a string representation for debugging.
	String() string
}

// RetainOp retains (skips over) characters without modification.
//
// Represented as a positive integer in the original ot.js implementation.
// Example: RetainOp(5) means "skip over the next 5 characters"
type RetainOp int

// Type returns OpRetain for RetainOp.
func (o RetainOp) Type() OperationType {
	return OpRetain
}

// Length returns the number of characters to retain.
func (o RetainOp) Length() int {
	return int(o)
}

// String returns a string representation for debugging.
func (o RetainOp) String() string {
	return fmt.Sprintf("retain %d", int(o))
}

// InsertOp inserts new text at the current position.
//
// Represented as a string in the original ot.js implementation.
// Example: InsertOp("Hello") means "insert 'Hello' at the current position"
type InsertOp string

// Type returns OpInsert for InsertOp.
func (o InsertOp) Type() OperationType {
	return OpInsert
}

// Length returns the length of the string to be inserted, in UTF-16 code
// units (not UTF-8 bytes — a rune beyond the BMP counts as 2).
func (o InsertOp) Length() int {
	return utf16Len(string(o))
}

// String returns a string representation for debugging.
func (o InsertOp) String() string {
	return fmt.Sprintf("insert '%s'", string(o))
}

// DeleteOp removes characters from the current position.
//
// Represented as a negative integer in the original ot.js implementation.
// Example: DeleteOp(-3) means "delete the next 3 characters"
type DeleteOp int

// Type returns OpDelete for DeleteOp.
func (o DeleteOp) Type() OperationType {
	return OpDelete
}

// Length returns the number of characters to delete (absolute value).
func (o DeleteOp) Length() int {
	return -int(o)
}

// String returns a string representation for debugging.
func (o DeleteOp) String() string {
	return fmt.Sprintf("delete %d", -int(o))
}

// Helper functions for working with Op interface

// IsRetain returns true if the op is a RetainOp.
func IsRetain(op Op) bool {
	return op.Type() == OpRetain
}

// IsInsert returns true if the op is an InsertOp.
func IsInsert(op Op) bool {
	return op.Type() == OpInsert
}

// IsDelete returns true if the op is a DeleteOp.
func IsDelete(op Op) bool {
	return op.Type() == OpDelete
}
