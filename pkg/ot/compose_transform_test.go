package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compose must satisfy apply(apply(S, A), B) == apply(S, Compose(A, B)).
func TestCompose_Random(t *testing.T) {
	for i := 0; i < 100; i++ {
		str := randomString(30)
		a := randomOperation(str)
		afterA, err := a.Apply(str)
		require.NoError(t, err)

		b := randomOperation(afterA)
		afterB, err := b.Apply(afterA)
		require.NoError(t, err)

		composed, err := Compose(a, b)
		require.NoError(t, err)

		direct, err := composed.Apply(str)
		require.NoError(t, err)
		assert.Equal(t, afterB, direct)
	}
}

// TP1 convergence: two concurrent operations applied in either order,
// each followed by the other's transformed counterpart, must reach the
// same document.
func TestTransform_TP1Convergence(t *testing.T) {
	for i := 0; i < 100; i++ {
		str := randomString(30)
		a := randomOperation(str)
		b := randomOperation(str)

		aPrime, bPrime, err := Transform(a, b)
		require.NoError(t, err)

		leftFirst, err := a.Apply(str)
		require.NoError(t, err)
		leftFirst, err = bPrime.Apply(leftFirst)
		require.NoError(t, err)

		rightFirst, err := b.Apply(str)
		require.NoError(t, err)
		rightFirst, err = aPrime.Apply(rightFirst)
		require.NoError(t, err)

		assert.Equal(t, leftFirst, rightFirst)
	}
}

// Two concurrent edits of "Hello, world!": one inserts " there", the
// other rewrites the greeting and appends a sentence. Applying either
// edit followed by the other's transformed counterpart must interleave
// both intents.
func TestTransform_ConcurrentGreetingEdits(t *testing.T) {
	d := "Hello, world!"
	a := NewBuilder().Retain(5).Insert(" there").Retain(8).Build()
	b := NewBuilder().
		Insert("Why, ").
		Delete(1).
		Insert("h").
		Retain(11).
		Delete(1).
		Insert(". Good to see you.").
		Build()

	_, bPrime, err := Transform(a, b)
	require.NoError(t, err)

	afterA, err := a.Apply(d)
	require.NoError(t, err)
	got, err := bPrime.Apply(afterA)
	require.NoError(t, err)
	assert.Equal(t, "Why, hello there, world. Good to see you.", got)
}

// Concurrent inserts at the same position: the documented tie-break
// keeps operation1's insert to the left of operation2's, whichever of the
// two is applied first.
func TestTransform_ConcurrentInsertTieBreak(t *testing.T) {
	doc := "ac"
	a := NewBuilder().Retain(1).Insert("B").Retain(1).Build() // "aBc"
	b := NewBuilder().Retain(1).Insert("X").Retain(1).Build() // "aXc"

	aPrime, bPrime, err := Transform(a, b)
	require.NoError(t, err)

	result, err := a.Apply(doc)
	require.NoError(t, err)
	result, err = bPrime.Apply(result)
	require.NoError(t, err)
	assert.Equal(t, "aBXc", result)

	result2, err := b.Apply(doc)
	require.NoError(t, err)
	result2, err = aPrime.Apply(result2)
	require.NoError(t, err)
	assert.Equal(t, "aBXc", result2)
}

func TestTransformSelection_CaretStaysLeftOfConcurrentInsert(t *testing.T) {
	sel := Caret(1)
	remote := NewBuilder().Retain(1).Insert("XYZ").Retain(1).Build()
	got := TransformSelection(sel, remote)
	assert.Equal(t, Caret(1), got)
}

func TestTransformSelection_RangeEndAbsorbsConcurrentInsertAtItsEdge(t *testing.T) {
	sel := Selection{Offset: 0, Count: 2}
	remote := NewBuilder().Retain(2).Insert("XYZ").Build()
	got := TransformSelection(sel, remote)
	assert.Equal(t, Selection{Offset: 0, Count: 5}, got)
}
