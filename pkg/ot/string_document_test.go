package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringDocument_Basics(t *testing.T) {
	doc := NewStringDocument("hello")
	assert.Equal(t, 5, doc.Length())
	assert.Equal(t, "hello", doc.String())
	assert.Equal(t, "ell", doc.Slice(1, 4))
	assert.Equal(t, []byte("hello"), doc.Bytes())
}

func TestStringDocument_Clone_IsIndependent(t *testing.T) {
	doc := NewStringDocument("hello")
	clone := doc.Clone()
	assert.Equal(t, doc.String(), clone.String())

	cs := NewBuilder().Retain(5).Insert(" world").Build()
	result, err := cs.ApplyToDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.String())
	// The clone taken before the apply is untouched.
	assert.Equal(t, "hello", clone.String())
}

func TestStringDocument_Length_UTF16SurrogatePair(t *testing.T) {
	doc := NewStringDocument("a😀b")
	assert.Equal(t, 4, doc.Length()) // 'a' + surrogate pair (2) + 'b'
}
