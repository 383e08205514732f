package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingLog_FIFO(t *testing.T) {
	p := NewPendingLog()
	assert.True(t, p.IsEmpty())
	assert.Nil(t, p.Front())
	assert.Nil(t, p.PopFront())

	a := NewBuilder().Insert("a").Build()
	b := NewBuilder().Retain(1).Insert("b").Build()
	p.PushBack(a)
	p.PushBack(b)

	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Front().Equals(a))

	front := p.PopFront()
	assert.True(t, front.Equals(a))
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Front().Equals(b))
}

func TestPendingLog_BackMutAndSetBack(t *testing.T) {
	p := NewPendingLog()
	a := NewBuilder().Insert("a").Build()
	p.PushBack(a)

	assert.True(t, p.BackMut().Equals(a))

	composed := NewBuilder().Insert("ab").Build()
	p.SetBack(composed)
	assert.True(t, p.Front().Equals(composed))
	assert.Equal(t, 1, p.Len())
}

func TestPendingLog_Compress(t *testing.T) {
	p := NewPendingLog()
	p.PushBack(NewBuilder().Insert("a").Build())
	p.PushBack(NewBuilder().Retain(1).Insert("b").Build())
	p.PushBack(NewBuilder().Retain(2).Insert("c").Build())

	require.NoError(t, p.Compress())
	assert.Equal(t, 1, p.Len())

	result, err := p.Front().Apply("")
	require.NoError(t, err)
	assert.Equal(t, "abc", result)
}

func TestPendingLog_ComposeRange(t *testing.T) {
	p := NewPendingLog()
	p.PushBack(NewBuilder().Insert("a").Build())
	p.PushBack(NewBuilder().Retain(1).Insert("b").Build())
	p.PushBack(NewBuilder().Retain(2).Insert("c").Build())

	composed, err := p.ComposeRange(0, 2)
	require.NoError(t, err)
	result, err := composed.Apply("")
	require.NoError(t, err)
	assert.Equal(t, "ab", result)

	none, err := p.ComposeRange(5, 5)
	require.NoError(t, err)
	assert.Nil(t, none)
}

// Transform must rewrite every queued entry against the remote change and
// hand back the remote carried forward past all of them.
func TestPendingLog_Transform(t *testing.T) {
	doc := "ac"
	local1 := NewBuilder().Retain(1).Insert("B").Retain(1).Build() // "aBc"
	local2 := NewBuilder().Retain(3).Insert("D").Build()           // "aBcD" (against local1's output)
	remote := NewBuilder().Retain(1).Insert("X").Retain(1).Build() // "aXc"

	p := NewPendingLog()
	p.PushBack(local1)
	p.PushBack(local2)

	remotePrime, err := p.Transform(remote)
	require.NoError(t, err)

	// Applying remote then the transformed pending log must match
	// applying the original pending log then the carried-forward remote.
	viaRemoteFirst, err := remote.Apply(doc)
	require.NoError(t, err)
	for _, cs := range p.changeSets {
		viaRemoteFirst, err = cs.Apply(viaRemoteFirst)
		require.NoError(t, err)
	}

	viaLocalFirst, err := local1.Apply(doc)
	require.NoError(t, err)
	viaLocalFirst, err = local2.Apply(viaLocalFirst)
	require.NoError(t, err)
	viaLocalFirst, err = remotePrime.Apply(viaLocalFirst)
	require.NoError(t, err)

	assert.Equal(t, viaLocalFirst, viaRemoteFirst)
}
