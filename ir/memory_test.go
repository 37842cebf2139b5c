package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputerLoadStore(t *testing.T) {
	c := NewComputer()
	c.PushFrame()

	addr, err := c.AllocateWords(1)
	require.NoError(t, err)
	assert.Equal(t, word(0), addr)

	require.NoError(t, c.Store(addr, 99))
	v, err := c.Load(addr)
	require.NoError(t, err)
	assert.Equal(t, word(99), v)
}

func TestComputerAllocateWordsAdvancesByWordCount(t *testing.T) {
	c := NewComputer()
	c.PushFrame()

	first, err := c.AllocateWords(4)
	require.NoError(t, err)
	second, err := c.AllocateWords(1)
	require.NoError(t, err)

	assert.Equal(t, word(0), first)
	assert.Equal(t, word(16), second, "second allocation starts 16 bytes (4 words) after the first")
}

func TestComputerLoadStoreRejectsMisaligned(t *testing.T) {
	c := NewComputer()
	c.PushFrame()

	_, err := c.Load(1)
	assert.Error(t, err)

	err = c.Store(2, 5)
	assert.Error(t, err)
}

func TestComputerAllocateWithoutFrameFails(t *testing.T) {
	c := NewComputer()
	_, err := c.AllocateWords(1)
	assert.Error(t, err)
}

func TestComputerPushPopFrameIsolatesHighWaterMark(t *testing.T) {
	c := NewComputer()
	c.PushFrame()

	outer, err := c.AllocateWords(1)
	require.NoError(t, err)

	c.PushFrame()
	inner, err := c.AllocateWords(1)
	require.NoError(t, err)
	assert.NotEqual(t, outer, inner)
	assert.Equal(t, 2, c.FrameDepth())

	c.PopFrame()
	assert.Equal(t, 1, c.FrameDepth())

	// Popping doesn't zero memory or reset the high-water mark below what a
	// fresh allocation in the surviving frame would have seen already, but a
	// new allocation in that frame still starts above its own prior mark.
	again, err := c.AllocateWords(1)
	require.NoError(t, err)
	assert.Equal(t, outer+4, again)
}

func TestFrameLookupDoesNotCrossFrames(t *testing.T) {
	outer := newFrame()
	outer.bind("x", Symbol{Addr: 0, SizeBytes: 4})

	inner := newFrame()
	_, ok := inner.lookup("x")
	assert.False(t, ok, "a fresh frame must not see an outer frame's bindings")

	_, ok = outer.lookup("x")
	assert.True(t, ok)
}
