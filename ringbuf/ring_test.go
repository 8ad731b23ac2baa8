package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	r := New(4)
	for _, ch := range []byte("abc") {
		require.True(t, r.Push(NewWord(ch)))
	}
	assert.Equal(t, 3, r.Len())

	for _, want := range []byte("abc") {
		w, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, want, w.Char())
	}
	assert.True(t, r.Empty())
}

func TestPushFullDrops(t *testing.T) {
	r := New(2)
	assert.True(t, r.Push(NewWord('a')))
	assert.True(t, r.Push(NewWord('b')))
	assert.False(t, r.Push(NewWord('c')))
	assert.True(t, r.Full())
}

func TestEOTCount(t *testing.T) {
	r := New(8)
	r.Push(NewWord('a'))
	r.Push(NewWord('b').WithTag(EOT))
	r.Push(NewWord('c'))
	assert.Equal(t, 1, r.EOTCount())

	r.Pop()
	r.Pop()
	assert.Equal(t, 0, r.EOTCount())
}

func TestPopTailNeverErasesEOT(t *testing.T) {
	r := New(8)
	r.Push(NewWord('a'))
	r.Push(NewWord('\n').WithTag(EOT))

	_, ok := r.PopTail()
	assert.False(t, ok, "must not erase an EOT-tagged word")
	assert.Equal(t, 2, r.Len())
}

func TestPopTailRemovesNewest(t *testing.T) {
	r := New(8)
	r.Push(NewWord('a'))
	r.Push(NewWord('b'))

	w, ok := r.PopTail()
	require.True(t, ok)
	assert.Equal(t, byte('b'), w.Char())
	assert.Equal(t, 1, r.Len())
}

func TestTagAllBumpsEOTCount(t *testing.T) {
	r := New(8)
	r.Push(NewWord('a'))
	r.Push(NewWord('b'))
	assert.Equal(t, 0, r.EOTCount())

	r.TagAll(EOT)
	assert.Equal(t, 2, r.EOTCount())
}

func TestResetClears(t *testing.T) {
	r := New(4)
	r.Push(NewWord('a').WithTag(EOT))
	r.Reset()
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.EOTCount())
}

func TestLastNonEOTOffset(t *testing.T) {
	r := New(8)
	r.Push(NewWord('a').WithTag(EOT))
	r.Push(NewWord('b'))
	r.Push(NewWord('c'))
	assert.Equal(t, 2, r.LastNonEOTOffset())

	r2 := New(8)
	r2.Push(NewWord('x'))
	r2.Push(NewWord('y'))
	assert.Equal(t, 2, r2.LastNonEOTOffset())
}

func TestWordLenClamped(t *testing.T) {
	w := NewWord('a').WithLen(100)
	assert.Equal(t, maxLen, w.Len())
	w = w.WithLen(-5)
	assert.Equal(t, 0, w.Len())
}
