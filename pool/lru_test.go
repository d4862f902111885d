package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUList__PushFrontAndPopBack__FIFOOrder(t *testing.T) {
	l := newLRUList()
	l.PushFront(1)
	l.PushFront(2)
	l.PushFront(3)

	entry, _, ok := l.PopBack()
	require.True(t, ok)
	assert.Equal(t, 1, entry, "1 was pushed first and is the least recently used")

	entry, _, ok = l.PopBack()
	require.True(t, ok)
	assert.Equal(t, 2, entry)

	assert.Equal(t, 1, l.Len())
}

func TestLRUList__MoveToFront__PromotesEntry(t *testing.T) {
	l := newLRUList()
	h1 := l.PushFront(1)
	l.PushFront(2)
	l.PushFront(3)

	l.MoveToFront(h1)

	entry, _, ok := l.PopBack()
	require.True(t, ok)
	assert.Equal(t, 2, entry, "promoting 1 to the front should leave 2 as the new tail")
}

func TestLRUList__Remove__RecyclesNodeSlot(t *testing.T) {
	l := newLRUList()
	h1 := l.PushFront(1)
	l.PushFront(2)

	l.Remove(h1)
	assert.Equal(t, 1, l.Len())

	h3 := l.PushFront(3)
	assert.LessOrEqual(t, len(l.nodes), 2, "the freed node slot must be recycled instead of growing the arena")
	_ = h3
}

func TestLRUList__PopBack__EmptyListReturnsFalse(t *testing.T) {
	l := newLRUList()
	_, _, ok := l.PopBack()
	assert.False(t, ok)
}
