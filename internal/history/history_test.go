package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/entity"
)

func entry(n int) Entry {
	return Entry{Type: fmt.Sprintf("op-%d", n), EntityType: entity.Goals}
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-3).Capacity())
	assert.Equal(t, 7, New(7).Capacity())
}

func TestUndo_Empty(t *testing.T) {
	h := New(0)
	_, ok := h.Undo()
	assert.False(t, ok)
	assert.False(t, h.CanUndo())
}

func TestPushUndo_LIFO(t *testing.T) {
	h := New(0)
	h.Push(entry(1))
	h.Push(entry(2))

	e, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "op-2", e.Type)

	e, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, "op-1", e.Type)

	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())
}

func TestPush_BoundEvictsOldest(t *testing.T) {
	h := New(50)
	for i := 1; i <= 60; i++ {
		h.Push(entry(i))
	}
	assert.Equal(t, 50, h.Len())

	// Most recent first: 60 down to 11.
	for want := 60; want >= 11; want-- {
		e, ok := h.Undo()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("op-%d", want), e.Type)
	}
	_, ok := h.Undo()
	assert.False(t, ok)
}

func TestPush_TruncatesUndoneEntries(t *testing.T) {
	h := New(0)
	h.Push(entry(1))
	h.Push(entry(2))
	h.Push(entry(3))

	_, _ = h.Undo()
	_, _ = h.Undo()
	require.True(t, h.CanRedo())

	h.Push(entry(4))
	assert.False(t, h.CanRedo())
	assert.Equal(t, []string{"op-1", "op-4"}, types(h.Entries()))
}

func TestReinstate(t *testing.T) {
	h := New(0)
	assert.False(t, h.Reinstate())

	h.Push(entry(1))
	_, _ = h.Undo()
	assert.True(t, h.Reinstate())
	assert.True(t, h.CanUndo())

	e, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, "op-1", e.Type)
	assert.False(t, h.Reinstate())
}

func TestClear(t *testing.T) {
	h := New(0)
	h.Push(entry(1))
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	_, ok := h.Peek()
	assert.False(t, ok)
}

func types(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Type
	}
	return out
}
