package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocGetFree(t *testing.T) {
	a := NewArena[string](2)
	id1, ok := a.Alloc("x")
	require.True(t, ok)
	id2, ok := a.Alloc("y")
	require.True(t, ok)
	assert.NotEqual(t, id1, id2)

	_, ok = a.Alloc("z")
	assert.False(t, ok, "arena at capacity should reject")

	assert.Equal(t, "x", *a.Get(id1))
	a.Free(id1)
	assert.Nil(t, a.Get(id1))
	assert.Equal(t, 1, a.Len())
}

func TestArenaReusesFreedSlot(t *testing.T) {
	a := NewArena[int](1)
	id, ok := a.Alloc(10)
	require.True(t, ok)
	a.Free(id)
	id2, ok := a.Alloc(20)
	require.True(t, ok)
	assert.Equal(t, id, id2)
	assert.Equal(t, 20, *a.Get(id2))
}

func TestArenaStableIDsAcrossChurn(t *testing.T) {
	a := NewArena[int](4)
	ids := make([]int, 4)
	for i := range ids {
		id, ok := a.Alloc(i * 100)
		require.True(t, ok)
		ids[i] = id
	}
	a.Free(ids[1])
	a.Free(ids[2])
	// ids[0] and ids[3] must still resolve correctly.
	assert.Equal(t, 0, *a.Get(ids[0]))
	assert.Equal(t, 300, *a.Get(ids[3]))

	newID, ok := a.Alloc(999)
	require.True(t, ok)
	assert.Equal(t, 999, *a.Get(newID))
	assert.Equal(t, 3, a.Len())
}

func TestArenaFreeOutOfRangeIsNoop(t *testing.T) {
	a := NewArena[int](1)
	a.Free(-1)
	a.Free(5)
	id, _ := a.Alloc(1)
	a.Free(id)
	a.Free(id) // double free
	assert.Equal(t, 0, a.Len())
}
