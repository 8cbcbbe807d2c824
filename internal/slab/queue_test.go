package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBackAndFront(t *testing.T) {
	q := NewQueue[int](3)
	assert.True(t, q.PushBack(1))
	assert.True(t, q.PushBack(2))
	assert.True(t, q.PushBack(3))
	assert.False(t, q.PushBack(4), "queue at capacity should reject")
	assert.True(t, q.Full())

	v, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestPopFrontOrder(t *testing.T) {
	q := NewQueue[string](4)
	q.PushBack("a")
	q.PushBack("b")
	q.PushBack("c")

	v, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, q.Len())

	v, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestRemoveAtMidQueueThenPushReclaims(t *testing.T) {
	q := NewQueue[int](3)
	q.PushBack(10)
	q.PushBack(20)
	q.PushBack(30)

	var midIdx int
	q.Each(func(idx int, v *int) bool {
		if *v == 20 {
			midIdx = idx
			return true
		}
		return false
	})
	q.RemoveAt(midIdx)
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.Full())

	var seen []int
	q.Each(func(idx int, v *int) bool {
		seen = append(seen, *v)
		return false
	})
	assert.Equal(t, []int{10, 30}, seen)

	assert.True(t, q.PushBack(40), "removing a mid-queue tombstone must free capacity")
	seen = nil
	q.Each(func(idx int, v *int) bool {
		seen = append(seen, *v)
		return false
	})
	assert.Equal(t, []int{10, 30, 40}, seen)
}

func TestEachStopsEarly(t *testing.T) {
	q := NewQueue[int](5)
	for i := 0; i < 5; i++ {
		q.PushBack(i)
	}
	var visited []int
	q.Each(func(idx int, v *int) bool {
		visited = append(visited, *v)
		return *v == 2
	})
	assert.Equal(t, []int{0, 1, 2}, visited)
}

func TestAtMutatesInPlace(t *testing.T) {
	type item struct{ n int }
	q := NewQueue[item](2)
	q.PushBack(item{n: 1})
	p := q.At(0)
	require.NotNil(t, p)
	p.n = 99
	v, _ := q.Front()
	assert.Equal(t, 99, v.n)
}

func TestRemoveAtOutOfRangeIsNoop(t *testing.T) {
	q := NewQueue[int](2)
	q.PushBack(1)
	q.RemoveAt(-1)
	q.RemoveAt(5)
	assert.Equal(t, 1, q.Len())
}
