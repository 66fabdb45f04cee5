package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinOrdering(t *testing.T) {
	q := NewMin(8)
	q.Push(Item{Node: 3, Dist: 3.0})
	q.Push(Item{Node: 1, Dist: 1.0})
	q.Push(Item{Node: 2, Dist: 2.0})

	it, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(1), it.Node)

	it, _ = q.Pop()
	assert.Equal(t, uint32(2), it.Node)
	it, _ = q.Pop()
	assert.Equal(t, uint32(3), it.Node)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestTieBreakByNode(t *testing.T) {
	q := NewMin(8)
	q.Push(Item{Node: 9, Dist: 1.0})
	q.Push(Item{Node: 2, Dist: 1.0})
	q.Push(Item{Node: 5, Dist: 1.0})

	it, _ := q.Pop()
	assert.Equal(t, uint32(2), it.Node)
}

func TestReset(t *testing.T) {
	q := NewMin(4)
	q.Push(Item{Node: 1, Dist: 1})
	q.Reset()
	assert.Equal(t, 0, q.Len())
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestRandomizedHeapProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	q := NewMin(0)

	want := make([]float64, 200)
	for i := range want {
		want[i] = rng.Float64()
		q.Push(Item{Node: uint32(i), Dist: want[i]})
	}
	sort.Float64s(want)

	for i := 0; i < len(want); i++ {
		it, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want[i], it.Dist)
	}
}
