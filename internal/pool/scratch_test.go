package pool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec/internal/queue"
)

func TestGetIsReset(t *testing.T) {
	s := Get(16)
	require.Len(t, s.Dist, 16)
	require.Len(t, s.Pred, 16)

	for i := range s.Dist {
		assert.True(t, math.IsInf(s.Dist[i], 1))
		assert.Equal(t, int32(-1), s.Pred[i])
	}
	assert.Equal(t, uint(0), s.Settled.Count())
	assert.Equal(t, 0, s.PQ.Len())
}

func TestReuseClearsResidualState(t *testing.T) {
	s := Get(8)
	s.Dist[3] = 1.5
	s.Pred[3] = 7
	s.Settled.Set(3)
	s.PQ.Push(queue.Item{Node: 3, Dist: 1.5})
	Put(s)

	// Whatever comes out of the pool next must look untouched, even if it
	// is the same object an abandoned search wrote into.
	s2 := Get(8)
	assert.True(t, math.IsInf(s2.Dist[3], 1))
	assert.Equal(t, int32(-1), s2.Pred[3])
	assert.False(t, s2.Settled.Test(3))
	assert.Equal(t, 0, s2.PQ.Len())
	Put(s2)
}

func TestGrowth(t *testing.T) {
	s := Get(DefaultMaxChecks * 2)
	assert.Len(t, s.Dist, DefaultMaxChecks*2)
	assert.True(t, math.IsInf(s.Dist[DefaultMaxChecks*2-1], 1))
	Put(s)
}
