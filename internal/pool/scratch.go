// Package pool provides pooled scratch buffers for decode operations.
//
// Each in-flight shortest-path task owns exactly one Scratch; nothing in a
// Scratch is shared. A task that keeps running past an abandoned deadline
// therefore writes only into its own buffers, and the buffers return to the
// pool only after the task finishes, so a timed-out decode can never leak
// state into the next cycle.
package pool

import (
	"math"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/qecflow/rtdec/internal/queue"
)

const (
	// DefaultMaxChecks sizes fresh buffers so typical codes need no regrowth.
	DefaultMaxChecks = 4096

	// DefaultQueueCapacity is the initial capacity of the search heap.
	DefaultQueueCapacity = 256
)

// Scratch holds the per-task buffers of a single Dijkstra search.
type Scratch struct {
	Dist    []float64      // per-check tentative distance
	Pred    []int32        // per-check predecessor edge id, -1 if none
	Settled *bitset.BitSet // checks with final distance
	PQ      *queue.Min
}

var scratchPool = sync.Pool{
	New: func() any {
		return &Scratch{
			Dist:    make([]float64, DefaultMaxChecks),
			Pred:    make([]int32, DefaultMaxChecks),
			Settled: bitset.New(DefaultMaxChecks),
			PQ:      queue.NewMin(DefaultQueueCapacity),
		}
	},
}

// Get returns a Scratch sized for numChecks, reset and ready to search.
func Get(numChecks int) *Scratch {
	s := scratchPool.Get().(*Scratch)
	s.ensure(numChecks)
	s.reset(numChecks)
	return s
}

// Put returns a Scratch to the pool. The caller must not touch it afterwards.
func Put(s *Scratch) {
	scratchPool.Put(s)
}

// ScratchBytes reports the approximate heap footprint of one Scratch sized
// for numChecks. Sessions use it to reserve scratch memory before a decode.
func ScratchBytes(numChecks int) int64 {
	n := int64(numChecks)
	return n*12 + n/8 + DefaultQueueCapacity*16
}

func (s *Scratch) ensure(numChecks int) {
	if cap(s.Dist) < numChecks {
		s.Dist = make([]float64, numChecks)
		s.Pred = make([]int32, numChecks)
		s.Settled = bitset.New(uint(numChecks))
	}
	s.Dist = s.Dist[:numChecks]
	s.Pred = s.Pred[:numChecks]
}

func (s *Scratch) reset(numChecks int) {
	for i := 0; i < numChecks; i++ {
		s.Dist[i] = math.Inf(1)
		s.Pred[i] = -1
	}
	s.Settled.ClearAll()
	s.PQ.Reset()
}
