package testutil

import (
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/graph"
)

// RNG is a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Bool returns true with probability p.
func (r *RNG) Bool(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64() < p
}

// SampleErrors flips each of n qubits independently with probability p.
func (r *RNG) SampleErrors(n int, p float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	flips := make([]bool, n)
	for i := range flips {
		flips[i] = r.rand.Float64() < p
	}
	return flips
}

// Syndrome computes the check outcomes produced by a set of qubit flips.
func Syndrome(desc *code.Description, flips []bool) []bool {
	syndrome := make([]bool, desc.NumChecks())
	for i := range syndrome {
		parity := false
		for _, q := range desc.Check(i) {
			if flips[q] {
				parity = !parity
			}
		}
		syndrome[i] = parity
	}
	return syndrome
}

// SyndromeBitset is Syndrome returning the kernel's bitset form.
func SyndromeBitset(desc *code.Description, flips []bool) *bitset.BitSet {
	syndrome := Syndrome(desc, flips)
	bits := bitset.New(uint(len(syndrome)))
	for i, b := range syndrome {
		if b {
			bits.SetTo(uint(i), b)
		}
	}
	return bits
}

// Resolves reports whether the qubit flips reproduce the syndrome exactly.
func Resolves(desc *code.Description, syndrome []bool, flips []bool) bool {
	got := Syndrome(desc, flips)
	for i := range got {
		if got[i] != syndrome[i] {
			return false
		}
	}
	return true
}

// ExactMinWeight finds the minimum total weight over all edge subsets that
// resolve the syndrome, by exhaustive search. Exponential in the edge
// count, keep graphs small. The second return is false when no subset
// resolves the syndrome.
func ExactMinWeight(g *graph.Graph, syndrome []bool) (float64, bool) {
	numEdges := g.NumEdges()
	if numEdges > 24 {
		panic("testutil: graph too large for exhaustive search")
	}

	best := 0.0
	found := false
	parity := make([]bool, g.NumChecks())

	for mask := 0; mask < 1<<numEdges; mask++ {
		for i := range parity {
			parity[i] = false
		}
		weight := 0.0
		for i := 0; i < numEdges; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			e := g.Edge(int32(i))
			weight += e.Weight
			parity[e.U] = !parity[e.U]
			if e.V != graph.Boundary {
				parity[e.V] = !parity[e.V]
			}
		}

		ok := true
		for i, want := range syndrome {
			if parity[i] != want {
				ok = false
				break
			}
		}
		if ok && (!found || weight < best) {
			best = weight
			found = true
		}
	}
	return best, found
}
