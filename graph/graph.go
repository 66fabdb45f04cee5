// Package graph builds the matching graph a syndrome is decoded against.
//
// Nodes are the code's stabilizer checks plus one virtual boundary node.
// Every error mechanism (physical qubit) that triggers one or two checks
// becomes an edge: a qubit in exactly two checks connects them, a qubit in
// exactly one check connects it to the boundary. Edge weights are the noise
// model's log-likelihood ratios, so a minimum-weight matching over defects
// is a maximum-likelihood error estimate.
//
// Building is deterministic and pure: the same (code, model) pair always
// yields the same graph, byte for byte. Graphs are immutable after Build and
// shared read-only across concurrent decodes without locking. Because a
// build can cost more than a realtime decode slot, callers should go through
// Cache, which memoizes by (code fingerprint, model fingerprint) and
// collapses concurrent misses into a single build.
package graph

import (
	"errors"
	"fmt"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/noise"
)

// Boundary is the virtual node id used for edges that connect a check to
// the lattice boundary.
const Boundary = ^uint32(0)

// ErrModelShape is returned when a per-qubit noise model does not cover
// every qubit of the code.
var ErrModelShape = errors.New("noise model does not cover all qubits")

// Edge is a single error mechanism in the matching graph.
type Edge struct {
	U, V   uint32 // check ids; V == Boundary for a boundary edge
	Qubit  uint32 // physical qubit flipped by this mechanism
	Weight float64
}

// Graph is an immutable decoding graph.
type Graph struct {
	codeFP      uint64
	modelFP     uint64
	numChecks   int
	numQubits   int
	edges       []Edge
	adj         [][]int32 // per check, ascending edge indices
	hasBoundary bool
}

// Build constructs the matching graph for desc under model.
//
// Fails with *code.InvalidCodeError if a qubit appears in more than two
// checks (a hypergraph mechanism a matching decoder cannot handle) or if a
// check ends up isolated with no possible matching partner. Fails with
// ErrModelShape if a per-qubit model is shorter than the code.
func Build(desc *code.Description, model *noise.Model) (*Graph, error) {
	if n := model.NumQubits(); n != 0 && n < desc.NumQubits() {
		return nil, fmt.Errorf("%w: model covers %d of %d qubits", ErrModelShape, n, desc.NumQubits())
	}

	numChecks := desc.NumChecks()
	numQubits := desc.NumQubits()

	// Incidence: which checks touch each qubit. Check iteration order is
	// fixed, so incidence lists are ascending.
	incident := make([][]uint32, numQubits)
	for i := 0; i < numChecks; i++ {
		for _, q := range desc.Check(i) {
			incident[q] = append(incident[q], uint32(i))
		}
	}

	g := &Graph{
		codeFP:    desc.Fingerprint(),
		modelFP:   model.Fingerprint(),
		numChecks: numChecks,
		numQubits: numQubits,
		adj:       make([][]int32, numChecks),
	}

	// Edges are emitted in qubit order, which fixes edge ids and therefore
	// every downstream traversal order.
	for q := 0; q < numQubits; q++ {
		chks := incident[q]
		switch len(chks) {
		case 0:
			// Undetectable mechanism: no check sees it, nothing to match.
			continue
		case 1:
			g.addEdge(Edge{U: chks[0], V: Boundary, Qubit: uint32(q), Weight: model.Weight(q)})
			g.hasBoundary = true
		case 2:
			g.addEdge(Edge{U: chks[0], V: chks[1], Qubit: uint32(q), Weight: model.Weight(q)})
		default:
			return nil, &code.InvalidCodeError{
				Reason: fmt.Sprintf("qubit %d appears in %d checks; matching requires at most 2", q, len(chks)),
			}
		}
	}

	if err := g.validateMatchable(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromEdges reassembles a graph from its stored parts, rebuilding adjacency
// and revalidating. Used when loading a compiled artifact; edge order must
// be the build order or decode results will differ.
func FromEdges(codeFP, modelFP uint64, numChecks, numQubits int, edges []Edge) (*Graph, error) {
	g := &Graph{
		codeFP:    codeFP,
		modelFP:   modelFP,
		numChecks: numChecks,
		numQubits: numQubits,
		adj:       make([][]int32, numChecks),
	}
	for _, e := range edges {
		if e.U >= uint32(numChecks) || (e.V != Boundary && e.V >= uint32(numChecks)) {
			return nil, &code.InvalidCodeError{
				Reason: fmt.Sprintf("edge (%d,%d) references a check outside the code", e.U, e.V),
			}
		}
		g.addEdge(e)
		if e.V == Boundary {
			g.hasBoundary = true
		}
	}
	if err := g.validateMatchable(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) addEdge(e Edge) {
	idx := int32(len(g.edges))
	g.edges = append(g.edges, e)
	g.adj[e.U] = append(g.adj[e.U], idx)
	if e.V != Boundary {
		g.adj[e.V] = append(g.adj[e.V], idx)
	}
}

// validateMatchable rejects checks that can never be matched: a check with
// no edges at all, or a check alone in a connected component that has no
// boundary edge (its defect could never be paired).
func (g *Graph) validateMatchable() error {
	parent := make([]uint32, g.numChecks)
	for i := range parent {
		parent[i] = uint32(i)
	}
	var find func(x uint32) uint32
	find = func(x uint32) uint32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	compSize := make([]int, g.numChecks)
	compBoundary := make([]bool, g.numChecks)
	for i := range compSize {
		compSize[i] = 1
	}

	for i := 0; i < g.numChecks; i++ {
		if len(g.adj[i]) == 0 {
			return &code.InvalidCodeError{Reason: fmt.Sprintf("check %d has no error mechanism", i)}
		}
	}

	for _, e := range g.edges {
		if e.V == Boundary {
			compBoundary[find(e.U)] = true
			continue
		}
		ru, rv := find(e.U), find(e.V)
		if ru == rv {
			continue
		}
		if compSize[ru] < compSize[rv] {
			ru, rv = rv, ru
		}
		parent[rv] = ru
		compSize[ru] += compSize[rv]
		compBoundary[ru] = compBoundary[ru] || compBoundary[rv]
	}

	for i := 0; i < g.numChecks; i++ {
		r := find(uint32(i))
		if compSize[r] == 1 && !compBoundary[r] {
			return &code.InvalidCodeError{Reason: fmt.Sprintf("check %d is isolated with no matching partner", i)}
		}
	}
	return nil
}

// NumChecks returns the number of detector nodes (excluding the boundary).
func (g *Graph) NumChecks() int { return g.numChecks }

// NumQubits returns the qubit count of the underlying code.
func (g *Graph) NumQubits() int { return g.numQubits }

// NumEdges returns the number of error mechanisms in the graph.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Edge returns mechanism i. The pointer aliases immutable storage.
func (g *Graph) Edge(i int32) *Edge { return &g.edges[i] }

// Adj returns the ascending edge ids incident to check u.
// The returned slice is shared and must not be modified.
func (g *Graph) Adj(u uint32) []int32 { return g.adj[u] }

// HasBoundary reports whether any mechanism connects to the boundary.
func (g *Graph) HasBoundary() bool { return g.hasBoundary }

// CodeFingerprint returns the fingerprint of the code the graph was built from.
func (g *Graph) CodeFingerprint() uint64 { return g.codeFP }

// ModelFingerprint returns the fingerprint of the noise model used.
func (g *Graph) ModelFingerprint() uint64 { return g.modelFP }
