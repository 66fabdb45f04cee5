// Package kernel implements the decode step: given a decoding graph and a
// syndrome, it computes the minimum-weight set of error mechanisms that
// explains the syndrome.
//
// The algorithm is minimum-weight perfect matching over the defect set:
//
//  1. Extract defects (triggered checks) from the syndrome.
//  2. Run one shortest-path search per defect, in parallel on the device,
//     yielding defect-to-defect and defect-to-boundary distances plus
//     predecessor chains.
//  3. Split defects into independent clusters: two defects belong together
//     only if pairing them can beat sending both to the boundary. Clusters
//     are matched concurrently.
//  4. Match each cluster exactly (subset DP, clusters up to MaxExactDefects)
//     or greedily (larger clusters), then XOR the mechanism qubits along the
//     matched paths into the correction.
//
// Decoding is fully deterministic for a fixed (graph, syndrome): edge ids
// are fixed at build time, the search heap breaks distance ties by node id,
// and matching prefers the boundary and then the lowest defect index on
// equal weight. Results are therefore reproducible across runs and devices.
//
// Deadline handling follows an explicit three-valued contract: a decode that
// cannot finish in time yields a Result with StatusTimeout, never a partial
// correction. In-flight path searches are allowed to drain (their writes
// stay in per-task scratch), pending ones are skipped.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/qecflow/rtdec/device"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/internal/pool"
	"github.com/qecflow/rtdec/internal/queue"
)

// Status reports the outcome class of a decode.
type Status uint8

const (
	// StatusOK means a full correction was produced.
	StatusOK Status = iota
	// StatusTimeout means the deadline expired; no correction applies to
	// this cycle. Callers must not treat timeout as an identity correction.
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Match pairs defect check A with check B, or with the boundary.
type Match struct {
	A uint32
	B uint32 // graph.Boundary when A was matched to the boundary
}

// Result is the outcome of one decode.
type Result struct {
	Status  Status
	CycleID uint64
	Flips   []uint32 // sorted qubit ids whose flip explains the syndrome
	Matches []Match
	Weight  float64 // total log-likelihood weight of the matching
	Elapsed time.Duration
}

// UnmatchableSyndromeError reports a defect set that admits no perfect
// matching: an odd number of defects in a region with no boundary.
type UnmatchableSyndromeError struct {
	CycleID uint64
	Defects []uint32
}

func (e *UnmatchableSyndromeError) Error() string {
	return fmt.Sprintf("cycle %d: %d defects %v cannot be matched (odd parity, no boundary)",
		e.CycleID, len(e.Defects), e.Defects)
}

// DefaultMaxExactDefects bounds the subset-DP cluster size. Beyond it the
// kernel falls back to deterministic greedy matching.
const DefaultMaxExactDefects = 16

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxExactDefects sets the largest cluster matched by exact subset DP.
func WithMaxExactDefects(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxExact = n
		}
	}
}

// Decoder runs decodes on a device. Safe for concurrent use; all mutable
// per-decode state lives in pooled scratch.
type Decoder struct {
	dev      device.Device
	maxExact int
}

// New returns a Decoder bound to dev.
func New(dev device.Device, opts ...Option) *Decoder {
	d := &Decoder{dev: dev, maxExact: DefaultMaxExactDefects}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode computes the correction for syndrome against g.
//
// The context carries the realtime deadline. On deadline expiry the returned
// Result has StatusTimeout and no flips; on cancellation the context error
// is returned. An unmatchable defect set yields *UnmatchableSyndromeError.
func (d *Decoder) Decode(ctx context.Context, g *graph.Graph, cycleID uint64, syndrome *bitset.BitSet) (*Result, error) {
	start := time.Now()

	defects := extractDefects(g, syndrome)
	if len(defects) == 0 {
		// No triggered checks: identity correction, zero work.
		return &Result{Status: StatusOK, CycleID: cycleID, Elapsed: time.Since(start)}, nil
	}

	rows, scratches, err := d.searchPhase(ctx, g, defects)
	defer releaseScratches(scratches)
	if err != nil {
		return timeoutOrError(err, cycleID, start)
	}

	clusters := clusterDefects(g, defects, rows)

	type clusterOut struct {
		matches []Match
		qubits  []uint32 // path qubits with multiplicity
		weight  float64
	}
	outs := make([]clusterOut, len(clusters))

	err = d.dev.RunBatch(ctx, len(clusters), func(ci int) error {
		m, q, w, err := d.matchCluster(g, defects, rows, scratches, clusters[ci], cycleID)
		if err != nil {
			return err
		}
		outs[ci] = clusterOut{matches: m, qubits: q, weight: w}
		return nil
	})
	if err != nil {
		var ume *UnmatchableSyndromeError
		if errors.As(err, &ume) {
			return nil, err
		}
		return timeoutOrError(err, cycleID, start)
	}

	res := &Result{Status: StatusOK, CycleID: cycleID}
	parity := bitset.New(uint(g.NumQubits()))
	for _, out := range outs {
		res.Matches = append(res.Matches, out.matches...)
		res.Weight += out.weight
		for _, q := range out.qubits {
			parity.Flip(uint(q))
		}
	}
	for q, ok := parity.NextSet(0); ok; q, ok = parity.NextSet(q + 1) {
		res.Flips = append(res.Flips, uint32(q))
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func timeoutOrError(err error, cycleID uint64, start time.Time) (*Result, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Result{Status: StatusTimeout, CycleID: cycleID, Elapsed: time.Since(start)}, nil
	}
	return nil, err
}

func extractDefects(g *graph.Graph, syndrome *bitset.BitSet) []uint32 {
	var defects []uint32
	limit := uint(g.NumChecks())
	for i, ok := syndrome.NextSet(0); ok && i < limit; i, ok = syndrome.NextSet(i + 1) {
		defects = append(defects, uint32(i))
	}
	return defects
}

// defectRow is the distance row of one defect after its search.
type defectRow struct {
	dist   []float64 // to each defect, by defect index
	bDist  float64   // to the boundary
	bFrom  uint32    // check where the boundary was reached
	bQubit uint32    // mechanism qubit of the boundary edge used
}

func (d *Decoder) searchPhase(ctx context.Context, g *graph.Graph, defects []uint32) ([]defectRow, []*pool.Scratch, error) {
	n := len(defects)
	rows := make([]defectRow, n)
	scratches := make([]*pool.Scratch, n)

	// Check id -> defect index for O(1) row fills.
	defIdx := make([]int32, g.NumChecks())
	for i := range defIdx {
		defIdx[i] = -1
	}
	for i, c := range defects {
		defIdx[c] = int32(i)
	}

	err := d.dev.RunBatch(ctx, n, func(i int) error {
		s := pool.Get(g.NumChecks())
		scratches[i] = s
		rows[i] = dijkstra(g, defects[i], s, defects)
		return nil
	})
	return rows, scratches, err
}

func releaseScratches(scratches []*pool.Scratch) {
	for _, s := range scratches {
		if s != nil {
			pool.Put(s)
		}
	}
}

// dijkstra settles every check reachable from source and records, per other
// defect, the shortest distance. Predecessor edges stay in s for later path
// reconstruction.
func dijkstra(g *graph.Graph, source uint32, s *pool.Scratch, defects []uint32) defectRow {
	row := defectRow{
		dist:  make([]float64, len(defects)),
		bDist: math.Inf(1),
	}

	s.Dist[source] = 0
	s.PQ.Push(queue.Item{Node: source, Dist: 0})

	for s.PQ.Len() > 0 {
		it, _ := s.PQ.Pop()
		u := it.Node
		if s.Settled.Test(uint(u)) {
			continue
		}
		s.Settled.Set(uint(u))

		for _, ei := range g.Adj(u) {
			e := g.Edge(ei)
			if e.V == graph.Boundary {
				if cand := s.Dist[u] + e.Weight; cand < row.bDist {
					row.bDist = cand
					row.bFrom = u
					row.bQubit = e.Qubit
				}
				continue
			}
			v := e.V
			if v == u {
				v = e.U
			}
			if s.Settled.Test(uint(v)) {
				continue
			}
			if cand := s.Dist[u] + e.Weight; cand < s.Dist[v] {
				s.Dist[v] = cand
				s.Pred[v] = ei
				s.PQ.Push(queue.Item{Node: v, Dist: cand})
			}
		}
	}

	for j, c := range defects {
		row.dist[j] = s.Dist[c]
	}
	return row
}

// clusterDefects unions defects i and j only when pairing them can beat
// sending both to the boundary. Ties go to the boundary, which both
// preserves optimality and keeps cluster shapes deterministic.
func clusterDefects(g *graph.Graph, defects []uint32, rows []defectRow) [][]int {
	n := len(defects)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dij := rows[i].dist[j]
			if math.IsInf(dij, 1) {
				continue
			}
			if dij < rows[i].bDist+rows[j].bDist {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := find(i)
		groups[r] = append(groups[r], i)
	}

	clusters := make([][]int, 0, len(groups))
	for _, members := range groups {
		sort.Ints(members)
		clusters = append(clusters, members)
	}
	// Order clusters by their lowest defect so output order is stable.
	sort.Slice(clusters, func(a, b int) bool { return clusters[a][0] < clusters[b][0] })
	return clusters
}

// matchCluster matches one defect cluster and reconstructs the path qubits.
func (d *Decoder) matchCluster(g *graph.Graph, defects []uint32, rows []defectRow, scratches []*pool.Scratch, cluster []int, cycleID uint64) ([]Match, []uint32, float64, error) {
	var pairs [][2]int // defect-index pairs; [i, -1] means boundary
	var weight float64
	var err error

	if len(cluster) <= d.maxExact {
		pairs, weight, err = matchExact(rows, cluster)
	} else {
		pairs, weight, err = matchGreedy(rows, cluster)
	}
	if err != nil || math.IsInf(weight, 1) {
		ids := make([]uint32, len(cluster))
		for i, di := range cluster {
			ids[i] = defects[di]
		}
		return nil, nil, 0, &UnmatchableSyndromeError{CycleID: cycleID, Defects: ids}
	}

	var matches []Match
	var qubits []uint32
	for _, p := range pairs {
		i := p[0]
		if p[1] < 0 {
			matches = append(matches, Match{A: defects[i], B: graph.Boundary})
			qubits = append(qubits, rows[i].bQubit)
			qubits = appendPathQubits(g, scratches[i], defects[i], rows[i].bFrom, qubits)
			continue
		}
		j := p[1]
		matches = append(matches, Match{A: defects[i], B: defects[j]})
		qubits = appendPathQubits(g, scratches[i], defects[i], defects[j], qubits)
	}
	return matches, qubits, weight, nil
}

// appendPathQubits walks predecessor edges from target back to source in
// the search rooted at source, appending each mechanism qubit crossed.
func appendPathQubits(g *graph.Graph, s *pool.Scratch, source, target uint32, qubits []uint32) []uint32 {
	u := target
	for u != source {
		ei := s.Pred[u]
		if ei < 0 {
			break // target equals source or path is trivial
		}
		e := g.Edge(ei)
		qubits = append(qubits, e.Qubit)
		if e.U == u {
			u = e.V
		} else {
			u = e.U
		}
	}
	return qubits
}

var errNoMatching = errors.New("no perfect matching")

// matchExact finds the minimum-weight perfect matching over the cluster by
// DP over defect subsets. The boundary acts as an always-available partner.
// Ties prefer the boundary, then the lowest partner index.
func matchExact(rows []defectRow, cluster []int) ([][2]int, float64, error) {
	k := len(cluster)
	size := 1 << k
	cost := make([]float64, size)
	choice := make([]int8, size) // partner slot for the lowest set bit; -1 = boundary

	for mask := 1; mask < size; mask++ {
		cost[mask] = math.Inf(1)
		choice[mask] = -2

		low := lowestBit(mask)
		i := cluster[low]

		// Boundary first: wins ties deterministically.
		if b := rows[i].bDist; !math.IsInf(b, 1) {
			if c := b + cost[mask&^(1<<low)]; c < cost[mask] {
				cost[mask] = c
				choice[mask] = -1
			}
		}
		for s := low + 1; s < k; s++ {
			if mask&(1<<s) == 0 {
				continue
			}
			j := cluster[s]
			dij := rows[i].dist[j]
			if math.IsInf(dij, 1) {
				continue
			}
			rest := mask &^ (1 << low) &^ (1 << s)
			if c := dij + cost[rest]; c < cost[mask] {
				cost[mask] = c
				choice[mask] = int8(s)
			}
		}
	}

	full := size - 1
	if math.IsInf(cost[full], 1) {
		return nil, 0, errNoMatching
	}

	var pairs [][2]int
	for mask := full; mask != 0; {
		low := lowestBit(mask)
		switch ch := choice[mask]; {
		case ch == -1:
			pairs = append(pairs, [2]int{cluster[low], -1})
			mask &^= 1 << low
		case ch >= 0:
			pairs = append(pairs, [2]int{cluster[low], cluster[ch]})
			mask &^= (1 << low) | (1 << int(ch))
		default:
			return nil, 0, errNoMatching
		}
	}
	return pairs, cost[full], nil
}

func lowestBit(mask int) int {
	for b := 0; ; b++ {
		if mask&(1<<b) != 0 {
			return b
		}
	}
}

// matchGreedy is the fallback for clusters too large for exact DP: it
// repeatedly takes the globally cheapest remaining option. Deterministic:
// candidates are scanned in ascending index order and only strict
// improvements replace the current best, so earlier (boundary, then lower
// index) options win ties.
func matchGreedy(rows []defectRow, cluster []int) ([][2]int, float64, error) {
	k := len(cluster)
	alive := make([]bool, k)
	for i := range alive {
		alive[i] = true
	}

	var pairs [][2]int
	var total float64
	remaining := k

	for remaining > 0 {
		best := math.Inf(1)
		bi, bj := -1, -1 // bj == -1 means boundary

		for a := 0; a < k; a++ {
			if !alive[a] {
				continue
			}
			if b := rows[cluster[a]].bDist; b < best {
				best = b
				bi, bj = a, -1
			}
			for b := a + 1; b < k; b++ {
				if !alive[b] {
					continue
				}
				if d := rows[cluster[a]].dist[cluster[b]]; d < best {
					best = d
					bi, bj = a, b
				}
			}
		}

		if bi < 0 {
			return nil, 0, errNoMatching
		}
		total += best
		alive[bi] = false
		remaining--
		if bj >= 0 {
			alive[bj] = false
			remaining--
			pairs = append(pairs, [2]int{cluster[bi], cluster[bj]})
		} else {
			pairs = append(pairs, [2]int{cluster[bi], -1})
		}
	}
	return pairs, total, nil
}
