package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/device"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/noise"
)

func buildGraph(t *testing.T, desc *code.Description, p float64) *graph.Graph {
	t.Helper()
	m, err := noise.Uniform(p)
	require.NoError(t, err)
	g, err := graph.Build(desc, m)
	require.NoError(t, err)
	return g
}

func syndromeOf(numChecks int, triggered ...uint) *bitset.BitSet {
	s := bitset.New(uint(numChecks))
	for _, c := range triggered {
		s.Set(c)
	}
	return s
}

func newTestDecoder(t *testing.T, opts ...Option) *Decoder {
	t.Helper()
	dev := device.CPU(2)
	t.Cleanup(func() { _ = dev.Close() })
	return New(dev, opts...)
}

func TestDecodeZeroSyndromeIsIdentity(t *testing.T) {
	desc, err := code.RepetitionCode(5)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(g.NumChecks()))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, res.Flips)
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Weight)
}

func TestDecodeSingleError(t *testing.T) {
	// An error on qubit 1 of the 4-qubit chain triggers checks 0 and 1.
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 7, syndromeOf(g.NumChecks(), 0, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []uint32{1}, res.Flips)
	assert.Equal(t, uint64(7), res.CycleID)
}

func TestDecodeRepetitionRingFixture(t *testing.T) {
	// Reference fixture: 3-check ring repetition code, syndrome [1,0,1]
	// decodes to a flip of qubit 2 (the qubit shared by the two triggered
	// checks).
	desc, err := code.CyclicRepetitionCode(3)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(3, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []uint32{2}, res.Flips)
}

func TestDecodeBoundaryMatch(t *testing.T) {
	// A lone defect at check 0 of the open chain is explained by a flip of
	// the edge qubit 0.
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(g.NumChecks(), 0))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, res.Flips)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, graph.Boundary, res.Matches[0].B)
}

func TestDecodeTieGoesToBoundary(t *testing.T) {
	// Defects at checks 0 and 2 of the 4-qubit chain: pairing them costs
	// two qubits, as does sending both to the boundary. The fixed tie rule
	// prefers the boundary, so the decode flips the outer qubits.
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(g.NumChecks(), 0, 2))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3}, res.Flips)
}

func TestDecodeWeightedPath(t *testing.T) {
	// Make the outer qubits expensive so pairing the defects through the
	// middle beats two boundary matches.
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	m, err := noise.PerQubit([]float64{0.001, 0.2, 0.2, 0.001})
	require.NoError(t, err)
	g, err := graph.Build(desc, m)
	require.NoError(t, err)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(g.NumChecks(), 0, 2))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, res.Flips)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, Match{A: 0, B: 2}, res.Matches[0])
}

func TestDecodeSurfaceSingleError(t *testing.T) {
	// A flip of the central horizontal qubit h(1,1)=4 of the distance-3
	// surface code triggers the two adjacent Z-checks.
	desc, err := code.SurfaceCode(3)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.001)
	d := newTestDecoder(t)

	res, err := d.Decode(context.Background(), g, 1, syndromeOf(g.NumChecks(), 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []uint32{4}, res.Flips)
}

func TestDecodeDeterministic(t *testing.T) {
	desc, err := code.SurfaceCode(5)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	syn := syndromeOf(g.NumChecks(), 1, 4, 9, 12, 17)
	first, err := d.Decode(context.Background(), g, 1, syn)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		res, err := d.Decode(context.Background(), g, 1, syn)
		require.NoError(t, err)
		assert.Equal(t, first.Flips, res.Flips)
		assert.Equal(t, first.Matches, res.Matches)
		assert.Equal(t, first.Weight, res.Weight)
	}
}

func TestDecodeUnmatchableOddRing(t *testing.T) {
	// A single defect on a boundary-less ring has no matching partner.
	desc, err := code.CyclicRepetitionCode(3)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	_, err = d.Decode(context.Background(), g, 42, syndromeOf(3, 0))
	var ume *UnmatchableSyndromeError
	require.ErrorAs(t, err, &ume)
	assert.Equal(t, uint64(42), ume.CycleID)
	assert.Equal(t, []uint32{0}, ume.Defects)
}

func TestDecodeTimeout(t *testing.T) {
	desc, err := code.SurfaceCode(5)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Millisecond))
	defer cancel()

	res, err := d.Decode(ctx, g, 5, syndromeOf(g.NumChecks(), 2, 3))
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, res.Status)
	assert.Empty(t, res.Flips)
	assert.Equal(t, uint64(5), res.CycleID)

	// The pool must be clean for the next cycle.
	res, err = d.Decode(context.Background(), g, 6, syndromeOf(g.NumChecks(), 2, 3))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []uint32{4}, res.Flips)
}

func TestDecodeCancelReturnsError(t *testing.T) {
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)
	d := newTestDecoder(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Decode(ctx, g, 1, syndromeOf(g.NumChecks(), 0))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeGreedyFallbackMatchesExact(t *testing.T) {
	desc, err := code.CyclicRepetitionCode(3)
	require.NoError(t, err)
	g := buildGraph(t, desc, 0.01)

	exact := newTestDecoder(t)
	greedy := newTestDecoder(t, WithMaxExactDefects(1))

	syn := syndromeOf(3, 0, 2)
	a, err := exact.Decode(context.Background(), g, 1, syn)
	require.NoError(t, err)
	b, err := greedy.Decode(context.Background(), g, 1, syn)
	require.NoError(t, err)

	assert.Equal(t, a.Flips, b.Flips)
	assert.Equal(t, a.Weight, b.Weight)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "timeout", StatusTimeout.String())
}
