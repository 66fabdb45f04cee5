package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/noise"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(42).SampleErrors(100, 0.1)
	b := NewRNG(42).SampleErrors(100, 0.1)
	assert.Equal(t, a, b)

	rng := NewRNG(42)
	first := rng.SampleErrors(100, 0.1)
	rng.Reset()
	assert.Equal(t, first, rng.SampleErrors(100, 0.1))
}

func TestSyndrome(t *testing.T) {
	desc, err := code.RepetitionCode(5)
	require.NoError(t, err)

	// Qubit 2 sits in checks 1 and 2.
	syndrome := Syndrome(desc, []bool{false, false, true, false, false})
	assert.Equal(t, []bool{false, true, true, false}, syndrome)

	// Adjacent flips share check 2, which cancels.
	syndrome = Syndrome(desc, []bool{false, false, true, true, false})
	assert.Equal(t, []bool{false, true, false, true}, syndrome)
}

func TestSyndromeBitset(t *testing.T) {
	desc, err := code.RepetitionCode(5)
	require.NoError(t, err)

	bits := SyndromeBitset(desc, []bool{false, false, true, false, false})
	assert.True(t, bits.Test(1))
	assert.True(t, bits.Test(2))
	assert.Equal(t, uint(2), bits.Count())
}

func TestResolves(t *testing.T) {
	desc, err := code.RepetitionCode(5)
	require.NoError(t, err)

	flips := []bool{false, true, false, false, false}
	syndrome := Syndrome(desc, flips)
	assert.True(t, Resolves(desc, syndrome, flips))
	assert.False(t, Resolves(desc, syndrome, []bool{true, false, false, false, false}))
}

func TestExactMinWeight(t *testing.T) {
	desc, err := code.RepetitionCode(4)
	require.NoError(t, err)
	model, err := noise.Uniform(0.01)
	require.NoError(t, err)
	g, err := graph.Build(desc, model)
	require.NoError(t, err)

	// A single flip resolves its own syndrome at one edge's weight.
	flips := []bool{false, true, false, false}
	weight, ok := ExactMinWeight(g, Syndrome(desc, flips))
	require.True(t, ok)
	assert.InDelta(t, model.Weight(1), weight, 1e-9)

	// Empty syndrome costs nothing.
	weight, ok = ExactMinWeight(g, make([]bool, desc.NumChecks()))
	require.True(t, ok)
	assert.Zero(t, weight)
}
