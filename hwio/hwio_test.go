package hwio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec"
	"github.com/qecflow/rtdec/code"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()

	desc, err := code.CyclicRepetitionCode(3)
	require.NoError(t, err)

	s, err := rtdec.Matching(desc).Uniform(0.01).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	r := NewRegistry()
	r.Register(7, s)
	return r
}

func TestRegistry_EnqueueAndGet(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	// Checks 0 and 2 fire: qubit 2 flipped.
	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0b101, 42))

	word, err := r.GetCorrectionsUI64(7, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b100), word)
}

func TestRegistry_CorrectionsAccumulate(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0b101, 0))
	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0b101, 0))

	// Two identical flips cancel under XOR accumulation.
	word, err := r.GetCorrectionsUI64(7, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), word)
}

func TestRegistry_GetWithReset(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0b101, 0))

	word, err := r.GetCorrectionsUI64(7, 3, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b100), word)

	word, err = r.GetCorrectionsUI64(7, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), word)
}

func TestRegistry_Reset(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0b101, 0))
	require.NoError(t, r.ResetDecoderUI64(7))

	word, err := r.GetCorrectionsUI64(7, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), word)

	// Ordering survives a reset.
	require.NoError(t, r.EnqueueSyndromesUI64(ctx, 7, 3, 0, 0))
}

func TestRegistry_UnknownDecoder(t *testing.T) {
	r := newRegistry(t)

	err := r.EnqueueSyndromesUI64(context.Background(), 9, 3, 0, 0)
	var unknown *UnknownDecoderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint32(9), unknown.DecoderID)

	_, err = r.GetCorrectionsUI64(9, 3, false)
	assert.ErrorAs(t, err, &unknown)
	assert.ErrorAs(t, r.ResetDecoderUI64(9), &unknown)
}

func TestRegistry_WordSize(t *testing.T) {
	r := newRegistry(t)

	// A 2-bit read cannot carry 3 qubits of corrections.
	_, err := r.GetCorrectionsUI64(7, 2, false)
	var size *WordSizeError
	assert.ErrorAs(t, err, &size)

	_, err = r.GetCorrectionsUI64(7, 65, false)
	assert.ErrorAs(t, err, &size)
}

func TestRegistry_Unregister(t *testing.T) {
	r := newRegistry(t)
	r.Unregister(7)

	err := r.EnqueueSyndromesUI64(context.Background(), 7, 3, 0, 0)
	var unknown *UnknownDecoderError
	assert.ErrorAs(t, err, &unknown)
}

func TestPackBits(t *testing.T) {
	// Big-endian: the first bit is the most significant.
	word, err := PackBits([]bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, uint64(0b101), word)

	word, err = PackBits([]bool{true, false, false})
	require.NoError(t, err)
	assert.Equal(t, uint64(0b100), word)

	_, err = PackBits(make([]bool, 65))
	assert.Error(t, err)
}

func TestUnpackBits(t *testing.T) {
	bits, err := UnpackBits(0b100, 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, bits)

	_, err = UnpackBits(0, 65)
	assert.Error(t, err)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	in := []bool{true, true, false, true, false, false, true}
	word, err := PackBits(in)
	require.NoError(t, err)
	out, err := UnpackBits(word, len(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
