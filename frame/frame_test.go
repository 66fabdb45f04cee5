package frame

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/kernel"
)

func repetition(t *testing.T, n int) *code.Description {
	t.Helper()
	d, err := code.RepetitionCode(n)
	require.NoError(t, err)
	return d
}

func syndromeBits(n int, set ...uint) *bitset.BitSet {
	s := bitset.New(uint(n))
	for _, i := range set {
		s.Set(i)
	}
	return s
}

func TestTranslateValidCorrection(t *testing.T) {
	desc := repetition(t, 4)
	// Error on qubit 1 triggers checks 0 and 1; the decode found it.
	res := &kernel.Result{Status: kernel.StatusOK, CycleID: 3, Flips: []uint32{1}}

	u, err := Translate(res, syndromeBits(3, 0, 1), desc)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.CycleID)
	assert.True(t, u.Flips.Contains(1))
	assert.Equal(t, uint64(1), u.Flips.GetCardinality())
	// Logical support is {0}; qubit 1 does not flip the logical.
	assert.Equal(t, []bool{false}, u.LogicalFlips)
}

func TestTranslateLogicalFlip(t *testing.T) {
	desc := repetition(t, 4)
	// A flip of qubit 0 explains a lone defect at check 0 and crosses the
	// logical support.
	res := &kernel.Result{Status: kernel.StatusOK, CycleID: 1, Flips: []uint32{0}}

	u, err := Translate(res, syndromeBits(3, 0), desc)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, u.LogicalFlips)
}

func TestTranslateResidualSyndrome(t *testing.T) {
	desc := repetition(t, 4)
	// Empty correction cannot explain a triggered check.
	res := &kernel.Result{Status: kernel.StatusOK, CycleID: 9}

	_, err := Translate(res, syndromeBits(3, 1), desc)
	var ue *UnresolvedSyndromeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, uint64(9), ue.CycleID)
	assert.Equal(t, []uint32{1}, ue.Residual)
}

func TestTranslateRejectsTimeout(t *testing.T) {
	desc := repetition(t, 4)
	res := &kernel.Result{Status: kernel.StatusTimeout, CycleID: 2}

	_, err := Translate(res, syndromeBits(3), desc)
	require.ErrorIs(t, err, ErrNotDecoded)
}

func TestFrameAccumulates(t *testing.T) {
	desc := repetition(t, 4)
	f := NewFrame(desc)

	f.Apply(&Update{CycleID: 1, Flips: roaring.BitmapOf(0, 1), LogicalFlips: []bool{true}})
	assert.True(t, f.LogicalFlip(0))
	assert.True(t, f.Flips().Contains(0))
	assert.Equal(t, uint64(1), f.Cycles())

	// XOR: flipping qubit 0 again cancels it, and the logical parity
	// toggles back.
	f.Apply(&Update{CycleID: 2, Flips: roaring.BitmapOf(0), LogicalFlips: []bool{true}})
	assert.False(t, f.LogicalFlip(0))
	assert.False(t, f.Flips().Contains(0))
	assert.True(t, f.Flips().Contains(1))
}

func TestFrameReset(t *testing.T) {
	desc := repetition(t, 4)
	f := NewFrame(desc)
	f.Apply(&Update{CycleID: 1, Flips: roaring.BitmapOf(2), LogicalFlips: []bool{true}})

	f.Reset()
	assert.False(t, f.LogicalFlip(0))
	assert.Equal(t, uint64(0), f.Flips().GetCardinality())
	assert.Equal(t, uint64(0), f.Cycles())
}

func TestFrameLogicalFlipOutOfRange(t *testing.T) {
	f := NewFrame(repetition(t, 3))
	assert.False(t, f.LogicalFlip(5))
	assert.False(t, f.LogicalFlip(-1))
}
