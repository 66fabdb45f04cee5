// Package frame turns raw decode results into Pauli-frame updates.
//
// Translate is the dispatcher of the decode pipeline: it verifies that the
// matched error pattern reproduces the submitted syndrome exactly and maps
// it to per-cycle frame deltas (physical flips plus logical-operator flip
// parities). A result that leaves residual syndrome is reported as an
// UnresolvedSyndromeError and never silently patched.
//
// Frame accumulates deltas across cycles: it is the software-tracked record
// of corrections applied virtually instead of as physical gates.
package frame

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/kernel"
)

// ErrNotDecoded is returned when a non-OK decode result is translated.
var ErrNotDecoded = fmt.Errorf("result carries no correction")

// UnresolvedSyndromeError reports a decode result that does not fully
// explain the submitted syndrome. The residual checks are those whose
// parity still differs after applying the correction.
type UnresolvedSyndromeError struct {
	CycleID  uint64
	Residual []uint32
}

func (e *UnresolvedSyndromeError) Error() string {
	return fmt.Sprintf("cycle %d: correction leaves %d unexplained checks %v",
		e.CycleID, len(e.Residual), e.Residual)
}

// Update is the per-cycle Pauli-frame delta produced by one decode.
type Update struct {
	CycleID      uint64
	Flips        *roaring.Bitmap // physical qubits flipped by the correction
	LogicalFlips []bool          // flip parity per logical operator
}

// Translate verifies res against the submitted syndrome and maps it to a
// frame update. Pure: neither input is modified.
//
// Fails with ErrNotDecoded if res did not complete (timeout), and with
// *UnresolvedSyndromeError if the correction does not reproduce syndrome.
func Translate(res *kernel.Result, syndrome *bitset.BitSet, desc *code.Description) (*Update, error) {
	if res.Status != kernel.StatusOK {
		return nil, fmt.Errorf("cycle %d: %w", res.CycleID, ErrNotDecoded)
	}

	flips := roaring.New()
	for _, q := range res.Flips {
		flips.Add(q)
	}

	var residual []uint32
	for i := 0; i < desc.NumChecks(); i++ {
		if desc.CheckParity(i, flips) != syndrome.Test(uint(i)) {
			residual = append(residual, uint32(i))
		}
	}
	if len(residual) > 0 {
		return nil, &UnresolvedSyndromeError{CycleID: res.CycleID, Residual: residual}
	}

	logicals := make([]bool, desc.NumLogicals())
	for i := range logicals {
		logicals[i] = roaring.And(flips, desc.LogicalSupport(i)).GetCardinality()%2 == 1
	}

	return &Update{CycleID: res.CycleID, Flips: flips, LogicalFlips: logicals}, nil
}

// Frame is the accumulated Pauli frame of a session. Safe for concurrent
// use.
type Frame struct {
	mu       sync.Mutex
	flips    *roaring.Bitmap
	logicals []bool
	cycles   uint64
}

// NewFrame returns an empty frame for desc.
func NewFrame(desc *code.Description) *Frame {
	return &Frame{
		flips:    roaring.New(),
		logicals: make([]bool, desc.NumLogicals()),
	}
}

// Apply folds a per-cycle update into the frame (XOR semantics).
func (f *Frame) Apply(u *Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flips.Xor(u.Flips)
	for i, b := range u.LogicalFlips {
		if i < len(f.logicals) && b {
			f.logicals[i] = !f.logicals[i]
		}
	}
	f.cycles++
}

// Flips returns a copy of the accumulated physical flips.
func (f *Frame) Flips() *roaring.Bitmap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flips.Clone()
}

// LogicalFlip reports the accumulated flip parity of logical operator i.
func (f *Frame) LogicalFlip(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.logicals) {
		return false
	}
	return f.logicals[i]
}

// Cycles returns the number of updates applied since the last reset.
func (f *Frame) Cycles() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycles
}

// Reset clears the frame.
func (f *Frame) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flips.Clear()
	for i := range f.logicals {
		f.logicals[i] = false
	}
	f.cycles = 0
}
