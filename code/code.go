package code

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrInvalidCode indicates a structurally invalid code description.
//
// The concrete failure is carried by InvalidCodeError; this sentinel exists so
// callers can test with errors.Is without matching on the message.
type InvalidCodeError struct {
	Reason string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code: %s", e.Reason)
}

// Description is an immutable parity-check structure of a QEC code.
//
// Checks are stored as sorted qubit-index slices. Logical operator supports
// are stored as roaring bitmaps over qubit indices. A Description is safe for
// concurrent use by any number of readers.
type Description struct {
	name        string
	numQubits   int
	checks      [][]uint32
	logicals    []*roaring.Bitmap
	fingerprint uint64
}

// New validates and constructs a Description.
//
// numQubits is the number of physical qubits. checks lists, per stabilizer
// check, the qubit indices it measures. logicals lists, per logical operator,
// the support used for logical-flip parity readout.
//
// New fails with *InvalidCodeError if a check or logical references a qubit
// outside [0, numQubits), if a check is empty, or if there are no checks.
func New(name string, numQubits int, checks [][]uint32, logicals [][]uint32) (*Description, error) {
	if numQubits <= 0 {
		return nil, &InvalidCodeError{Reason: fmt.Sprintf("non-positive qubit count %d", numQubits)}
	}
	if len(checks) == 0 {
		return nil, &InvalidCodeError{Reason: "no checks"}
	}

	d := &Description{
		name:      name,
		numQubits: numQubits,
		checks:    make([][]uint32, len(checks)),
		logicals:  make([]*roaring.Bitmap, len(logicals)),
	}

	for i, c := range checks {
		if len(c) == 0 {
			return nil, &InvalidCodeError{Reason: fmt.Sprintf("check %d is empty", i)}
		}
		cc := make([]uint32, len(c))
		copy(cc, c)
		sort.Slice(cc, func(a, b int) bool { return cc[a] < cc[b] })
		for j, q := range cc {
			if int(q) >= numQubits {
				return nil, &InvalidCodeError{Reason: fmt.Sprintf("check %d references qubit %d outside [0,%d)", i, q, numQubits)}
			}
			if j > 0 && cc[j-1] == q {
				return nil, &InvalidCodeError{Reason: fmt.Sprintf("check %d references qubit %d twice", i, q)}
			}
		}
		d.checks[i] = cc
	}

	for i, l := range logicals {
		bm := roaring.New()
		for _, q := range l {
			if int(q) >= numQubits {
				return nil, &InvalidCodeError{Reason: fmt.Sprintf("logical %d references qubit %d outside [0,%d)", i, q, numQubits)}
			}
			bm.Add(q)
		}
		d.logicals[i] = bm
	}

	d.fingerprint = d.computeFingerprint()
	return d, nil
}

// Name returns the human-readable code name.
func (d *Description) Name() string { return d.name }

// NumQubits returns the number of physical qubits.
func (d *Description) NumQubits() int { return d.numQubits }

// NumChecks returns the number of stabilizer checks.
func (d *Description) NumChecks() int { return d.numChecks() }

func (d *Description) numChecks() int { return len(d.checks) }

// NumLogicals returns the number of logical operators.
func (d *Description) NumLogicals() int { return len(d.logicals) }

// Check returns the sorted qubit indices measured by check i.
// The returned slice is shared and must not be modified.
func (d *Description) Check(i int) []uint32 { return d.checks[i] }

// LogicalSupport returns the support bitmap of logical operator i.
// The returned bitmap is shared and must not be modified.
func (d *Description) LogicalSupport(i int) *roaring.Bitmap { return d.logicals[i] }

// Fingerprint returns a stable identity hash of the code structure.
// Two Descriptions with identical checks and logicals (regardless of name)
// have the same fingerprint. Used as a cache key for decoding graphs.
func (d *Description) Fingerprint() uint64 { return d.fingerprint }

func (d *Description) computeFingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	put(uint64(d.numQubits))
	put(uint64(len(d.checks)))
	for _, c := range d.checks {
		put(uint64(len(c)))
		for _, q := range c {
			put(uint64(q))
		}
	}
	put(uint64(len(d.logicals)))
	for _, l := range d.logicals {
		it := l.Iterator()
		for it.HasNext() {
			put(uint64(it.Next()))
		}
		put(^uint64(0)) // terminator between logicals
	}
	return h.Sum64()
}

// CheckParity returns the parity of flips restricted to check i.
// flips holds flipped qubit indices; used to verify that a correction
// reproduces a syndrome.
func (d *Description) CheckParity(i int, flips *roaring.Bitmap) bool {
	parity := false
	for _, q := range d.checks[i] {
		if flips.Contains(q) {
			parity = !parity
		}
	}
	return parity
}
