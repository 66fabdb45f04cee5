// Package ingest receives per-cycle syndrome measurements and hands them to
// the decode path as pooled, fixed-size rounds.
//
// Submission never blocks: a syndrome is either accepted, transferring
// ownership of a round buffer to the caller of Submit, or rejected with an
// explicit typed reason (shape mismatch, out-of-order cycle, backpressure).
// The calling program decides whether to drop the cycle, stall the circuit,
// or escalate. Round buffers come from a fixed pool and are recycled via
// Release, so steady-state ingestion performs no allocation.
package ingest

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/time/rate"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = fmt.Errorf("ingestor closed")

// ShapeError reports a syndrome whose length does not match the bound code.
// This is a configuration error: the caller must not continue the session.
type ShapeError struct {
	CycleID uint64
	Want    int
	Got     int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cycle %d: syndrome length %d does not match %d checks", e.CycleID, e.Got, e.Want)
}

// OrderError reports a stale or duplicate cycle id. Cycles must arrive in
// strictly increasing order; the ingestor rejects rather than reorders.
type OrderError struct {
	CycleID uint64
	Last    uint64
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("cycle %d is not after last accepted cycle %d", e.CycleID, e.Last)
}

// BackpressureError reports that no round buffer is free (a prior cycle is
// still being decoded) or that the ingest rate limit was exceeded.
// Recoverable: the caller may retry or drop the cycle.
type BackpressureError struct {
	CycleID     uint64
	RateLimited bool
}

func (e *BackpressureError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("cycle %d rejected: ingest rate limit exceeded", e.CycleID)
	}
	return fmt.Sprintf("cycle %d rejected: all round buffers in flight", e.CycleID)
}

// Round is one accepted syndrome. The holder owns it exclusively until
// Release returns it to the pool.
type Round struct {
	CycleID uint64
	Tag     uint64 // opaque caller tag, logging only
	Bits    *bitset.BitSet
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithDepth sets the number of round buffers (in-flight cycles allowed).
// Default 1: the next cycle is rejected until the previous decode released
// its buffer.
func WithDepth(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.depth = n
		}
	}
}

// WithRateLimit caps accepted cycles per second. Submissions beyond the
// limit are rejected with a rate-limited BackpressureError, never queued.
func WithRateLimit(cyclesPerSec float64, burst int) Option {
	return func(in *Ingestor) {
		in.limiter = rate.NewLimiter(rate.Limit(cyclesPerSec), burst)
	}
}

// Ingestor validates and buffers syndrome submissions. Safe for concurrent
// use, though cycles are expected to arrive from a single control loop.
type Ingestor struct {
	numChecks int
	depth     int
	limiter   *rate.Limiter

	mu          sync.Mutex
	free        []*Round
	outstanding int
	lastCycle   uint64
	haveLast    bool
	closed      bool
}

// New returns an Ingestor for syndromes of numChecks bits.
func New(numChecks int, opts ...Option) *Ingestor {
	in := &Ingestor{
		numChecks: numChecks,
		depth:     1,
	}
	for _, opt := range opts {
		opt(in)
	}
	in.free = make([]*Round, 0, in.depth)
	for i := 0; i < in.depth; i++ {
		in.free = append(in.free, &Round{Bits: bitset.New(uint(numChecks))})
	}
	return in
}

// NumChecks returns the expected syndrome length.
func (in *Ingestor) NumChecks() int { return in.numChecks }

// Submit validates syndrome and, on acceptance, returns the round buffer
// now owned by the caller. tag is recorded for logging only.
func (in *Ingestor) Submit(cycleID uint64, syndrome []bool, tag uint64) (*Round, error) {
	if len(syndrome) != in.numChecks {
		return nil, &ShapeError{CycleID: cycleID, Want: in.numChecks, Got: len(syndrome)}
	}
	r, err := in.checkout(cycleID, tag)
	if err != nil {
		return nil, err
	}
	for i, b := range syndrome {
		if b {
			r.Bits.Set(uint(i))
		}
	}
	return r, nil
}

// SubmitPacked accepts a bit-packed syndrome in hardware order: bit i of
// packed is syndrome bit i (least significant bit first). size must equal
// the bound check count and fit in 64 bits.
func (in *Ingestor) SubmitPacked(cycleID uint64, size int, packed uint64, tag uint64) (*Round, error) {
	if size != in.numChecks || size > 64 {
		return nil, &ShapeError{CycleID: cycleID, Want: in.numChecks, Got: size}
	}
	r, err := in.checkout(cycleID, tag)
	if err != nil {
		return nil, err
	}
	for i := 0; i < size; i++ {
		if packed>>uint(i)&1 == 1 {
			r.Bits.Set(uint(i))
		}
	}
	return r, nil
}

func (in *Ingestor) checkout(cycleID uint64, tag uint64) (*Round, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil, ErrClosed
	}
	if in.haveLast && cycleID <= in.lastCycle {
		return nil, &OrderError{CycleID: cycleID, Last: in.lastCycle}
	}
	if len(in.free) == 0 {
		return nil, &BackpressureError{CycleID: cycleID}
	}
	if in.limiter != nil && !in.limiter.Allow() {
		return nil, &BackpressureError{CycleID: cycleID, RateLimited: true}
	}

	r := in.free[len(in.free)-1]
	in.free = in.free[:len(in.free)-1]
	in.outstanding++
	in.lastCycle = cycleID
	in.haveLast = true

	r.CycleID = cycleID
	r.Tag = tag
	r.Bits.ClearAll()
	return r, nil
}

// Release returns a round buffer to the pool after its decode completed or
// was abandoned. The caller must not touch r afterwards.
func (in *Ingestor) Release(r *Round) {
	if r == nil {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	r.Bits.ClearAll()
	in.free = append(in.free, r)
	in.outstanding--
}

// Outstanding returns the number of rounds currently checked out.
func (in *Ingestor) Outstanding() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.outstanding
}

// Close rejects all further submissions. Outstanding rounds stay valid for
// their in-flight decodes.
func (in *Ingestor) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.free = nil
}
