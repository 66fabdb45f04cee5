// Package hwio exposes the decoder to realtime control firmware.
//
// Control programs address decoders by numeric id and move syndromes and
// corrections as bit-packed uint64 words, one bit per check or qubit, at
// most 64 bits per transfer. A Registry maps decoder ids to sessions,
// decodes each enqueued syndrome and accumulates the resulting corrections
// by XOR until the firmware reads them with reset or resets the decoder.
package hwio

import (
	"context"
	"fmt"
	"sync"

	"github.com/qecflow/rtdec"
)

// MaxWordBits is the widest syndrome or correction a single transfer can
// carry.
const MaxWordBits = 64

// UnknownDecoderError is returned for an id no session is registered under.
type UnknownDecoderError struct {
	DecoderID uint32
}

func (e *UnknownDecoderError) Error() string {
	return fmt.Sprintf("hwio: unknown decoder id %d", e.DecoderID)
}

// WordSizeError is returned when a transfer size does not fit the decoder
// or exceeds MaxWordBits.
type WordSizeError struct {
	DecoderID uint32
	Size      int
	Max       int
}

func (e *WordSizeError) Error() string {
	return fmt.Sprintf("hwio: decoder %d: word size %d exceeds %d bits", e.DecoderID, e.Size, e.Max)
}

type entry struct {
	session     *rtdec.Session
	cycle       uint64
	corrections uint64
}

// Registry maps decoder ids to live sessions. Safe for concurrent use;
// calls against the same decoder id are serialized.
type Registry struct {
	mu       sync.Mutex
	decoders map[uint32]*entry
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[uint32]*entry)}
}

// Register binds a session to a decoder id, replacing any previous binding.
// The registry does not own the session; closing it stays with the caller.
func (r *Registry) Register(decoderID uint32, s *rtdec.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[decoderID] = &entry{session: s}
}

// Unregister removes a decoder id. Unknown ids are ignored.
func (r *Registry) Unregister(decoderID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.decoders, decoderID)
}

func (r *Registry) lookup(decoderID uint32) (*entry, error) {
	e, ok := r.decoders[decoderID]
	if !ok {
		return nil, &UnknownDecoderError{DecoderID: decoderID}
	}
	return e, nil
}

// EnqueueSyndromesUI64 decodes one bit-packed syndrome.
//
// Bit 0 of syndrome (syndrome & 1) is check 0; syndromeSize must equal the
// decoder's check count and be at most 64 bits. The resulting qubit flips
// are XORed into the decoder's accumulated corrections. tag is recorded in
// logs only. A decode that misses its deadline leaves the corrections
// unchanged.
func (r *Registry) EnqueueSyndromesUI64(ctx context.Context, decoderID uint32, syndromeSize int, syndrome uint64, tag uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(decoderID)
	if err != nil {
		return err
	}
	if n := e.session.Code().NumQubits(); n > MaxWordBits {
		return &WordSizeError{DecoderID: decoderID, Size: n, Max: MaxWordBits}
	}

	e.cycle++
	out, err := e.session.DecodePacked(ctx, e.cycle, syndromeSize, syndrome, tag)
	if err != nil {
		return err
	}
	if out.Update == nil {
		return nil // deadline miss, nothing to apply
	}

	var word uint64
	it := out.Update.Flips.Iterator()
	for it.HasNext() {
		word |= 1 << it.Next()
	}
	e.corrections ^= word
	return nil
}

// GetCorrectionsUI64 returns the accumulated corrections, bit i for qubit
// i. returnSize must cover the decoder's qubit count and be at most 64
// bits. When reset is true the accumulated corrections are cleared after
// the read.
func (r *Registry) GetCorrectionsUI64(decoderID uint32, returnSize int, reset bool) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(decoderID)
	if err != nil {
		return 0, err
	}
	if returnSize > MaxWordBits || returnSize < e.session.Code().NumQubits() {
		return 0, &WordSizeError{DecoderID: decoderID, Size: returnSize, Max: MaxWordBits}
	}

	word := e.corrections
	if reset {
		e.corrections = 0
	}
	return word, nil
}

// ResetDecoderUI64 clears the decoder's accumulated corrections and Pauli
// frame. The cycle counter keeps running so syndrome ordering stays
// monotonic across resets.
func (r *Registry) ResetDecoderUI64(decoderID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(decoderID)
	if err != nil {
		return err
	}
	e.corrections = 0
	e.session.Frame().Reset()
	return nil
}
