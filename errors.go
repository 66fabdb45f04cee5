package rtdec

import (
	"errors"
	"fmt"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/frame"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/ingest"
	"github.com/qecflow/rtdec/kernel"
)

var (
	// ErrConfiguration marks fatal setup errors: code/syndrome shape
	// mismatch, invalid code structure, undersized noise model. The
	// caller must not proceed with the session.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackpressure marks a recoverable per-cycle rejection: the
	// ingestion buffer is still held by an undecoded prior cycle, or the
	// rate limit was hit. The caller retries or drops the cycle.
	ErrBackpressure = errors.New("backpressure")

	// ErrOutOfOrder marks a stale or duplicate cycle id. Cycles are
	// decoded in submission order; out-of-order submissions are rejected,
	// never reordered.
	ErrOutOfOrder = errors.New("cycle out of order")

	// ErrUnresolvedSyndrome marks a decode result that does not fully
	// explain the submitted syndrome. Surfaced to the caller, never
	// silently patched.
	ErrUnresolvedSyndrome = errors.New("unresolved syndrome")

	// ErrClosed is returned by operations on a closed Session.
	ErrClosed = errors.New("session closed")
)

// configError wraps a setup failure in ErrConfiguration, once.
func configError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// translateError normalizes subpackage errors into the facade's taxonomy.
// The original error remains reachable via errors.As/Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var se *ingest.ShapeError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var ice *code.InvalidCodeError
	if errors.As(err, &ice) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if errors.Is(err, graph.ErrModelShape) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	var oe *ingest.OrderError
	if errors.As(err, &oe) {
		return fmt.Errorf("%w: %w", ErrOutOfOrder, err)
	}
	var be *ingest.BackpressureError
	if errors.As(err, &be) {
		return fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	if errors.Is(err, ingest.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var ume *kernel.UnmatchableSyndromeError
	if errors.As(err, &ume) {
		return fmt.Errorf("%w: %w", ErrUnresolvedSyndrome, err)
	}
	var ue *frame.UnresolvedSyndromeError
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %w", ErrUnresolvedSyndrome, err)
	}

	return err
}
