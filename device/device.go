// Package device abstracts the execution context the decode kernel runs on.
//
// The kernel expresses its work as batches of independent tasks (one per
// syndrome component or per defect) and leaves placement to a Device. The
// CPU device runs batches on a fixed pool of worker goroutines; the CUDA
// device is only available when the module is built with the "cuda" tag and
// a driver binding is linked in.
package device

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a requested backend is not usable in the
// current build or on the current host.
var ErrUnavailable = errors.New("device backend unavailable")

// ErrClosed is returned when work is submitted to a closed device.
var ErrClosed = errors.New("device closed")

// Info describes a device backend.
type Info struct {
	Name    string // e.g. "cpu", "cuda:0"
	Kind    string // "cpu" or "cuda"
	Workers int    // parallel lanes available to RunBatch
}

// Device is an execution context for kernel task batches.
type Device interface {
	// Info describes the backend.
	Info() Info

	// RunBatch executes n independent tasks and waits for all of them.
	// Tasks still pending when ctx is done are skipped; tasks already
	// running are allowed to finish (their writes target per-decode
	// scratch, never shared state). The first task error, or the context
	// error, is returned.
	RunBatch(ctx context.Context, n int, task func(i int) error) error

	// Close releases the backend. Idempotent.
	Close() error
}
