// Package resource tracks and bounds the resources a decode session uses:
// scratch memory reserved for in-flight searches and the number of decodes
// allowed in flight at once.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Config holds session resource limits.
type Config struct {
	// ScratchLimitBytes is the hard limit for reserved scratch memory.
	// If 0, usage is tracked but not enforced.
	ScratchLimitBytes int64

	// MaxInFlightDecodes bounds concurrent decode calls.
	// If 0, defaults to 1: one decode per cycle, in submission order.
	MaxInFlightDecodes int64
}

// Controller manages session resources. The zero-value pointer is usable:
// all methods treat a nil receiver as "unlimited".
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	decodeSem *semaphore.Weighted
	inFlight  atomic.Int64
}

// NewController creates a controller with the given limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxInFlightDecodes <= 0 {
		cfg.MaxInFlightDecodes = 1
	}
	c := &Controller{
		cfg:       cfg,
		decodeSem: semaphore.NewWeighted(cfg.MaxInFlightDecodes),
	}
	if cfg.ScratchLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.ScratchLimitBytes)
	}
	return c
}

// AcquireScratch reserves scratch memory, blocking until available or ctx
// is done when a hard limit is configured.
func (c *Controller) AcquireScratch(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// ReleaseScratch releases reserved scratch memory.
func (c *Controller) ReleaseScratch(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// ScratchUsage returns the currently reserved scratch bytes.
func (c *Controller) ScratchUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// TryBeginDecode claims a decode slot without blocking. A false return is
// the backpressure signal: a prior cycle is still decoding.
func (c *Controller) TryBeginDecode() bool {
	if c == nil {
		return true
	}
	if !c.decodeSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// EndDecode releases a decode slot claimed by TryBeginDecode.
func (c *Controller) EndDecode() {
	if c == nil {
		return
	}
	c.decodeSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of decodes currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}
