package rtdec

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/device"
	"github.com/qecflow/rtdec/frame"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/ingest"
	"github.com/qecflow/rtdec/internal/pool"
	"github.com/qecflow/rtdec/kernel"
	"github.com/qecflow/rtdec/noise"
	"github.com/qecflow/rtdec/resource"
)

// Outcome is the per-cycle result returned to the calling program.
//
// Status distinguishes a completed decode from a deadline miss. On timeout
// Update is nil: no correction applies to that cycle, and callers must not
// substitute an identity correction.
type Outcome struct {
	Status  kernel.Status
	CycleID uint64
	Update  *frame.Update // nil when Status != StatusOK
	Matches int
	Weight  float64
	Elapsed time.Duration
}

// Session owns everything a stream of decode calls needs: the cached
// decoding graph, the device context, round buffers, scratch pools and the
// accumulated Pauli frame. Create it with Matching(...).Build(), release it
// with Close.
type Session struct {
	desc     *code.Description
	model    *noise.Model
	graph    *graph.Graph
	dev      device.Device
	ownsDev  bool
	dec      *kernel.Decoder
	in       *ingest.Ingestor
	frame    *frame.Frame
	rc       *resource.Controller
	deadline time.Duration
	logger   *Logger
	metrics  MetricsCollector
	closed   atomic.Bool
}

// Decode submits one cycle's syndrome and synchronously returns its
// correction outcome.
//
// syndrome must have exactly one bit per check of the bound code. The
// context (or the session's default deadline) bounds the decode; expiry
// yields an Outcome with StatusTimeout, not an error. Rejections and
// unresolved syndromes are returned as errors from the facade taxonomy and
// always carry the cycle id.
func (s *Session) Decode(ctx context.Context, cycleID uint64, syndrome []bool) (*Outcome, error) {
	return s.decode(ctx, cycleID, 0, func() (*ingest.Round, error) {
		return s.in.Submit(cycleID, syndrome, 0)
	})
}

// DecodeTagged is Decode with an opaque hardware tag recorded in logs.
func (s *Session) DecodeTagged(ctx context.Context, cycleID uint64, syndrome []bool, tag uint64) (*Outcome, error) {
	return s.decode(ctx, cycleID, tag, func() (*ingest.Round, error) {
		return s.in.Submit(cycleID, syndrome, tag)
	})
}

// DecodePacked is Decode for bit-packed syndromes in hardware order (least
// significant bit is syndrome bit 0). size must equal the check count and
// fit in 64 bits.
func (s *Session) DecodePacked(ctx context.Context, cycleID uint64, size int, packed uint64, tag uint64) (*Outcome, error) {
	return s.decode(ctx, cycleID, tag, func() (*ingest.Round, error) {
		return s.in.SubmitPacked(cycleID, size, packed, tag)
	})
}

func (s *Session) decode(ctx context.Context, cycleID, tag uint64, submit func() (*ingest.Round, error)) (*Outcome, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	if !s.rc.TryBeginDecode() {
		err := translateError(&ingest.BackpressureError{CycleID: cycleID})
		s.metrics.RecordSubmit(err)
		s.logger.LogSubmit(ctx, cycleID, tag, err)
		return nil, err
	}
	defer s.rc.EndDecode()

	round, err := submit()
	s.metrics.RecordSubmit(err)
	s.logger.LogSubmit(ctx, cycleID, tag, err)
	if err != nil {
		return nil, translateError(err)
	}
	defer s.in.Release(round)

	if s.deadline > 0 {
		if _, has := ctx.Deadline(); !has {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.deadline)
			defer cancel()
		}
	}

	// One Dijkstra scratch per defect is the decode's working set; reserve
	// it up front so a configured scratch limit throttles busy cycles.
	scratch := int64(round.Bits.Count()) * pool.ScratchBytes(s.graph.NumChecks())
	if err := s.rc.AcquireScratch(ctx, scratch); err != nil {
		s.metrics.RecordDecode(kernel.StatusOK, 0, err)
		s.logger.LogDecode(ctx, cycleID, kernel.StatusOK, 0, 0, err)
		return nil, translateError(err)
	}
	defer s.rc.ReleaseScratch(scratch)

	start := time.Now()
	res, err := s.dec.Decode(ctx, s.graph, cycleID, round.Bits)
	if err != nil {
		s.metrics.RecordDecode(kernel.StatusOK, time.Since(start), err)
		s.logger.LogDecode(ctx, cycleID, kernel.StatusOK, 0, time.Since(start), err)
		return nil, translateError(err)
	}

	if res.Status == kernel.StatusTimeout {
		s.metrics.RecordDecode(res.Status, res.Elapsed, nil)
		s.logger.LogDecode(ctx, cycleID, res.Status, 0, res.Elapsed, nil)
		return &Outcome{Status: kernel.StatusTimeout, CycleID: cycleID, Elapsed: res.Elapsed}, nil
	}

	update, err := frame.Translate(res, round.Bits, s.desc)
	if err != nil {
		s.metrics.RecordDecode(res.Status, res.Elapsed, err)
		s.logger.LogDecode(ctx, cycleID, res.Status, len(res.Flips), res.Elapsed, err)
		return nil, translateError(err)
	}
	s.frame.Apply(update)

	s.metrics.RecordDecode(res.Status, res.Elapsed, nil)
	s.logger.LogDecode(ctx, cycleID, res.Status, len(res.Flips), res.Elapsed, nil)

	return &Outcome{
		Status:  kernel.StatusOK,
		CycleID: cycleID,
		Update:  update,
		Matches: len(res.Matches),
		Weight:  res.Weight,
		Elapsed: res.Elapsed,
	}, nil
}

// Code returns the bound code description.
func (s *Session) Code() *code.Description { return s.desc }

// NoiseModel returns the bound noise model.
func (s *Session) NoiseModel() *noise.Model { return s.model }

// Graph returns the shared decoding graph.
func (s *Session) Graph() *graph.Graph { return s.graph }

// Frame returns the session's accumulated Pauli frame.
func (s *Session) Frame() *frame.Frame { return s.frame }

// DeviceInfo describes the execution backend in use.
func (s *Session) DeviceInfo() device.Info { return s.dev.Info() }

// ScratchUsage returns the currently reserved scratch bytes.
func (s *Session) ScratchUsage() int64 { return s.rc.ScratchUsage() }
