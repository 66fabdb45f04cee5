package rtdec

import (
	"sync/atomic"
	"time"

	"github.com/qecflow/rtdec/kernel"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; a
// Prometheus implementation lives in metrics/prometheus.
type MetricsCollector interface {
	// RecordSubmit is called after each syndrome submission.
	// err is nil if the submission was accepted.
	RecordSubmit(err error)

	// RecordDecode is called after each decode attempt.
	// status reports ok/timeout; err is non-nil for rejected or
	// unresolved cycles.
	RecordDecode(status kernel.Status, duration time.Duration, err error)

	// RecordBuild is called after each decoding-graph build.
	RecordBuild(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSubmit(error)                               {}
func (NoopMetricsCollector) RecordDecode(kernel.Status, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(time.Duration, error)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	SubmitCount      atomic.Int64
	SubmitRejections atomic.Int64
	DecodeCount      atomic.Int64
	DecodeTimeouts   atomic.Int64
	DecodeErrors     atomic.Int64
	DecodeTotalNanos atomic.Int64
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
}

// NewBasicMetricsCollector creates a new basic metrics collector.
func NewBasicMetricsCollector() *BasicMetricsCollector {
	return &BasicMetricsCollector{}
}

// RecordSubmit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubmit(err error) {
	b.SubmitCount.Add(1)
	if err != nil {
		b.SubmitRejections.Add(1)
	}
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(status kernel.Status, duration time.Duration, err error) {
	b.DecodeCount.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
	if status == kernel.StatusTimeout {
		b.DecodeTimeouts.Add(1)
	}
	if err != nil {
		b.DecodeErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SubmitCount      int64
	SubmitRejections int64
	DecodeCount      int64
	DecodeTimeouts   int64
	DecodeErrors     int64
	DecodeAvgNanos   int64
	BuildCount       int64
	BuildErrors      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		SubmitCount:      b.SubmitCount.Load(),
		SubmitRejections: b.SubmitRejections.Load(),
		DecodeCount:      b.DecodeCount.Load(),
		DecodeTimeouts:   b.DecodeTimeouts.Load(),
		DecodeErrors:     b.DecodeErrors.Load(),
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
	}
	if stats.DecodeCount > 0 {
		stats.DecodeAvgNanos = b.DecodeTotalNanos.Load() / stats.DecodeCount
	}
	return stats
}
