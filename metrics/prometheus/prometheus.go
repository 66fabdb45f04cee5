// Package prometheus implements rtdec.MetricsCollector on Prometheus.
//
// Register the collector with the session builder and expose the registry
// through promhttp to watch decode latency against the realtime budget.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qecflow/rtdec/kernel"
)

// Collector implements rtdec.MetricsCollector backed by Prometheus metrics.
type Collector struct {
	submits       *prometheus.CounterVec
	decodes       *prometheus.CounterVec
	decodeSeconds prometheus.Histogram
	builds        *prometheus.CounterVec
	buildSeconds  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// Decode buckets span 1µs to ~33ms: realtime decodes sit in the low
// microseconds and anything past a few milliseconds has blown its budget.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtdec_submits_total",
			Help: "Syndrome submissions by outcome.",
		}, []string{"outcome"}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtdec_decodes_total",
			Help: "Decode attempts by status.",
		}, []string{"status"}),
		decodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtdec_decode_duration_seconds",
			Help:    "Wall-clock decode duration per cycle.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 2, 16),
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtdec_graph_builds_total",
			Help: "Decoding graph builds by outcome.",
		}, []string{"outcome"}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtdec_graph_build_duration_seconds",
			Help:    "Decoding graph build duration.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
	}
	reg.MustRegister(c.submits, c.decodes, c.decodeSeconds, c.builds, c.buildSeconds)
	return c
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSubmit implements rtdec.MetricsCollector.
func (c *Collector) RecordSubmit(err error) {
	c.submits.WithLabelValues(outcome(err)).Inc()
}

// RecordDecode implements rtdec.MetricsCollector.
func (c *Collector) RecordDecode(status kernel.Status, duration time.Duration, err error) {
	label := status.String()
	if err != nil {
		label = "error"
	}
	c.decodes.WithLabelValues(label).Inc()
	c.decodeSeconds.Observe(duration.Seconds())
}

// RecordBuild implements rtdec.MetricsCollector.
func (c *Collector) RecordBuild(duration time.Duration, err error) {
	c.builds.WithLabelValues(outcome(err)).Inc()
	c.buildSeconds.Observe(duration.Seconds())
}
