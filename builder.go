package rtdec

import (
	"context"
	"time"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/device"
	"github.com/qecflow/rtdec/frame"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/ingest"
	"github.com/qecflow/rtdec/kernel"
	"github.com/qecflow/rtdec/noise"
	"github.com/qecflow/rtdec/resource"
)

// DefaultNoiseProb is the uniform flip probability assumed when no noise
// model is configured.
const DefaultNoiseProb = 0.001

// Matching creates a session builder for decoding desc with minimum-weight
// matching.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration.
//
// Example:
//
//	sess, err := rtdec.Matching(desc).
//	    Uniform(0.001).
//	    Workers(4).
//	    Deadline(time.Millisecond).
//	    Build()
func Matching(desc *code.Description) Builder {
	return Builder{desc: desc}
}

// Builder is an immutable fluent builder for decode sessions.
type Builder struct {
	desc            *code.Description
	model           *noise.Model
	dev             device.Device
	workers         int
	deadline        time.Duration
	depth           int
	rateLimit       float64
	rateBurst       int
	maxExact        int
	graph           *graph.Graph
	cache           *graph.Cache
	logger          *Logger
	metrics         MetricsCollector
	resourceCfg     resource.Config
	haveResource    bool
	invalidProb     float64
	haveInvalidProb bool
}

// Noise sets the noise model used to weight the decoding graph.
func (b Builder) Noise(m *noise.Model) Builder {
	b.model = m
	return b
}

// Uniform sets a uniform noise model with flip probability p.
// Shorthand for Noise with noise.Uniform(p); the probability is validated
// at Build.
func (b Builder) Uniform(p float64) Builder {
	m, _ := noise.Uniform(p)
	if m == nil {
		// Remember the invalid value so Build reports it.
		b.model = nil
		b.invalidProb = p
		b.haveInvalidProb = true
		return b
	}
	b.model = m
	return b
}

// Device sets the execution backend. The session does not close a device
// supplied here; pass ownership by closing it yourself after the session.
// Default: a CPU device owned (and closed) by the session.
func (b Builder) Device(d device.Device) Builder {
	b.dev = d
	return b
}

// Workers sets the worker count of the session-owned CPU device.
// Ignored when Device was set. Default: GOMAXPROCS.
func (b Builder) Workers(n int) Builder {
	b.workers = n
	return b
}

// Deadline sets the default per-decode deadline applied when the caller's
// context has none. Zero means no default deadline.
func (b Builder) Deadline(d time.Duration) Builder {
	b.deadline = d
	return b
}

// Depth sets the number of pooled round buffers (cycles in flight).
// Default 1.
func (b Builder) Depth(n int) Builder {
	b.depth = n
	return b
}

// RateLimit caps accepted cycles per second at the ingestor.
func (b Builder) RateLimit(cyclesPerSec float64, burst int) Builder {
	b.rateLimit = cyclesPerSec
	b.rateBurst = burst
	return b
}

// MaxExactDefects sets the largest defect cluster matched exactly.
func (b Builder) MaxExactDefects(n int) Builder {
	b.maxExact = n
	return b
}

// Graph supplies a precompiled decoding graph, typically loaded from an
// artifact, so Build skips the graph construction. The graph's
// fingerprints must match the bound code and noise model.
func (b Builder) Graph(g *graph.Graph) Builder {
	b.graph = g
	return b
}

// Cache sets a shared graph cache so multiple sessions over the same
// (code, model) pair reuse one decoding graph.
func (b Builder) Cache(c *graph.Cache) Builder {
	b.cache = c
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// Resources sets session resource limits.
func (b Builder) Resources(cfg resource.Config) Builder {
	b.resourceCfg = cfg
	b.haveResource = true
	return b
}

// Build constructs the Session: builds (or fetches) the decoding graph,
// acquires the device and pools, and returns a ready decoder.
// Configuration problems are reported wrapped in ErrConfiguration.
func (b Builder) Build() (*Session, error) {
	if b.desc == nil {
		return nil, configError(&code.InvalidCodeError{Reason: "nil code description"})
	}

	logger := b.logger
	if logger == nil {
		logger = NoopLogger()
	}
	metrics := b.metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	model := b.model
	if model == nil {
		if b.haveInvalidProb {
			_, err := noise.Uniform(b.invalidProb)
			return nil, configError(err)
		}
		model, _ = noise.Uniform(DefaultNoiseProb)
	}

	buildStart := time.Now()
	var g *graph.Graph
	var err error
	switch {
	case b.graph != nil:
		g = b.graph
		if g.CodeFingerprint() != b.desc.Fingerprint() || g.ModelFingerprint() != model.Fingerprint() {
			err = &code.InvalidCodeError{Reason: "precompiled graph does not match the bound code and noise model"}
		}
	case b.cache != nil:
		g, err = b.cache.Get(b.desc, model)
	default:
		g, err = graph.Build(b.desc, model)
	}
	metrics.RecordBuild(time.Since(buildStart), err)
	if err != nil {
		logger.LogBuild(context.Background(), b.desc.NumChecks(), 0, time.Since(buildStart), err)
		return nil, configError(err)
	}
	logger.LogBuild(context.Background(), g.NumChecks(), g.NumEdges(), time.Since(buildStart), nil)

	dev := b.dev
	ownsDevice := false
	if dev == nil {
		dev = device.CPU(b.workers)
		ownsDevice = true
	}

	var kernelOpts []kernel.Option
	if b.maxExact > 0 {
		kernelOpts = append(kernelOpts, kernel.WithMaxExactDefects(b.maxExact))
	}

	ingestOpts := []ingest.Option{}
	if b.depth > 0 {
		ingestOpts = append(ingestOpts, ingest.WithDepth(b.depth))
	}
	if b.rateLimit > 0 {
		ingestOpts = append(ingestOpts, ingest.WithRateLimit(b.rateLimit, max(b.rateBurst, 1)))
	}

	rcfg := b.resourceCfg
	if !b.haveResource {
		rcfg = resource.Config{MaxInFlightDecodes: int64(max(b.depth, 1))}
	}

	s := &Session{
		desc:     b.desc,
		model:    model,
		graph:    g,
		dev:      dev,
		ownsDev:  ownsDevice,
		dec:      kernel.New(dev, kernelOpts...),
		in:       ingest.New(b.desc.NumChecks(), ingestOpts...),
		frame:    frame.NewFrame(b.desc),
		rc:       resource.NewController(rcfg),
		deadline: b.deadline,
		logger:   logger,
		metrics:  metrics,
	}
	return s, nil
}
