// Package noise defines the weight models that turn a code's error
// mechanisms into log-likelihood edge weights for the decoding graph.
//
// A Model assigns each physical qubit an independent flip probability p in
// (0, 0.5). The matching weight of the corresponding graph edge is the
// standard log-likelihood ratio log((1-p)/p), so minimum-weight matching is
// maximum-likelihood decoding under the independent-flip assumption.
package noise

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// InvalidModelError indicates an out-of-range probability.
type InvalidModelError struct {
	Qubit int // -1 for the uniform probability
	Prob  float64
}

func (e *InvalidModelError) Error() string {
	if e.Qubit < 0 {
		return fmt.Sprintf("invalid flip probability %g: must be in (0, 0.5)", e.Prob)
	}
	return fmt.Sprintf("invalid flip probability %g for qubit %d: must be in (0, 0.5)", e.Prob, e.Qubit)
}

// Model maps physical qubits to independent flip probabilities.
// Immutable after construction; safe for concurrent use.
type Model struct {
	uniform     float64   // used when perQubit is nil
	perQubit    []float64 // indexed by qubit
	fingerprint uint64
}

func validProb(p float64) bool {
	return p > 0 && p < 0.5 && !math.IsNaN(p)
}

// Uniform returns a model assigning probability p to every qubit.
func Uniform(p float64) (*Model, error) {
	if !validProb(p) {
		return nil, &InvalidModelError{Qubit: -1, Prob: p}
	}
	m := &Model{uniform: p}
	m.fingerprint = m.computeFingerprint()
	return m, nil
}

// PerQubit returns a model with an individual probability per qubit.
// The slice is copied; its length must cover every qubit of the code the
// model is used with.
func PerQubit(probs []float64) (*Model, error) {
	if len(probs) == 0 {
		return nil, &InvalidModelError{Qubit: -1, Prob: 0}
	}
	pq := make([]float64, len(probs))
	for i, p := range probs {
		if !validProb(p) {
			return nil, &InvalidModelError{Qubit: i, Prob: p}
		}
		pq[i] = p
	}
	m := &Model{perQubit: pq}
	m.fingerprint = m.computeFingerprint()
	return m, nil
}

// Prob returns the flip probability of qubit q.
func (m *Model) Prob(q int) float64 {
	if m.perQubit != nil {
		if q < len(m.perQubit) {
			return m.perQubit[q]
		}
		// Out-of-range qubits are caught at graph build time; keep Prob
		// total so it stays usable in weight previews.
		return m.perQubit[len(m.perQubit)-1]
	}
	return m.uniform
}

// NumQubits returns the number of per-qubit entries, or 0 for a uniform
// model (which covers any qubit count).
func (m *Model) NumQubits() int { return len(m.perQubit) }

// Weight returns the log-likelihood matching weight of qubit q.
func (m *Model) Weight(q int) float64 {
	p := m.Prob(q)
	return math.Log((1 - p) / p)
}

// Fingerprint returns a stable identity hash of the model, used together
// with the code fingerprint as a decoding-graph cache key.
func (m *Model) Fingerprint() uint64 { return m.fingerprint }

func (m *Model) computeFingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	if m.perQubit == nil {
		put(0)
		put(math.Float64bits(m.uniform))
	} else {
		put(uint64(len(m.perQubit)))
		for _, p := range m.perQubit {
			put(math.Float64bits(p))
		}
	}
	return h.Sum64()
}

// yamlSpec is the on-disk YAML shape of a noise model.
type yamlSpec struct {
	Type     string    `yaml:"type"` // "uniform" or "per-qubit"
	P        float64   `yaml:"p"`
	PerQubit []float64 `yaml:"per_qubit"`
}

// LoadYAML reads a noise model from YAML.
//
// Expected shape, either:
//
//	type: uniform
//	p: 0.001
//
// or:
//
//	type: per-qubit
//	per_qubit: [0.001, 0.002, 0.001]
func LoadYAML(r io.Reader) (*Model, error) {
	var spec yamlSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode noise yaml: %w", err)
	}
	switch spec.Type {
	case "uniform":
		return Uniform(spec.P)
	case "per-qubit":
		return PerQubit(spec.PerQubit)
	default:
		return nil, fmt.Errorf("unknown noise model type %q", spec.Type)
	}
}

// LoadYAMLFile reads a noise model from a YAML file.
func LoadYAMLFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}
