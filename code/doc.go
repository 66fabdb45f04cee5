// Package code defines immutable descriptions of quantum error-correction codes.
//
// A Description captures the parity-check structure of a code: a set of
// stabilizer checks, each referencing a subset of physical qubits, plus the
// supports of the code's logical operators. Descriptions are validated on
// construction and never mutated afterwards, so they can be shared read-only
// across graph building, decoding and correction translation.
//
// Stock constructors are provided for repetition codes (open chain and ring)
// and for the planar surface code. Arbitrary codes can be built from raw
// check lists via New, or loaded from YAML via LoadYAML.
package code
