// Package testutil provides testing utilities for the decoder.
//
// This package is intended for use in tests and benchmarks only. It
// provides a seeded error sampler, syndrome computation, and an exact
// brute-force decoder used as ground truth for matching quality.
//
// # Error Sampling
//
//	rng := testutil.NewRNG(seed)
//	flips := rng.SampleErrors(desc.NumQubits(), 0.01)
//
// # Syndromes
//
//	syndrome := testutil.Syndrome(desc, flips)
//
// # Ground Truth
//
//	weight, ok := testutil.ExactMinWeight(g, syndrome)
package testutil
