//go:build cuda

package device

// CUDA returns the CUDA device with the given ordinal.
//
// The binding is not wired in this tree yet; the tag exists so downstream
// builds can swap in a driver-backed implementation without changing
// callers.
// TODO: route RunBatch through the cudaq-qec driver binding once its cgo
// shim is published.
func CUDA(ordinal int) (Device, error) {
	return nil, ErrUnavailable
}

// CUDAAvailable reports whether this build can open CUDA devices.
func CUDAAvailable() bool { return false }
