//go:build !cuda

package device

// CUDA returns the CUDA device with the given ordinal.
//
// This build has no CUDA support; it always returns ErrUnavailable. Build
// with the "cuda" tag and a linked driver binding to enable it.
func CUDA(ordinal int) (Device, error) {
	return nil, ErrUnavailable
}

// CUDAAvailable reports whether this build can open CUDA devices.
func CUDAAvailable() bool { return false }
