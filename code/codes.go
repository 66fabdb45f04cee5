package code

import "fmt"

// RepetitionCode returns the open-chain repetition code on n data qubits.
//
// Check i compares qubits i and i+1, so there are n-1 checks. Qubits 0 and
// n-1 each appear in a single check, which gives the decoding graph a
// boundary on both ends of the chain. The logical support is {0}: a
// correction flips the logical bit iff it acts on qubit 0 an odd number of
// times.
func RepetitionCode(n int) (*Description, error) {
	if n < 2 {
		return nil, &InvalidCodeError{Reason: fmt.Sprintf("repetition code needs at least 2 qubits, got %d", n)}
	}
	checks := make([][]uint32, n-1)
	for i := range checks {
		checks[i] = []uint32{uint32(i), uint32(i + 1)}
	}
	return New(fmt.Sprintf("repetition-%d", n), n, checks, [][]uint32{{0}})
}

// CyclicRepetitionCode returns the ring repetition code on n data qubits.
//
// Check i compares qubits (i+n-1) mod n and i, so every qubit appears in
// exactly two checks and the decoding graph is a closed ring with no
// boundary. A valid syndrome therefore always has an even number of
// triggered checks.
func CyclicRepetitionCode(n int) (*Description, error) {
	if n < 3 {
		return nil, &InvalidCodeError{Reason: fmt.Sprintf("cyclic repetition code needs at least 3 qubits, got %d", n)}
	}
	checks := make([][]uint32, n)
	for i := range checks {
		checks[i] = []uint32{uint32((i + n - 1) % n), uint32(i)}
	}
	return New(fmt.Sprintf("cyclic-repetition-%d", n), n, checks, [][]uint32{{0}})
}

// SurfaceCode returns the Z-check slice of the distance-d planar surface
// code, i.e. the structure used to decode X (bit-flip) errors.
//
// Data qubits live on the edges of a square lattice: d*d "horizontal"
// qubits h(r,c) = r*d + c for r in [0,d), c in [0,d), and (d-1)*(d-1)
// "vertical" qubits v(r,c) = d*d + r*(d-1) + c for r in [0,d-1),
// c in [0,d-1). Z-checks form a d x (d-1) grid; the check at (r,c) measures
// h(r,c), h(r,c+1) and the vertical qubits above and below where present.
// Horizontal qubits in columns 0 and d-1 appear in a single check each,
// forming the left and right boundaries. The logical support is the column
// {h(r,0) : r in [0,d)}.
func SurfaceCode(d int) (*Description, error) {
	if d < 2 {
		return nil, &InvalidCodeError{Reason: fmt.Sprintf("surface code needs distance >= 2, got %d", d)}
	}

	h := func(r, c int) uint32 { return uint32(r*d + c) }
	v := func(r, c int) uint32 { return uint32(d*d + r*(d-1) + c) }
	numQubits := d*d + (d-1)*(d-1)

	var checks [][]uint32
	for r := 0; r < d; r++ {
		for c := 0; c < d-1; c++ {
			chk := []uint32{h(r, c), h(r, c+1)}
			if r > 0 {
				chk = append(chk, v(r-1, c))
			}
			if r < d-1 {
				chk = append(chk, v(r, c))
			}
			checks = append(checks, chk)
		}
	}

	logical := make([]uint32, d)
	for r := 0; r < d; r++ {
		logical[r] = h(r, 0)
	}

	return New(fmt.Sprintf("surface-%d", d), numQubits, checks, [][]uint32{logical})
}
