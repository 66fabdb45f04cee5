package hwio

import "fmt"

// PackBits packs a bool slice into a big-endian word: bits[0] lands in the
// most significant position of the len(bits)-bit result. This is the order
// the control firmware uses when assembling measurement words.
func PackBits(bits []bool) (uint64, error) {
	if len(bits) > MaxWordBits {
		return 0, fmt.Errorf("hwio: cannot pack %d bits into a word", len(bits))
	}
	var acc uint64
	for _, b := range bits {
		acc <<= 1
		if b {
			acc |= 1
		}
	}
	return acc, nil
}

// UnpackBits is the inverse of PackBits, expanding the low n bits of a
// big-endian word into a bool slice.
func UnpackBits(word uint64, n int) ([]bool, error) {
	if n > MaxWordBits {
		return nil, fmt.Errorf("hwio: cannot unpack %d bits from a word", n)
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = word>>(n-i-1)&1 == 1
	}
	return bits, nil
}
