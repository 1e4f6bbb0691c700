// SPDX-License-Identifier: MIT
//
// Package bitint holds allocation-free power-of-two helpers used when
// sizing audio buffers.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes <= 0
// return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	// size-1 keeps exact powers of two from doubling.
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
