// Package bits provides word-level primitives used by integer arithmetic and hashing.
package bits

import "math/bits"

func Clz32(x uint32) int { return bits.LeadingZeros32(x) }
func Clz64(x uint64) int { return bits.LeadingZeros64(x) }
func Ctz32(x uint32) int { return bits.TrailingZeros32(x) }
func Ctz64(x uint64) int { return bits.TrailingZeros64(x) }

func Popcount32(x uint32) int { return bits.OnesCount32(x) }
func Popcount64(x uint64) int { return bits.OnesCount64(x) }

// Rotl32 rotates x left by k bits; k is taken modulo 32.
func Rotl32(x uint32, k int) uint32 { return bits.RotateLeft32(x, k&31) }

// Rotr32 rotates x right by k bits; k is taken modulo 32.
func Rotr32(x uint32, k int) uint32 { return bits.RotateLeft32(x, -(k & 31)) }

// Rotl64 rotates x left by k bits; k is taken modulo 64.
func Rotl64(x uint64, k int) uint64 { return bits.RotateLeft64(x, k&63) }

// Rotr64 rotates x right by k bits; k is taken modulo 64.
func Rotr64(x uint64, k int) uint64 { return bits.RotateLeft64(x, -(k & 63)) }

// Parity32 is 1 when x has an odd number of set bits.
func Parity32(x uint32) int { return bits.OnesCount32(x) & 1 }

// Parity64 is 1 when x has an odd number of set bits.
func Parity64(x uint64) int { return bits.OnesCount64(x) & 1 }

func Bswap32(x uint32) uint32 { return bits.ReverseBytes32(x) }
func Bswap64(x uint64) uint64 { return bits.ReverseBytes64(x) }

// BitLen64 is the minimum number of bits needed to represent x.
func BitLen64(x uint64) int { return bits.Len64(x) }

// IsPowerOfTwo reports whether x has exactly one bit set.
func IsPowerOfTwo(x uint64) bool { return x != 0 && x&(x-1) == 0 }

// MulHi64 returns the high word of the 128-bit product x*y.
func MulHi64(x, y uint64) uint64 {
	hi, _ := bits.Mul64(x, y)
	return hi
}

// AddOverflow64 returns x+y and whether the signed addition overflowed.
func AddOverflow64(x, y int64) (int64, bool) {
	sum := x + y
	return sum, (x >= 0) == (y >= 0) && (sum >= 0) != (x >= 0)
}

// SubOverflow64 returns x-y and whether the signed subtraction overflowed.
func SubOverflow64(x, y int64) (int64, bool) {
	diff := x - y
	return diff, (x >= 0) != (y >= 0) && (diff >= 0) != (x >= 0)
}

// MulOverflow64 returns x*y and whether the signed multiplication overflowed.
func MulOverflow64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, false
	}
	prod := x * y
	if (x == -1 && y == -1<<63) || (y == -1 && x == -1<<63) {
		return prod, true
	}
	return prod, prod/y != x
}

// Hash64 mixes a word into a well-distributed 64-bit hash (splitmix64 finalizer).
func Hash64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
