package bignum

import "math/bits"

// Limb helpers operate on little-endian base-2^32 slices. Unless stated
// otherwise, inputs may carry trailing zero limbs and outputs are trimmed.

func trimLimbs(limbs []uint32) []uint32 {
	for len(limbs) > 0 && limbs[len(limbs)-1] == 0 {
		limbs = limbs[:len(limbs)-1]
	}
	if len(limbs) == 0 {
		return nil
	}
	return limbs
}

func bitLenLimbs(limbs []uint32) int {
	limbs = trimLimbs(limbs)
	if len(limbs) == 0 {
		return 0
	}
	return (len(limbs)-1)*32 + bits.Len32(limbs[len(limbs)-1])
}

func cmpLimbs(a, b []uint32) int {
	a = trimLimbs(a)
	b = trimLimbs(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := len(a) - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// addLimbs returns a+b.
func addLimbs(a, b []uint32) []uint32 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := make([]uint32, len(a)+1)
	var carry uint32
	for i := range a {
		var bv uint32
		if i < len(b) {
			bv = b[i]
		}
		out[i], carry = bits.Add32(a[i], bv, carry)
	}
	out[len(a)] = carry
	return trimLimbs(out)
}

// subInPlace computes dst -= sub and returns the final borrow.
func subInPlace(dst, sub []uint32) uint32 {
	var borrow uint32
	for i := range dst {
		var sv uint32
		if i < len(sub) {
			sv = sub[i]
		} else if borrow == 0 {
			break
		}
		dst[i], borrow = bits.Sub32(dst[i], sv, borrow)
	}
	return borrow
}

// mulAddSmall computes limbs*m + a in place and returns the carry out.
func mulAddSmall(limbs []uint32, m, a uint32) uint32 {
	carry := a
	for i, w := range limbs {
		hi, lo := bits.Mul32(w, m)
		var c uint32
		limbs[i], c = bits.Add32(lo, carry, 0)
		carry = hi + c
	}
	return carry
}

// divSmallInPlace divides limbs by d in place and returns the remainder.
func divSmallInPlace(limbs []uint32, d uint32) uint32 {
	var rem uint32
	for i := len(limbs) - 1; i >= 0; i-- {
		limbs[i], rem = bits.Div32(rem, limbs[i], d)
	}
	return rem
}

// shlLimbs writes src<<s into dst (len(dst) >= len(src), s < 32) and returns
// the bits shifted out of the top limb.
func shlLimbs(dst, src []uint32, s uint) uint32 {
	if s == 0 {
		copy(dst, src)
		return 0
	}
	var carry uint32
	for i, w := range src {
		dst[i] = w<<s | carry
		carry = w >> (32 - s)
	}
	return carry
}

// shrLimbs writes src>>s into dst (len(dst) >= len(src), s < 32).
func shrLimbs(dst, src []uint32, s uint) {
	if s == 0 {
		copy(dst, src)
		return
	}
	for i := range src {
		w := src[i] >> s
		if i+1 < len(src) {
			w |= src[i+1] << (32 - s)
		}
		dst[i] = w
	}
}

func cloneLimbs(limbs []uint32) []uint32 {
	limbs = trimLimbs(limbs)
	if len(limbs) == 0 {
		return nil
	}
	out := make([]uint32, len(limbs))
	copy(out, limbs)
	return out
}
