package bignum

import "math"

// Float64 returns the double nearest to i, rounding half to even.
// Magnitudes beyond the float64 range become ±Inf.
func (i BigInt) Float64() float64 {
	f := i.Abs().Float64()
	if i.Neg {
		return -f
	}
	return f
}

// Float64 returns the double nearest to u, rounding half to even.
func (u BigUint) Float64() float64 {
	n := u.BitLen()
	if n <= 64 {
		v, _ := u.Uint64()
		return float64(v)
	}
	// Keep the top 64 bits and fold everything below into a sticky bit;
	// 64 bits leave enough guard bits for the 53-bit mantissa to round once.
	top, _ := UintShr(u, n-64)
	v, _ := top.Uint64()
	if u.TrailingZeros() < n-64 {
		v |= 1
	}
	return math.Ldexp(float64(v), n-64)
}
