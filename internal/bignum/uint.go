// Package bignum implements arbitrary-precision integer arithmetic on
// little-endian base-2^32 limbs. Values are plain Go slices; the integer
// package stores them in heap blocks.
package bignum

import (
	"errors"
	"math/bits"
)

// MaxLimbs is the maximum number of limbs allowed.
const MaxLimbs = 1_000_000

var (
	// ErrMaxLimbs indicates the numeric size limit was exceeded.
	ErrMaxLimbs = errors.New("numeric size limit exceeded")
	// ErrDivByZero indicates an attempt to divide by zero.
	ErrDivByZero = errors.New("division by zero")
	// ErrUnderflow indicates an unsigned subtraction went below zero.
	ErrUnderflow = errors.New("unsigned underflow")
	// ErrNegativeShift indicates a shift by a negative amount.
	ErrNegativeShift = errors.New("negative shift")
)

// BigUint represents a big unsigned integer.
type BigUint struct {
	// Limbs are base-2^32 little-endian (Limbs[0] is least significant).
	//
	// Canonical zero is represented as nil/empty slice.
	Limbs []uint32
}

// UintFromUint64 creates a BigUint from a uint64.
func UintFromUint64(v uint64) BigUint {
	if v == 0 {
		return BigUint{}
	}
	lo, hi := uint32(v), uint32(v>>32) //nolint:gosec // G115: limb split.
	if hi == 0 {
		return BigUint{Limbs: []uint32{lo}}
	}
	return BigUint{Limbs: []uint32{lo, hi}}
}

// IsZero reports whether the unsigned integer is zero.
func (u BigUint) IsZero() bool {
	return len(trimLimbs(u.Limbs)) == 0
}

// IsOdd reports whether the unsigned integer is odd.
func (u BigUint) IsOdd() bool {
	return len(u.Limbs) > 0 && u.Limbs[0]&1 == 1
}

// BitLen returns the number of significant bits.
func (u BigUint) BitLen() int {
	return bitLenLimbs(u.Limbs)
}

// TrailingZeros returns the number of trailing zero bits, 0 for zero.
func (u BigUint) TrailingZeros() int {
	n := 0
	for _, limb := range trimLimbs(u.Limbs) {
		if limb != 0 {
			return n + bits.TrailingZeros32(limb)
		}
		n += 32
	}
	return 0
}

// Cmp compares two BigUint values.
func (u BigUint) Cmp(v BigUint) int {
	return cmpLimbs(u.Limbs, v.Limbs)
}

// Uint64 converts BigUint to uint64 if possible.
func (u BigUint) Uint64() (uint64, bool) {
	limbs := trimLimbs(u.Limbs)
	switch len(limbs) {
	case 0:
		return 0, true
	case 1:
		return uint64(limbs[0]), true
	case 2:
		return uint64(limbs[0]) | uint64(limbs[1])<<32, true
	default:
		return 0, false
	}
}

func checkLen(limbs []uint32) (BigUint, error) {
	if len(limbs) > MaxLimbs {
		return BigUint{}, ErrMaxLimbs
	}
	return BigUint{Limbs: limbs}, nil
}

// UintAdd adds two BigUint values.
func UintAdd(a, b BigUint) (BigUint, error) {
	return checkLen(addLimbs(trimLimbs(a.Limbs), trimLimbs(b.Limbs)))
}

// UintSub returns a-b, or ErrUnderflow when b > a.
func UintSub(a, b BigUint) (BigUint, error) {
	if cmpLimbs(a.Limbs, b.Limbs) < 0 {
		return BigUint{}, ErrUnderflow
	}
	out := cloneLimbs(a.Limbs)
	subInPlace(out, trimLimbs(b.Limbs))
	return BigUint{Limbs: trimLimbs(out)}, nil
}

// UintMul multiplies two BigUint values with the schoolbook method.
func UintMul(a, b BigUint) (BigUint, error) {
	al := trimLimbs(a.Limbs)
	bl := trimLimbs(b.Limbs)
	if len(al) == 0 || len(bl) == 0 {
		return BigUint{}, nil
	}
	if len(al)+len(bl) > MaxLimbs+1 {
		return BigUint{}, ErrMaxLimbs
	}
	if len(bl) == 1 {
		return UintMulSmall(BigUint{Limbs: al}, bl[0])
	}

	out := make([]uint32, len(al)+len(bl))
	for i, ai := range al {
		if ai == 0 {
			continue
		}
		var carry uint64
		for j, bj := range bl {
			acc := uint64(out[i+j]) + uint64(ai)*uint64(bj) + carry
			out[i+j] = uint32(acc) //nolint:gosec // G115: low limb.
			carry = acc >> 32
		}
		out[i+len(bl)] = uint32(carry) //nolint:gosec // G115: carry fits one limb.
	}
	return checkLen(trimLimbs(out))
}

// UintMulSmall multiplies a BigUint by a uint32.
func UintMulSmall(u BigUint, m uint32) (BigUint, error) {
	limbs := trimLimbs(u.Limbs)
	if m == 0 || len(limbs) == 0 {
		return BigUint{}, nil
	}
	out := make([]uint32, len(limbs)+1)
	copy(out, limbs)
	out[len(limbs)] = mulAddSmall(out[:len(limbs)], m, 0)
	return checkLen(trimLimbs(out))
}

// UintDivModSmall divides a BigUint by a uint32.
func UintDivModSmall(u BigUint, d uint32) (q BigUint, r uint32, err error) {
	if d == 0 {
		return BigUint{}, 0, ErrDivByZero
	}
	out := cloneLimbs(u.Limbs)
	r = divSmallInPlace(out, d)
	return BigUint{Limbs: trimLimbs(out)}, r, nil
}

// UintShl performs a left bit shift on a BigUint.
func UintShl(u BigUint, n int) (BigUint, error) {
	if n < 0 {
		return BigUint{}, ErrNegativeShift
	}
	limbs := trimLimbs(u.Limbs)
	if len(limbs) == 0 || n == 0 {
		return BigUint{Limbs: limbs}, nil
	}
	words := n / 32
	if len(limbs)+words > MaxLimbs {
		return BigUint{}, ErrMaxLimbs
	}
	out := make([]uint32, len(limbs)+words+1)
	out[len(limbs)+words] = shlLimbs(out[words:], limbs, uint(n%32))
	return checkLen(trimLimbs(out))
}

// UintShr performs a right bit shift on a BigUint.
func UintShr(u BigUint, n int) (BigUint, error) {
	if n < 0 {
		return BigUint{}, ErrNegativeShift
	}
	limbs := trimLimbs(u.Limbs)
	words := n / 32
	if words >= len(limbs) {
		return BigUint{}, nil
	}
	out := make([]uint32, len(limbs)-words)
	shrLimbs(out, limbs[words:], uint(n%32))
	return BigUint{Limbs: trimLimbs(out)}, nil
}

// UintPow raises base to exp by repeated squaring.
func UintPow(base BigUint, exp uint64) (BigUint, error) {
	result := UintFromUint64(1)
	cur := BigUint{Limbs: trimLimbs(base.Limbs)}
	if exp == 0 {
		return result, nil
	}
	if cur.IsZero() {
		return BigUint{}, nil
	}
	// Result bit length is at least (bitlen-1)*exp.
	hi, minBits := bits.Mul64(uint64(cur.BitLen()-1), exp)
	if hi != 0 || minBits > MaxLimbs*32 {
		return BigUint{}, ErrMaxLimbs
	}
	if cur.TrailingZeros() == cur.BitLen()-1 {
		return UintShl(result, int(minBits)) //nolint:gosec // G115: bounded by MaxLimbs*32.
	}
	var err error
	for {
		if exp&1 == 1 {
			if result, err = UintMul(result, cur); err != nil {
				return BigUint{}, err
			}
		}
		exp >>= 1
		if exp == 0 {
			return result, nil
		}
		if cur, err = UintMul(cur, cur); err != nil {
			return BigUint{}, err
		}
	}
}
