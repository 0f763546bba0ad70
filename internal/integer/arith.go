// Package integer implements arbitrary-precision integer arithmetic on Boxes.
//
// Integers in the immediate range are never allocated. Every entry point
// first tries an overflow-checked fast path on immediates and falls back to
// limb arithmetic otherwise; every result is canonicalized, so a value that
// fits the immediate range is always returned as an immediate.
//
// Operands are borrowed: the caller keeps its references. Results are owned
// by the caller.
package integer

import (
	"fmt"

	"boxrt/internal/bignum"
	"boxrt/internal/bits"
	"boxrt/internal/box"
	"boxrt/internal/heap"
)

func bothImmediate(a, b box.Box) bool {
	return a.IsImmediate() && b.IsImmediate()
}

// result canonicalizes the outcome of a limb operation.
func result(h *heap.Heap, op string, v bignum.BigInt, err error) (box.Box, error) {
	if err != nil {
		return box.Invalid, fmt.Errorf("integer %s: %w", op, err)
	}
	return FromBig(h, v)
}

// Add returns a+b.
func Add(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		// Two 63-bit payloads cannot overflow int64.
		if s := a.Int() + b.Int(); box.FitsImmediate(s) {
			return box.FromInt(s), nil
		}
	}
	v, err := bignum.IntAdd(Big(h, a), Big(h, b))
	return result(h, "add", v, err)
}

// Sub returns a-b.
func Sub(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		if d := a.Int() - b.Int(); box.FitsImmediate(d) {
			return box.FromInt(d), nil
		}
	}
	v, err := bignum.IntSub(Big(h, a), Big(h, b))
	return result(h, "sub", v, err)
}

// Mul returns a*b.
func Mul(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		if p, overflow := bits.MulOverflow64(a.Int(), b.Int()); !overflow && box.FitsImmediate(p) {
			return box.FromInt(p), nil
		}
	}
	v, err := bignum.IntMul(Big(h, a), Big(h, b))
	return result(h, "mul", v, err)
}

// Div returns a/b truncated toward zero.
func Div(h *heap.Heap, a, b box.Box) (box.Box, error) {
	q, r, err := DivMod(h, a, b)
	if err != nil {
		return box.Invalid, err
	}
	h.Drop(r)
	return q, nil
}

// Mod returns the remainder of a/b, which takes the sign of a.
func Mod(h *heap.Heap, a, b box.Box) (box.Box, error) {
	q, r, err := DivMod(h, a, b)
	if err != nil {
		return box.Invalid, err
	}
	h.Drop(q)
	return r, nil
}

// DivMod returns the truncated quotient and remainder: a == q*b + r with
// |r| < |b|. Division by zero returns bignum.ErrDivByZero.
func DivMod(h *heap.Heap, a, b box.Box) (q, r box.Box, err error) {
	if bothImmediate(a, b) {
		x, y := a.Int(), b.Int()
		if y == 0 {
			return box.Invalid, box.Invalid, fmt.Errorf("integer divmod: %w", bignum.ErrDivByZero)
		}
		// |x/y| <= |x| and |x%y| < |y|, so both fit.
		return box.FromInt(x / y), box.FromInt(x % y), nil
	}
	bq, br, err := bignum.IntDivMod(Big(h, a), Big(h, b))
	return pair(h, "divmod", bq, br, err)
}

// DivModEuclid returns the Euclidean quotient and remainder: 0 <= r < |b|.
func DivModEuclid(h *heap.Heap, a, b box.Box) (q, r box.Box, err error) {
	bq, br, err := bignum.IntDivModEuclid(Big(h, a), Big(h, b))
	return pair(h, "divmod", bq, br, err)
}

func pair(h *heap.Heap, op string, bq, br bignum.BigInt, err error) (q, r box.Box, _ error) {
	if err != nil {
		return box.Invalid, box.Invalid, fmt.Errorf("integer %s: %w", op, err)
	}
	if q, err = FromBig(h, bq); err != nil {
		return box.Invalid, box.Invalid, err
	}
	if r, err = FromBig(h, br); err != nil {
		h.Drop(q)
		return box.Invalid, box.Invalid, err
	}
	return q, r, nil
}

// Cmp compares a and b: sign first, then magnitude. It returns -1, 0 or 1.
func Cmp(h *heap.Heap, a, b box.Box) int {
	if bothImmediate(a, b) {
		x, y := a.Int(), b.Int()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	return Big(h, a).Cmp(Big(h, b))
}

// Equal reports whether a and b hold the same integer.
func Equal(h *heap.Heap, a, b box.Box) bool {
	// Canonical form makes an immediate never equal to a boxed value.
	if a.IsImmediate() != b.IsImmediate() {
		return false
	}
	return a == b || Cmp(h, a, b) == 0
}

// Neg returns -a.
func Neg(h *heap.Heap, a box.Box) (box.Box, error) {
	if a.IsImmediate() {
		// The immediate range is symmetric.
		return box.FromInt(-a.Int()), nil
	}
	return FromBig(h, Big(h, a).Negated())
}

// Abs returns |a|.
func Abs(h *heap.Heap, a box.Box) (box.Box, error) {
	if Sign(h, a) < 0 {
		return Neg(h, a)
	}
	return h.Dup(a), nil
}

// Sign returns -1, 0 or 1.
func Sign(h *heap.Heap, a box.Box) int {
	if a.IsImmediate() {
		switch n := a.Int(); {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	}
	return Big(h, a).Sign()
}

// IsEven reports whether a is divisible by two.
func IsEven(h *heap.Heap, a box.Box) bool {
	if a.IsImmediate() {
		return a.Int()&1 == 0
	}
	return !Big(h, a).Abs().IsOdd()
}

// Pow returns a raised to exp.
func Pow(h *heap.Heap, a box.Box, exp uint64) (box.Box, error) {
	if a.IsImmediate() {
		if n, ok := powImmediate(a.Int(), exp); ok {
			return box.FromInt(n), nil
		}
	}
	v, err := bignum.IntPow(Big(h, a), exp)
	return result(h, "pow", v, err)
}

func powImmediate(base int64, exp uint64) (int64, bool) {
	out := int64(1)
	for exp > 0 {
		var overflow bool
		if exp&1 == 1 {
			if out, overflow = bits.MulOverflow64(out, base); overflow || !box.FitsImmediate(out) {
				return 0, false
			}
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		if base, overflow = bits.MulOverflow64(base, base); overflow || !box.FitsImmediate(base) {
			return 0, false
		}
	}
	return out, true
}

// Shl returns a << n.
func Shl(h *heap.Heap, a box.Box, n int) (box.Box, error) {
	if a.IsImmediate() && n >= 0 && n < 63 {
		x := a.Int()
		if s := x << n; s>>n == x && box.FitsImmediate(s) {
			return box.FromInt(s), nil
		}
	}
	v, err := bignum.IntShl(Big(h, a), n)
	return result(h, "shl", v, err)
}

// Shr returns a >> n, rounding toward negative infinity.
func Shr(h *heap.Heap, a box.Box, n int) (box.Box, error) {
	if a.IsImmediate() && n >= 0 {
		return box.FromInt(a.Int() >> min(n, 63)), nil
	}
	v, err := bignum.IntShr(Big(h, a), n)
	return result(h, "shr", v, err)
}

// And returns a & b in two's complement.
func And(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		if x := a.Int() & b.Int(); box.FitsImmediate(x) {
			return box.FromInt(x), nil
		}
	}
	v, err := bignum.IntAnd(Big(h, a), Big(h, b))
	return result(h, "and", v, err)
}

// Or returns a | b in two's complement.
func Or(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		if x := a.Int() | b.Int(); box.FitsImmediate(x) {
			return box.FromInt(x), nil
		}
	}
	v, err := bignum.IntOr(Big(h, a), Big(h, b))
	return result(h, "or", v, err)
}

// Xor returns a ^ b in two's complement.
func Xor(h *heap.Heap, a, b box.Box) (box.Box, error) {
	if bothImmediate(a, b) {
		if x := a.Int() ^ b.Int(); box.FitsImmediate(x) {
			return box.FromInt(x), nil
		}
	}
	v, err := bignum.IntXor(Big(h, a), Big(h, b))
	return result(h, "xor", v, err)
}

// Not returns ^a, that is -a-1.
func Not(h *heap.Heap, a box.Box) (box.Box, error) {
	if a.IsImmediate() {
		if x := ^a.Int(); box.FitsImmediate(x) {
			return box.FromInt(x), nil
		}
	}
	v, err := bignum.IntNot(Big(h, a))
	return result(h, "not", v, err)
}

// Int64 returns a as an int64 when it fits.
func Int64(h *heap.Heap, a box.Box) (int64, bool) {
	if a.IsImmediate() {
		return a.Int(), true
	}
	return Big(h, a).Int64()
}

// Float64 returns the double nearest to a.
func Float64(h *heap.Heap, a box.Box) float64 {
	if a.IsImmediate() {
		return float64(a.Int())
	}
	return Big(h, a).Float64()
}
