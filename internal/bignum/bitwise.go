package bignum

// Bitwise operations use infinite two's complement semantics: a negative
// value behaves as if it carried an unbounded run of leading one bits.

// IntAnd returns a & b.
func IntAnd(a, b BigInt) (BigInt, error) {
	return intBitOp(a, b, func(x, y uint32) uint32 { return x & y })
}

// IntOr returns a | b.
func IntOr(a, b BigInt) (BigInt, error) {
	return intBitOp(a, b, func(x, y uint32) uint32 { return x | y })
}

// IntXor returns a ^ b.
func IntXor(a, b BigInt) (BigInt, error) {
	return intBitOp(a, b, func(x, y uint32) uint32 { return x ^ y })
}

// IntNot returns ^a, which equals -a-1.
func IntNot(a BigInt) (BigInt, error) {
	return IntSub(a.Negated(), IntFromInt64(1))
}

func intBitOp(a, b BigInt, op func(x, y uint32) uint32) (BigInt, error) {
	// One extra limb holds the sign of both operands.
	n := max(len(trimLimbs(a.Limbs)), len(trimLimbs(b.Limbs))) + 1
	if n > MaxLimbs {
		return BigInt{}, ErrMaxLimbs
	}
	ta := twosComplement(a, n)
	tb := twosComplement(b, n)
	out := make([]uint32, n)
	for i := range out {
		out[i] = op(ta[i], tb[i])
	}
	if out[n-1]>>31 == 0 {
		return makeInt(false, BigUint{Limbs: out}), nil
	}
	negateInPlace(out)
	return makeInt(true, BigUint{Limbs: out}), nil
}

// twosComplement widens i to n limbs of two's complement.
func twosComplement(i BigInt, n int) []uint32 {
	out := make([]uint32, n)
	copy(out, trimLimbs(i.Limbs))
	if i.Neg {
		negateInPlace(out)
	}
	return out
}

// negateInPlace replaces limbs with their two's complement negation.
func negateInPlace(limbs []uint32) {
	carry := uint32(1)
	for k := range limbs {
		limbs[k] = ^limbs[k] + carry
		if limbs[k] != 0 {
			carry = 0
		}
	}
}
