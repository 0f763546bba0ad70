package bignum

// BigInt represents a big signed integer in sign-magnitude form.
type BigInt struct {
	Neg bool
	// Limbs are base-2^32 little-endian magnitude (Limbs[0] is least significant).
	//
	// Canonical zero is represented as Neg=false and nil/empty Limbs.
	Limbs []uint32
}

// IntFromInt64 creates a BigInt from an int64.
func IntFromInt64(v int64) BigInt {
	if v >= 0 {
		return BigInt{Limbs: UintFromUint64(uint64(v)).Limbs}
	}
	// -(v+1)+1 avoids overflow at math.MinInt64.
	mag := uint64(-(v + 1)) + 1 //nolint:gosec // G115: non-negative.
	return BigInt{Neg: true, Limbs: UintFromUint64(mag).Limbs}
}

// IntFromUint64 creates a BigInt from a uint64.
func IntFromUint64(v uint64) BigInt {
	return BigInt{Limbs: UintFromUint64(v).Limbs}
}

func makeInt(neg bool, mag BigUint) BigInt {
	limbs := trimLimbs(mag.Limbs)
	if len(limbs) == 0 {
		return BigInt{}
	}
	return BigInt{Neg: neg, Limbs: limbs}
}

// IsZero reports whether the integer is zero.
func (i BigInt) IsZero() bool {
	return len(trimLimbs(i.Limbs)) == 0
}

// Sign returns -1, 0 or 1.
func (i BigInt) Sign() int {
	switch {
	case i.IsZero():
		return 0
	case i.Neg:
		return -1
	default:
		return 1
	}
}

// Abs returns the magnitude.
func (i BigInt) Abs() BigUint {
	return BigUint{Limbs: trimLimbs(i.Limbs)}
}

// Negated returns -i.
func (i BigInt) Negated() BigInt {
	return makeInt(!i.Neg, i.Abs())
}

// Cmp compares two BigInt values: sign first, then magnitude.
func (i BigInt) Cmp(j BigInt) int {
	si, sj := i.Sign(), j.Sign()
	if si != sj {
		if si < sj {
			return -1
		}
		return 1
	}
	c := cmpLimbs(i.Limbs, j.Limbs)
	if si < 0 {
		return -c
	}
	return c
}

// Int64 converts BigInt to int64 if possible.
func (i BigInt) Int64() (int64, bool) {
	mag, ok := i.Abs().Uint64()
	if !ok {
		return 0, false
	}
	const limit = uint64(1) << 63
	switch {
	case !i.Neg && mag < limit:
		return int64(mag), true
	case i.Neg && mag < limit:
		return -int64(mag), true
	case i.Neg && mag == limit:
		return -1 << 63, true
	default:
		return 0, false
	}
}

// IntAdd adds two BigInt values. Mixed signs subtract the smaller magnitude
// from the larger one.
func IntAdd(a, b BigInt) (BigInt, error) {
	aa, ba := a.Abs(), b.Abs()
	if aa.IsZero() {
		return makeInt(b.Neg, ba), nil
	}
	if a.Neg == b.Neg {
		sum, err := UintAdd(aa, ba)
		if err != nil {
			return BigInt{}, err
		}
		return makeInt(a.Neg, sum), nil
	}
	switch cmpLimbs(aa.Limbs, ba.Limbs) {
	case 0:
		return BigInt{}, nil
	case 1:
		diff, err := UintSub(aa, ba)
		return makeInt(a.Neg, diff), err
	default:
		diff, err := UintSub(ba, aa)
		return makeInt(b.Neg, diff), err
	}
}

// IntSub subtracts two BigInt values.
func IntSub(a, b BigInt) (BigInt, error) {
	return IntAdd(a, b.Negated())
}

// IntMul multiplies two BigInt values.
func IntMul(a, b BigInt) (BigInt, error) {
	prod, err := UintMul(a.Abs(), b.Abs())
	if err != nil {
		return BigInt{}, err
	}
	return makeInt(a.Neg != b.Neg, prod), nil
}

// IntDivMod performs truncated division: q rounds toward zero and r takes
// the sign of a, so a == q*b + r and |r| < |b|.
func IntDivMod(a, b BigInt) (q, r BigInt, err error) {
	qMag, rMag, err := UintDivMod(a.Abs(), b.Abs())
	if err != nil {
		return BigInt{}, BigInt{}, err
	}
	return makeInt(a.Neg != b.Neg, qMag), makeInt(a.Neg, rMag), nil
}

// IntDivModEuclid performs Euclidean division: 0 <= r < |b|.
func IntDivModEuclid(a, b BigInt) (q, r BigInt, err error) {
	q, r, err = IntDivMod(a, b)
	if err != nil || !r.Neg {
		return q, r, err
	}
	one := IntFromInt64(1)
	if b.Neg {
		q, err = IntAdd(q, one)
		if err != nil {
			return BigInt{}, BigInt{}, err
		}
		r, err = IntSub(r, b)
	} else {
		q, err = IntSub(q, one)
		if err != nil {
			return BigInt{}, BigInt{}, err
		}
		r, err = IntAdd(r, b)
	}
	if err != nil {
		return BigInt{}, BigInt{}, err
	}
	return q, r, nil
}

// IntPow raises a to a non-negative power.
func IntPow(a BigInt, exp uint64) (BigInt, error) {
	mag, err := UintPow(a.Abs(), exp)
	if err != nil {
		return BigInt{}, err
	}
	return makeInt(a.Neg && exp&1 == 1, mag), nil
}

// IntShl returns a << n, preserving the sign.
func IntShl(a BigInt, n int) (BigInt, error) {
	mag, err := UintShl(a.Abs(), n)
	if err != nil {
		return BigInt{}, err
	}
	return makeInt(a.Neg, mag), nil
}

// IntShr returns a >> n with arithmetic (floor) semantics, so negative values
// round toward negative infinity.
func IntShr(a BigInt, n int) (BigInt, error) {
	if n < 0 {
		return BigInt{}, ErrNegativeShift
	}
	if !a.Neg {
		mag, err := UintShr(a.Abs(), n)
		return makeInt(false, mag), err
	}
	// -((|a|-1) >> n) - 1
	m1, err := UintSub(a.Abs(), UintFromUint64(1))
	if err != nil {
		return BigInt{}, err
	}
	shifted, err := UintShr(m1, n)
	if err != nil {
		return BigInt{}, err
	}
	mag, err := UintAdd(shifted, UintFromUint64(1))
	if err != nil {
		return BigInt{}, err
	}
	return makeInt(true, mag), nil
}
