package bignum

import "math"

// UintDivMod divides a by b, returning quotient and remainder with r < b.
// Single-limb divisors take a short-division path; longer divisors use
// normalized long division (Knuth, TAOCP vol. 2, 4.3.1, algorithm D).
func UintDivMod(a, b BigUint) (q, r BigUint, err error) {
	al := trimLimbs(a.Limbs)
	bl := trimLimbs(b.Limbs)
	switch {
	case len(bl) == 0:
		return BigUint{}, BigUint{}, ErrDivByZero
	case cmpLimbs(al, bl) < 0:
		return BigUint{}, BigUint{Limbs: cloneLimbs(al)}, nil
	case len(bl) == 1:
		q, rem, err := UintDivModSmall(BigUint{Limbs: al}, bl[0])
		if err != nil {
			return BigUint{}, BigUint{}, err
		}
		return q, UintFromUint64(uint64(rem)), nil
	}
	ql, rl := divLimbs(al, bl)
	return BigUint{Limbs: ql}, BigUint{Limbs: rl}, nil
}

// divLimbs requires len(v) >= 2 and u >= v, both trimmed.
func divLimbs(u, v []uint32) (quo, rem []uint32) {
	n := len(v)
	m := len(u) - n

	// Normalize so the divisor's top limb has its high bit set; the
	// quotient digit estimate is then off by at most two.
	s := uint(32 - bitLenLimbs(v[n-1:]))
	vn := make([]uint32, n)
	shlLimbs(vn, v, s)
	un := make([]uint32, len(u)+1)
	un[len(u)] = shlLimbs(un, u, s)

	vTop := uint64(vn[n-1])
	vNext := uint64(vn[n-2])
	quo = make([]uint32, m+1)

	for j := m; j >= 0; j-- {
		num := uint64(un[j+n])<<32 | uint64(un[j+n-1])
		qhat := num / vTop
		rhat := num % vTop
		for qhat > math.MaxUint32 || qhat*vNext > rhat<<32|uint64(un[j+n-2]) {
			qhat--
			rhat += vTop
			if rhat > math.MaxUint32 {
				break
			}
		}

		// un[j:j+n+1] -= qhat * vn
		var carry, borrow uint64
		for i := range n {
			p := qhat*uint64(vn[i]) + carry
			carry = p >> 32
			t := uint64(un[i+j]) - p&math.MaxUint32 - borrow
			un[i+j] = uint32(t) //nolint:gosec // G115: low limb.
			borrow = t >> 63
		}
		t := uint64(un[j+n]) - carry - borrow
		un[j+n] = uint32(t) //nolint:gosec // G115: low limb.

		if t>>63 != 0 {
			// Estimate was one too large: add the divisor back.
			qhat--
			var c uint64
			for i := range n {
				sum := uint64(un[i+j]) + uint64(vn[i]) + c
				un[i+j] = uint32(sum) //nolint:gosec // G115: low limb.
				c = sum >> 32
			}
			un[j+n] += uint32(c) //nolint:gosec // G115: carry is 0 or 1.
		}
		quo[j] = uint32(qhat) //nolint:gosec // G115: qhat < 2^32 after correction.
	}

	rem = make([]uint32, n)
	shrLimbs(rem, un[:n], s)
	return trimLimbs(quo), trimLimbs(rem)
}
