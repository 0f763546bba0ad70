package bignum

import (
	"errors"
	"math"
	"math/big"
	"math/rand/v2"
	"strings"
	"testing"
)

func toBig(i BigInt) *big.Int {
	out := new(big.Int)
	for k := len(i.Limbs) - 1; k >= 0; k-- {
		out.Lsh(out, 32)
		out.Or(out, big.NewInt(int64(i.Limbs[k])))
	}
	if i.Neg {
		out.Neg(out)
	}
	return out
}

func randInt(r *rand.Rand, maxLimbs int) BigInt {
	n := r.IntN(maxLimbs + 1)
	limbs := make([]uint32, n)
	for k := range limbs {
		switch r.IntN(5) {
		case 0:
			limbs[k] = 0
		case 1:
			limbs[k] = math.MaxUint32
		default:
			limbs[k] = r.Uint32()
		}
	}
	return makeInt(r.IntN(2) == 0, BigUint{Limbs: limbs})
}

func mustParse(t *testing.T, s string) BigInt {
	t.Helper()
	v, err := ParseInt(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestFormatParseRoundTrip(t *testing.T) {
	cases := []string{
		"0", "1", "-1", "999999999", "1000000000", "-1000000000",
		"4294967295", "4294967296", "18446744073709551616",
		"100000000000000000000", "-123456789012345678901234567890123456789",
	}
	for _, s := range cases {
		if got := FormatInt(mustParse(t, s)); got != s {
			t.Fatalf("round trip %q: got %q", s, got)
		}
	}

	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		v := randInt(r, 12)
		s := FormatInt(v)
		if want := toBig(v).String(); s != want {
			t.Fatalf("format mismatch: got %s want %s", s, want)
		}
		back := mustParse(t, s)
		if back.Cmp(v) != 0 {
			t.Fatalf("parse(format(v)) != v for %s", s)
		}
	}
}

func TestParseLiteralForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1_000_000", "1000000"},
		{"0xff", "255"},
		{"0XFF_FF", "65535"},
		{"0b1010", "10"},
		{"0o777", "511"},
		{"-0x10", "-16"},
		{"+42", "42"},
		{"  7  ", "7"},
		{"-0", "0"},
		{"0x1_0000_0000_0000_0000", "18446744073709551616"},
	}
	for _, tt := range tests {
		if got := FormatInt(mustParse(t, tt.in)); got != tt.want {
			t.Fatalf("ParseInt(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "-", "abc", "12a", "0x", "0b102", "1__0", "_1", "1_", "0x_"} {
		if _, err := ParseInt(bad); !errors.Is(err, ErrParse) {
			t.Fatalf("ParseInt(%q): expected ErrParse, got %v", bad, err)
		}
	}
}

func TestAddSubInverse(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 500 {
		a, b := randInt(r, 8), randInt(r, 8)
		sum, err := IntAdd(a, b)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if want := new(big.Int).Add(toBig(a), toBig(b)); toBig(sum).Cmp(want) != 0 {
			t.Fatalf("%s + %s = %s, want %s", FormatInt(a), FormatInt(b), FormatInt(sum), want)
		}
		back, err := IntSub(sum, b)
		if err != nil {
			t.Fatalf("sub: %v", err)
		}
		if back.Cmp(a) != 0 {
			t.Fatalf("(a+b)-b != a for a=%s b=%s", FormatInt(a), FormatInt(b))
		}
		if back.IsZero() && back.Neg {
			t.Fatal("negative zero produced")
		}
	}
}

func TestMulMatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for range 300 {
		a, b := randInt(r, 10), randInt(r, 10)
		got, err := IntMul(a, b)
		if err != nil {
			t.Fatalf("mul: %v", err)
		}
		if want := new(big.Int).Mul(toBig(a), toBig(b)); toBig(got).Cmp(want) != 0 {
			t.Fatalf("%s * %s = %s, want %s", FormatInt(a), FormatInt(b), FormatInt(got), want)
		}
	}
}

func TestDivModIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for range 1000 {
		a, b := randInt(r, 14), randInt(r, 7)
		if b.IsZero() {
			continue
		}
		q, rem, err := IntDivMod(a, b)
		if err != nil {
			t.Fatalf("divmod: %v", err)
		}
		wantQ, wantR := new(big.Int).QuoRem(toBig(a), toBig(b), new(big.Int))
		if toBig(q).Cmp(wantQ) != 0 || toBig(rem).Cmp(wantR) != 0 {
			t.Fatalf("%s / %s: got q=%s r=%s, want q=%s r=%s",
				FormatInt(a), FormatInt(b), FormatInt(q), FormatInt(rem), wantQ, wantR)
		}
		if cmpLimbs(rem.Limbs, b.Limbs) >= 0 {
			t.Fatalf("|r| >= |b| for %s / %s", FormatInt(a), FormatInt(b))
		}
		prod, _ := IntMul(q, b)
		recon, _ := IntAdd(prod, rem)
		if recon.Cmp(a) != 0 {
			t.Fatalf("q*b + r != a for %s / %s", FormatInt(a), FormatInt(b))
		}
	}
}

func TestDivModCorrectionPath(t *testing.T) {
	// Divisors whose second limb forces the add-back step.
	a := BigInt{Limbs: []uint32{0, 0, 0x80000000, 0x7fffffff}}
	b := BigInt{Limbs: []uint32{1, 0, 0x80000000}}
	q, r, err := IntDivMod(a, b)
	if err != nil {
		t.Fatalf("divmod: %v", err)
	}
	wantQ, wantR := new(big.Int).QuoRem(toBig(a), toBig(b), new(big.Int))
	if toBig(q).Cmp(wantQ) != 0 || toBig(r).Cmp(wantR) != 0 {
		t.Fatalf("got q=%s r=%s, want q=%s r=%s", FormatInt(q), FormatInt(r), wantQ, wantR)
	}

	if _, _, err := IntDivMod(a, BigInt{}); !errors.Is(err, ErrDivByZero) {
		t.Fatalf("expected ErrDivByZero, got %v", err)
	}
}

func TestDivModEuclid(t *testing.T) {
	tests := []struct{ a, b, q, r int64 }{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -3, 1},
		{-7, -2, 4, 1},
		{-8, 2, -4, 0},
	}
	for _, tt := range tests {
		q, r, err := IntDivModEuclid(IntFromInt64(tt.a), IntFromInt64(tt.b))
		if err != nil {
			t.Fatalf("euclid: %v", err)
		}
		gq, _ := q.Int64()
		gr, _ := r.Int64()
		if gq != tt.q || gr != tt.r {
			t.Fatalf("euclid(%d, %d) = (%d, %d), want (%d, %d)", tt.a, tt.b, gq, gr, tt.q, tt.r)
		}
	}
}

func TestInt64Bounds(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 1 << 40, -(1 << 40)} {
		got, ok := IntFromInt64(v).Int64()
		if !ok || got != v {
			t.Fatalf("Int64 round trip %d: got %d ok=%v", v, got, ok)
		}
	}
	over := mustParse(t, "9223372036854775808")
	if _, ok := over.Int64(); ok {
		t.Fatal("2^63 must not fit int64")
	}
	if v, ok := over.Negated().Int64(); !ok || v != math.MinInt64 {
		t.Fatalf("-2^63 should fit, got %d ok=%v", v, ok)
	}
}

func TestPowAndShifts(t *testing.T) {
	p, err := IntPow(IntFromInt64(-3), 41)
	if err != nil {
		t.Fatalf("pow: %v", err)
	}
	if want := new(big.Int).Exp(big.NewInt(-3), big.NewInt(41), nil); toBig(p).Cmp(want) != 0 {
		t.Fatalf("(-3)^41 = %s, want %s", FormatInt(p), want)
	}
	two, _ := IntPow(IntFromInt64(2), 100)
	if FormatInt(two) != "1267650600228229401496703205376" {
		t.Fatalf("2^100 = %s", FormatInt(two))
	}
	if one, _ := IntPow(IntFromInt64(12345), 0); FormatInt(one) != "1" {
		t.Fatalf("x^0 = %s", FormatInt(one))
	}
	if _, err := IntPow(IntFromInt64(3), 1<<40); !errors.Is(err, ErrMaxLimbs) {
		t.Fatalf("expected ErrMaxLimbs, got %v", err)
	}

	r := rand.New(rand.NewPCG(9, 10))
	for range 200 {
		a := randInt(r, 5)
		n := r.IntN(100)
		shl, _ := IntShl(a, n)
		if want := new(big.Int).Lsh(toBig(a), uint(n)); toBig(shl).Cmp(want) != 0 {
			t.Fatalf("%s << %d = %s, want %s", FormatInt(a), n, FormatInt(shl), want)
		}
		shr, _ := IntShr(a, n)
		if want := new(big.Int).Rsh(toBig(a), uint(n)); toBig(shr).Cmp(want) != 0 {
			t.Fatalf("%s >> %d = %s, want %s", FormatInt(a), n, FormatInt(shr), want)
		}
	}
	if _, err := IntShl(IntFromInt64(1), -1); !errors.Is(err, ErrNegativeShift) {
		t.Fatalf("expected ErrNegativeShift, got %v", err)
	}
}

func TestBitwiseMatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	ops := []struct {
		name string
		fn   func(a, b BigInt) (BigInt, error)
		ref  func(z, x, y *big.Int) *big.Int
	}{
		{"and", IntAnd, (*big.Int).And},
		{"or", IntOr, (*big.Int).Or},
		{"xor", IntXor, (*big.Int).Xor},
	}
	for range 200 {
		a, b := randInt(r, 4), randInt(r, 4)
		for _, op := range ops {
			got, err := op.fn(a, b)
			if err != nil {
				t.Fatalf("%s: %v", op.name, err)
			}
			if want := op.ref(new(big.Int), toBig(a), toBig(b)); toBig(got).Cmp(want) != 0 {
				t.Fatalf("%s(%s, %s) = %s, want %s", op.name, FormatInt(a), FormatInt(b), FormatInt(got), want)
			}
		}
		not, _ := IntNot(a)
		if want := new(big.Int).Not(toBig(a)); toBig(not).Cmp(want) != 0 {
			t.Fatalf("not(%s) = %s, want %s", FormatInt(a), FormatInt(not), want)
		}
	}
}

func TestFormatHexAndDigits(t *testing.T) {
	v := mustParse(t, "0x1_00000000_0000000f")
	if got := FormatHex(v); got != "0x1000000000000000f" {
		t.Fatalf("FormatHex = %s", got)
	}
	if got := FormatHex(v.Negated()); got != "-0x1000000000000000f" {
		t.Fatalf("FormatHex(neg) = %s", got)
	}
	if got := FormatHex(BigInt{}); got != "0x0" {
		t.Fatalf("FormatHex(0) = %s", got)
	}
	if DecimalDigits(BigInt{}) != 1 || DecimalDigits(mustParse(t, "-"+strings.Repeat("9", 40))) != 40 {
		t.Fatal("DecimalDigits mismatch")
	}
}

func TestFloat64Rounding(t *testing.T) {
	r := rand.New(rand.NewPCG(13, 14))
	for range 300 {
		v := randInt(r, 40)
		want, _ := new(big.Float).SetInt(toBig(v)).Float64()
		if got := v.Float64(); got != want {
			t.Fatalf("Float64(%s) = %g, want %g", FormatInt(v), got, want)
		}
	}
	huge, _ := IntShl(IntFromInt64(1), 2000)
	if !math.IsInf(huge.Float64(), 1) || !math.IsInf(huge.Negated().Float64(), -1) {
		t.Fatal("expected infinities for 2^2000")
	}
}
