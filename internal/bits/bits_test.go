package bits

import (
	"math"
	"testing"
)

func TestCountsAndRotates(t *testing.T) {
	if Clz32(1) != 31 || Clz64(1) != 63 || Clz64(0) != 64 {
		t.Fatal("clz mismatch")
	}
	if Ctz32(8) != 3 || Ctz64(1<<40) != 40 {
		t.Fatal("ctz mismatch")
	}
	if Popcount32(0xF0F0) != 8 || Popcount64(math.MaxUint64) != 64 {
		t.Fatal("popcount mismatch")
	}
	if Rotl32(0x80000001, 1) != 0x3 || Rotr32(0x3, 1) != 0x80000001 {
		t.Fatal("rotate32 mismatch")
	}
	if Rotl64(1, 65) != 2 || Rotr64(1, 1) != 1<<63 {
		t.Fatal("rotate64 mismatch")
	}
	if Parity32(7) != 1 || Parity64(3) != 0 {
		t.Fatal("parity mismatch")
	}
	if Bswap32(0x01020304) != 0x04030201 || Bswap64(0x0102030405060708) != 0x0807060504030201 {
		t.Fatal("bswap mismatch")
	}
	if !IsPowerOfTwo(1<<20) || IsPowerOfTwo(0) || IsPowerOfTwo(6) {
		t.Fatal("power of two mismatch")
	}
	if BitLen64(255) != 8 {
		t.Fatal("bitlen mismatch")
	}
	if MulHi64(1<<63, 4) != 2 {
		t.Fatal("mulhi mismatch")
	}
}

func TestOverflowChecks(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int64, int64) (int64, bool)
		a, b int64
		want int64
		ovf  bool
	}{
		{"add", AddOverflow64, 1, 2, 3, false},
		{"add max", AddOverflow64, math.MaxInt64, 1, math.MinInt64, true},
		{"add min", AddOverflow64, math.MinInt64, -1, math.MaxInt64, true},
		{"sub", SubOverflow64, 1, 2, -1, false},
		{"sub min", SubOverflow64, math.MinInt64, 1, math.MaxInt64, true},
		{"mul", MulOverflow64, -3, 7, -21, false},
		{"mul big", MulOverflow64, 1 << 32, 1 << 32, 0, true},
		{"mul min", MulOverflow64, math.MinInt64, -1, math.MinInt64, true},
		{"mul zero", MulOverflow64, 0, math.MinInt64, 0, false},
	}
	for _, tt := range tests {
		got, ovf := tt.fn(tt.a, tt.b)
		if ovf != tt.ovf {
			t.Fatalf("%s: overflow = %v, want %v", tt.name, ovf, tt.ovf)
		}
		if !ovf && got != tt.want {
			t.Fatalf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestHash64Spreads(t *testing.T) {
	seen := make(map[uint64]struct{}, 1024)
	for i := range uint64(1024) {
		seen[Hash64(i)] = struct{}{}
	}
	if len(seen) != 1024 {
		t.Fatalf("collisions in first 1024 inputs: %d unique", len(seen))
	}
}
