package fuzztests

import (
	"math"
	"strconv"
	"testing"

	"boxrt/internal/box"
)

const maxFuzzInput = 4 << 10 // 4 KiB of digits is plenty for limb arithmetic

var literalSeeds = []string{
	"0", "-0", "1", "-1", "+7",
	"4611686018427387903", "4611686018427387904", "-4611686018427387903", "-4611686018427387904",
	"9223372036854775807", "-9223372036854775808", "18446744073709551616",
	"0x0", "0xffffffffffffffffffff", "-0x8000000000000000", "0b1010_1010", "0o777",
	"1_000_000", "_1", "1_", "1__0", "0x", "--1", "", " 1", "1e9", "١٢٣",
	"340282366920938463463374607431768211456",
}

func addLiteralSeeds(f *testing.F) {
	for _, s := range literalSeeds {
		f.Add(s)
	}
}

func addOperandSeeds(f *testing.F) {
	edges := []int64{0, 1, -1, 2, box.MaxImmediate, box.MinImmediate, math.MaxInt64, math.MinInt64, 1 << 32, -(1 << 31)}
	for _, a := range edges {
		for _, b := range edges {
			f.Add(strconv.FormatInt(a, 10), strconv.FormatInt(b, 10))
		}
	}
	f.Add("340282366920938463463374607431768211456", "18446744073709551617")
	f.Add("-99999999999999999999999999999999", "7")
}

func clampInput(s string) string {
	if len(s) <= maxFuzzInput {
		return s
	}
	return s[:maxFuzzInput]
}
