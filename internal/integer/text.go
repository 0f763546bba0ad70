package integer

import (
	"fmt"
	"strconv"

	"boxrt/internal/bignum"
	"boxrt/internal/box"
	"boxrt/internal/heap"
	"boxrt/internal/strbuf"
)

// Format renders a in decimal.
func Format(h *heap.Heap, a box.Box) string {
	if a.IsImmediate() {
		return strconv.FormatInt(a.Int(), 10)
	}
	return bignum.FormatInt(Big(h, a))
}

// FormatHex renders a in hexadecimal with a 0x prefix.
func FormatHex(h *heap.Heap, a box.Box) string {
	return bignum.FormatHex(Big(h, a))
}

// CountDigits returns the number of decimal digits of |a|.
func CountDigits(h *heap.Heap, a box.Box) int {
	if a.IsImmediate() {
		n := a.Int()
		if n < 0 {
			n = -n
		}
		digits := 1
		for n >= 10 {
			n /= 10
			digits++
		}
		return digits
	}
	return bignum.DecimalDigits(Big(h, a))
}

// ToString returns the decimal rendering of a as a string Box.
func ToString(h *heap.Heap, a box.Box) (box.Box, error) {
	return strbuf.FromGo(h, Format(h, a))
}

// ToHex returns the hexadecimal rendering of a as a string Box.
func ToHex(h *heap.Heap, a box.Box) (box.Box, error) {
	return strbuf.FromGo(h, FormatHex(h, a))
}

// Parse reads an integer literal: optional sign, decimal digits or a
// 0x/0b/0o prefixed form, '_' between digits.
func Parse(h *heap.Heap, s string) (box.Box, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromInt64(h, n)
	}
	v, err := bignum.ParseInt(s)
	if err != nil {
		return box.Invalid, fmt.Errorf("integer parse: %w", err)
	}
	return FromBig(h, v)
}

// FromString parses the string Box s. s is borrowed.
func FromString(h *heap.Heap, s box.Box) (box.Box, error) {
	return Parse(h, strbuf.String(h, s))
}
