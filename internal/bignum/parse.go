package bignum

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse reports malformed numeric text.
var ErrParse = errors.New("invalid numeric format")

// ParseInt parses an optionally signed integer literal. Digits may be
// separated by '_' and prefixed with 0x, 0b or 0o.
func ParseInt(s string) (BigInt, error) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s)
	if err != nil {
		return BigInt{}, err
	}
	return makeInt(neg, u), nil
}

// ParseUint parses an unsigned integer literal. Decimal input is consumed
// in chunks of nine digits, each folded in with one multiply-add pass.
func ParseUint(s string) (BigUint, error) {
	text := strings.TrimSpace(s)
	base := uint32(10)
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			text = text[2:]
		}
	}
	if text == "" || text[0] == '_' || text[len(text)-1] == '_' {
		return BigUint{}, fmt.Errorf("%w: %q", ErrParse, s)
	}

	chunkDigits := chunkFor(base)
	limbs := make([]uint32, 0, len(text)/8+1)
	var acc, scale uint32 = 0, 1
	n := 0
	flush := func() {
		carry := mulAddSmall(limbs, scale, acc)
		if carry != 0 {
			limbs = append(limbs, carry)
		}
		acc, scale, n = 0, 1, 0
	}
	prevUnderscore := false
	for i := range len(text) {
		ch := text[i]
		if ch == '_' {
			if prevUnderscore {
				return BigUint{}, fmt.Errorf("%w: %q", ErrParse, s)
			}
			prevUnderscore = true
			continue
		}
		prevUnderscore = false
		d, ok := digitValue(ch, base)
		if !ok {
			return BigUint{}, fmt.Errorf("%w: %q", ErrParse, s)
		}
		acc = acc*base + d
		scale *= base
		n++
		if n == chunkDigits {
			flush()
			if len(limbs) > MaxLimbs {
				return BigUint{}, ErrMaxLimbs
			}
		}
	}
	if n > 0 {
		flush()
	}
	return checkLen(trimLimbs(limbs))
}

// chunkFor returns how many digits of base fit in one uint32 accumulator.
func chunkFor(base uint32) int {
	digits := 0
	for scale := uint64(base); scale <= 1<<32-1; scale *= uint64(base) {
		digits++
	}
	return digits
}

func digitValue(ch byte, base uint32) (uint32, bool) {
	var d uint32
	switch {
	case ch >= '0' && ch <= '9':
		d = uint32(ch - '0')
	case ch >= 'a' && ch <= 'f':
		d = 10 + uint32(ch-'a')
	case ch >= 'A' && ch <= 'F':
		d = 10 + uint32(ch-'A')
	default:
		return 0, false
	}
	return d, d < base
}
