package bignum

import (
	"strconv"
	"strings"
)

const (
	decChunk     = 1_000_000_000
	decChunkSize = 9
)

// FormatUint renders u in decimal. The magnitude is split into base-10^9
// chunks by repeated short division, then the chunks are printed
// most-significant first with zero padding.
func FormatUint(u BigUint) string {
	limbs := cloneLimbs(u.Limbs)
	if len(limbs) == 0 {
		return "0"
	}
	chunks := make([]uint32, 0, len(limbs)*32/29+1)
	for len(limbs) > 0 {
		chunks = append(chunks, divSmallInPlace(limbs, decChunk))
		limbs = trimLimbs(limbs)
	}

	buf := make([]byte, 0, len(chunks)*decChunkSize)
	buf = strconv.AppendUint(buf, uint64(chunks[len(chunks)-1]), 10)
	var tmp [decChunkSize]byte
	for i := len(chunks) - 2; i >= 0; i-- {
		c := chunks[i]
		for k := decChunkSize - 1; k >= 0; k-- {
			tmp[k] = byte('0' + c%10)
			c /= 10
		}
		buf = append(buf, tmp[:]...)
	}
	return string(buf)
}

// FormatInt renders i in decimal with a leading '-' when negative.
func FormatInt(i BigInt) string {
	s := FormatUint(i.Abs())
	if i.Neg && s != "0" {
		return "-" + s
	}
	return s
}

const hexDigits = "0123456789abcdef"

// FormatHex renders i in lowercase hexadecimal with a 0x prefix.
func FormatHex(i BigInt) string {
	limbs := trimLimbs(i.Limbs)
	var sb strings.Builder
	if i.Neg && len(limbs) > 0 {
		sb.WriteByte('-')
	}
	sb.WriteString("0x")
	if len(limbs) == 0 {
		sb.WriteByte('0')
		return sb.String()
	}
	sb.WriteString(strconv.FormatUint(uint64(limbs[len(limbs)-1]), 16))
	for i := len(limbs) - 2; i >= 0; i-- {
		w := limbs[i]
		for shift := 28; shift >= 0; shift -= 4 {
			sb.WriteByte(hexDigits[w>>uint(shift)&0xf])
		}
	}
	return sb.String()
}

// DecimalDigits returns the number of decimal digits in |i| (1 for zero).
func DecimalDigits(i BigInt) int {
	return len(FormatUint(i.Abs()))
}
