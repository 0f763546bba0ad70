package box

import (
	"fmt"
	"unicode/utf8"
)

// Unit is the immediate used for the unit value.
const Unit Box = Box(0)<<tagBits | tagMask

// True and False are the immediate booleans.
const (
	False Box = Box(0)<<tagBits | tagMask
	True  Box = Box(1)<<tagBits | tagMask
)

// FromBool encodes a boolean.
func FromBool(v bool) Box {
	if v {
		return True
	}
	return False
}

// Bool decodes a boolean immediate; any nonzero immediate is true.
func (b Box) Bool() bool {
	return b.Int() != 0
}

// FromEnum encodes a constructor tag of a nullary enum.
func FromEnum(tag uint32) Box {
	return FromInt(int64(tag))
}

// Enum decodes a constructor tag.
func (b Box) Enum() uint32 {
	n := b.Int()
	if n < 0 || n > int64(^uint32(0)) {
		panic(fmt.Sprintf("box: %d is not an enum tag", n))
	}
	return uint32(n)
}

// FromRune encodes a unicode code point.
func FromRune(r rune) Box {
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return FromInt(int64(r))
}

// Rune decodes a code point immediate.
func (b Box) Rune() rune {
	n := b.Int()
	if n < 0 || n > utf8.MaxRune {
		return utf8.RuneError
	}
	return rune(n)
}
