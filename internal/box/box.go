// Package box defines the universal runtime value word.
//
// A Box is a single 64-bit word with two disjoint encodings selected by the
// low bit:
//
//	xxxx...xxx1  immediate: bits 63..1 hold a signed 63-bit payload
//	xxxx...xxx0  reference: bits 63..1 hold a heap block handle
//
// The immediate range is kept symmetric around zero. The single payload that
// falls outside it (-2^62) is reserved for the Empty marker, so negating an
// immediate never leaves the immediate range.
package box

import (
	"fmt"
)

// Box is a tagged runtime value: either an immediate or a block reference.
type Box uint64

// Handle identifies a heap block. Handle(0) is always invalid.
type Handle uint32

// Kind is the closed set of shapes a Box can take.
type Kind uint8

const (
	// KindInvalid is the zero Box (a reference to handle 0).
	KindInvalid Kind = iota
	// KindImmediate is a value stored directly in the word.
	KindImmediate
	// KindReference is a reference to a heap block.
	KindReference
	// KindEmpty is the reserved non-value marker.
	KindEmpty
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindImmediate:
		return "immediate"
	case KindReference:
		return "reference"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

const (
	tagBits uint = 1
	tagMask Box  = 1

	// MaxImmediate is the largest integer stored without allocation.
	MaxImmediate int64 = 1<<62 - 1
	// MinImmediate is the smallest integer stored without allocation.
	MinImmediate int64 = -MaxImmediate
)

// Empty is the reserved marker; it is neither a value nor a reference.
const Empty Box = Box(uint64(1)<<63 | 1)

// Invalid is the zero Box; it never refers to a live block.
const Invalid Box = 0

// Kind reports which encoding b uses.
func (b Box) Kind() Kind {
	switch {
	case b == Empty:
		return KindEmpty
	case b&tagMask != 0:
		return KindImmediate
	case b == Invalid:
		return KindInvalid
	default:
		return KindReference
	}
}

// IsImmediate reports whether b is an immediate value (Empty excluded).
func (b Box) IsImmediate() bool {
	return b&tagMask != 0 && b != Empty
}

// IsRef reports whether b references a heap block.
func (b Box) IsRef() bool {
	return b&tagMask == 0 && b != Invalid
}

// FitsImmediate reports whether n lies in the immediate range.
func FitsImmediate(n int64) bool {
	return n >= MinImmediate && n <= MaxImmediate
}

// FromInt encodes n as an immediate. n must satisfy FitsImmediate.
func FromInt(n int64) Box {
	if !FitsImmediate(n) {
		panic(fmt.Sprintf("box: %d outside immediate range", n))
	}
	return Box(uint64(n)<<tagBits) | tagMask
}

// Int decodes an immediate. b must satisfy IsImmediate.
func (b Box) Int() int64 {
	if !b.IsImmediate() {
		panic(fmt.Sprintf("box: Int on %s box %#x", b.Kind(), uint64(b)))
	}
	return int64(b) >> tagBits
}

// FromHandle encodes a reference to the block identified by h.
func FromHandle(h Handle) Box {
	if h == 0 {
		panic("box: reference to handle 0")
	}
	return Box(uint64(h) << tagBits)
}

// Handle returns the referenced block handle. b must satisfy IsRef.
func (b Box) Handle() Handle {
	if !b.IsRef() {
		panic(fmt.Sprintf("box: Handle on %s box %#x", b.Kind(), uint64(b)))
	}
	return Handle(uint64(b) >> tagBits) //nolint:gosec // G115: handles are created from uint32 and shifted back.
}

// String renders the box for diagnostics.
func (b Box) String() string {
	switch b.Kind() {
	case KindImmediate:
		return fmt.Sprintf("%d", b.Int())
	case KindReference:
		return fmt.Sprintf("#%d", b.Handle())
	case KindEmpty:
		return "<empty>"
	default:
		return "<invalid>"
	}
}
