package integer

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"

	"boxrt/internal/bignum"
	"boxrt/internal/box"
	"boxrt/internal/heap"
)

// BigInt payload: sign word, limb count, then little-endian uint32 limbs.
// The top limb is never zero and the value never fits an immediate.
const (
	offSign    = 0
	offCount   = 4
	headerSize = 8
	limbSize   = 4
)

func init() {
	heap.RegisterTag(heap.TagBigInt, "bigint", describe)
}

func describe(b *heap.Block) string {
	s := bignum.FormatInt(decode(b))
	const preview = 40
	if len(s) > preview {
		return fmt.Sprintf("%s...(%d digits)", s[:preview], len(s))
	}
	return s
}

// decode copies the value out of a TagBigInt block.
func decode(b *heap.Block) bignum.BigInt {
	data := b.Data()
	n := binary.LittleEndian.Uint32(data[offCount:])
	limbs := make([]uint32, n)
	for i := range limbs {
		limbs[i] = binary.LittleEndian.Uint32(data[headerSize+i*limbSize:])
	}
	return bignum.BigInt{Neg: data[offSign] != 0, Limbs: limbs}
}

// materialize stores a canonical, non-immediate value in a new block.
func materialize(h *heap.Heap, v bignum.BigInt) (box.Box, error) {
	n, err := safecast.Conv[uint32](len(v.Limbs))
	if err != nil {
		return box.Invalid, fmt.Errorf("integer: %w", bignum.ErrMaxLimbs)
	}
	b, err := h.Allocate(heap.TagBigInt, 0, headerSize+len(v.Limbs)*limbSize)
	if err != nil {
		return box.Invalid, err
	}
	data := b.Data()
	if v.Neg {
		data[offSign] = 1
	}
	binary.LittleEndian.PutUint32(data[offCount:], n)
	for i, limb := range v.Limbs {
		binary.LittleEndian.PutUint32(data[headerSize+i*limbSize:], limb)
	}
	return b.Box(), nil
}

// FromBig returns the canonical Box for v: an immediate when it fits,
// otherwise a new BigInt block owned by the caller.
func FromBig(h *heap.Heap, v bignum.BigInt) (box.Box, error) {
	if n, ok := v.Int64(); ok && box.FitsImmediate(n) {
		return box.FromInt(n), nil
	}
	v.Limbs = trim(v.Limbs)
	return materialize(h, v)
}

func trim(limbs []uint32) []uint32 {
	for len(limbs) > 0 && limbs[len(limbs)-1] == 0 {
		limbs = limbs[:len(limbs)-1]
	}
	return limbs
}

// FromInt64 returns n as an integer Box.
func FromInt64(h *heap.Heap, n int64) (box.Box, error) {
	if box.FitsImmediate(n) {
		return box.FromInt(n), nil
	}
	return materialize(h, bignum.IntFromInt64(n))
}

// Big returns the value of an integer Box. The result does not alias heap
// memory.
func Big(h *heap.Heap, v box.Box) bignum.BigInt {
	if v.IsImmediate() {
		return bignum.IntFromInt64(v.Int())
	}
	return decode(bigBlock(h, v))
}

func bigBlock(h *heap.Heap, v box.Box) *heap.Block {
	b := h.Get(v)
	if b.Tag() != heap.TagBigInt {
		panic(fmt.Sprintf("integer: expected bigint block, got %s", b.Tag()))
	}
	return b
}

// IsInteger reports whether v is an immediate or a BigInt reference.
func IsInteger(h *heap.Heap, v box.Box) bool {
	switch v.Kind() {
	case box.KindImmediate:
		return true
	case box.KindReference:
		return h.Get(v).Tag() == heap.TagBigInt
	case box.KindEmpty, box.KindInvalid:
	}
	return false
}

// IsBoxed reports whether v is held in a BigInt block.
func IsBoxed(h *heap.Heap, v box.Box) bool {
	return v.IsRef() && h.Get(v).Tag() == heap.TagBigInt
}
