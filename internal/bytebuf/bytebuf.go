// Package bytebuf implements immutable-by-default byte buffers stored in heap
// blocks. Operations that produce a new buffer borrow their inputs; mutating
// operations consume the buffer they are given and write in place only when
// the caller is its sole owner, copying first otherwise.
package bytebuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"boxrt/internal/bits"
	"boxrt/internal/box"
	"boxrt/internal/heap"
)

// headerSize is the length word preceding the bytes.
const headerSize = 8

// ErrOutOfRange reports an index or range outside the buffer.
var ErrOutOfRange = errors.New("byte index out of range")

func init() {
	heap.RegisterTag(heap.TagBytes, "bytes", describe)
}

func describe(b *heap.Block) string {
	p := payload(b)
	const preview = 16
	if len(p) > preview {
		return fmt.Sprintf("len=%d %q...", len(p), p[:preview])
	}
	return fmt.Sprintf("len=%d %q", len(p), p)
}

// payload returns the live bytes of a TagBytes block.
func payload(b *heap.Block) []byte {
	data := b.Data()
	n := binary.LittleEndian.Uint64(data)
	return data[headerSize : headerSize+int(n)] //nolint:gosec // G115: n <= capacity by construction.
}

func capacity(b *heap.Block) int {
	return len(b.Data()) - headerSize
}

func setLen(b *heap.Block, n int) {
	binary.LittleEndian.PutUint64(b.Data(), uint64(n)) //nolint:gosec // G115: n is non-negative.
}

// block resolves v and checks that it is a byte buffer.
func block(h *heap.Heap, v box.Box) *heap.Block {
	b := h.Get(v)
	if b.Tag() != heap.TagBytes {
		panic(fmt.Sprintf("bytebuf: expected bytes block, got %s", b.Tag()))
	}
	return b
}

// newBuffer creates a buffer of length n with room for capHint bytes.
func newBuffer(h *heap.Heap, n, capHint int) (*heap.Block, error) {
	if n < 0 {
		return nil, fmt.Errorf("bytebuf: negative length %d: %w", n, ErrOutOfRange)
	}
	b, err := h.Allocate(heap.TagBytes, 0, headerSize+max(n, capHint))
	if err != nil {
		return nil, err
	}
	setLen(b, n)
	return b, nil
}

// Create returns a zero-filled buffer of length n.
func Create(h *heap.Heap, n int) (box.Box, error) {
	b, err := newBuffer(h, n, n)
	if err != nil {
		return box.Invalid, err
	}
	clear(payload(b))
	return b.Box(), nil
}

// FromBytes copies p into a new buffer.
func FromBytes(h *heap.Heap, p []byte) (box.Box, error) {
	b, err := newBuffer(h, len(p), len(p))
	if err != nil {
		return box.Invalid, err
	}
	copy(payload(b), p)
	return b.Box(), nil
}

// Len returns the buffer length.
func Len(h *heap.Heap, v box.Box) int {
	return len(payload(block(h, v)))
}

// At returns the byte at index i.
func At(h *heap.Heap, v box.Box, i int) (byte, error) {
	p := payload(block(h, v))
	if i < 0 || i >= len(p) {
		return 0, fmt.Errorf("bytebuf: index %d of %d: %w", i, len(p), ErrOutOfRange)
	}
	return p[i], nil
}

// Bytes returns a view of the buffer contents. The view is valid while the
// caller holds a reference to v and must not be modified.
func Bytes(h *heap.Heap, v box.Box) []byte {
	return payload(block(h, v))
}

// Concat returns a new buffer holding a followed by b.
func Concat(h *heap.Heap, a, b box.Box) (box.Box, error) {
	pa, pb := payload(block(h, a)), payload(block(h, b))
	out, err := newBuffer(h, len(pa)+len(pb), 0)
	if err != nil {
		return box.Invalid, err
	}
	n := copy(payload(out), pa)
	copy(payload(out)[n:], pb)
	return out.Box(), nil
}

// Slice returns a new buffer holding v[start:end].
func Slice(h *heap.Heap, v box.Box, start, end int) (box.Box, error) {
	p := payload(block(h, v))
	if start < 0 || end < start || end > len(p) {
		return box.Invalid, fmt.Errorf("bytebuf: slice [%d:%d] of %d: %w", start, end, len(p), ErrOutOfRange)
	}
	return FromBytes(h, p[start:end])
}

// Compare orders buffers lexicographically and returns -1, 0 or 1.
func Compare(h *heap.Heap, a, b box.Box) int {
	if a == b {
		return 0
	}
	return bytes.Compare(payload(block(h, a)), payload(block(h, b)))
}

// Equal reports whether a and b hold the same bytes.
func Equal(h *heap.Heap, a, b box.Box) bool {
	return Compare(h, a, b) == 0
}

// Hash returns a content hash of v.
func Hash(h *heap.Heap, v box.Box) uint64 {
	return HashBytes(payload(block(h, v)))
}

// HashBytes mixes p one word at a time.
func HashBytes(p []byte) uint64 {
	n, err := safecast.Conv[uint64](len(p))
	if err != nil {
		panic(err)
	}
	acc := bits.Hash64(n)
	for len(p) >= 8 {
		acc = bits.Hash64(acc ^ binary.LittleEndian.Uint64(p))
		p = p[8:]
	}
	var tail [8]byte
	copy(tail[:], p)
	return bits.Hash64(acc ^ binary.LittleEndian.Uint64(tail[:]) ^ uint64(len(p)))
}

// EnsureUnique consumes v and returns a buffer with the same contents that
// the caller owns exclusively: v itself when it is unique, else a copy.
// The reference to v is released on error as well.
func EnsureUnique(h *heap.Heap, v box.Box) (box.Box, error) {
	if h.IsUnique(v) {
		return v, nil
	}
	out, err := FromBytes(h, payload(block(h, v)))
	h.Drop(v)
	if err != nil {
		return box.Invalid, err
	}
	return out, nil
}

// SetAt consumes v, also on error, and returns a buffer whose byte i is c.
func SetAt(h *heap.Heap, v box.Box, i int, c byte) (box.Box, error) {
	if n := Len(h, v); i < 0 || i >= n {
		h.Drop(v)
		return box.Invalid, fmt.Errorf("bytebuf: index %d of %d: %w", i, n, ErrOutOfRange)
	}
	out, err := EnsureUnique(h, v)
	if err != nil {
		return box.Invalid, err
	}
	payload(h.Get(out))[i] = c
	return out, nil
}

// Append consumes v, also on error, and returns a buffer with p appended.
// A unique buffer with spare capacity grows in place; otherwise the contents
// move to a new block with doubled capacity.
func Append(h *heap.Heap, v box.Box, p []byte) (box.Box, error) {
	b := block(h, v)
	cur := payload(b)
	need := len(cur) + len(p)
	if h.IsUnique(v) && need <= capacity(b) {
		setLen(b, need)
		copy(payload(b)[len(cur):], p)
		return v, nil
	}
	out, err := newBuffer(h, need, max(2*len(cur), need))
	if err != nil {
		h.Drop(v)
		return box.Invalid, err
	}
	n := copy(payload(out), cur)
	copy(payload(out)[n:], p)
	h.Drop(v)
	return out.Box(), nil
}

// String renders v for debugging.
func String(h *heap.Heap, v box.Box) string {
	return strconv.Quote(string(payload(block(h, v))))
}
