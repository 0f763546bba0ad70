// Package strbuf implements UTF-8 strings stored in heap blocks. A string is
// a byte buffer that always holds valid UTF-8 and caches its character count,
// so Count is constant time and ASCII strings index by byte.
package strbuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"fortio.org/safecast"

	"boxrt/internal/box"
	"boxrt/internal/bytebuf"
	"boxrt/internal/heap"
)

// Payload layout: byte length, character count, then the UTF-8 bytes.
const (
	offLen     = 0
	offCount   = 8
	headerSize = 16
)

var (
	// ErrOutOfRange reports a character index or range outside the string.
	ErrOutOfRange = errors.New("string index out of range")
	// ErrInvalidUTF8 reports bytes that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

func init() {
	heap.RegisterTag(heap.TagString, "string", describe)
}

func describe(b *heap.Block) string {
	s := text(b)
	const preview = 24
	if utf8.RuneCount(s) > preview {
		return fmt.Sprintf("chars=%d %q...", count(b), truncateRunes(s, preview))
	}
	return fmt.Sprintf("chars=%d %q", count(b), s)
}

func truncateRunes(s []byte, n int) []byte {
	for i := range string(s) {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

func text(b *heap.Block) []byte {
	data := b.Data()
	n := binary.LittleEndian.Uint64(data[offLen:])
	return data[headerSize : headerSize+int(n)] //nolint:gosec // G115: length fits the block by construction.
}

func count(b *heap.Block) int {
	n, err := safecast.Conv[int](binary.LittleEndian.Uint64(b.Data()[offCount:]))
	if err != nil {
		panic(err)
	}
	return n
}

func block(h *heap.Heap, v box.Box) *heap.Block {
	b := h.Get(v)
	if b.Tag() != heap.TagString {
		panic(fmt.Sprintf("strbuf: expected string block, got %s", b.Tag()))
	}
	return b
}

// build allocates a string from valid UTF-8 with a known character count.
func build(h *heap.Heap, p []byte, chars int) (box.Box, error) {
	b, err := h.Allocate(heap.TagString, 0, headerSize+len(p))
	if err != nil {
		return box.Invalid, err
	}
	data := b.Data()
	binary.LittleEndian.PutUint64(data[offLen:], uint64(len(p)))  //nolint:gosec // G115: non-negative.
	binary.LittleEndian.PutUint64(data[offCount:], uint64(chars)) //nolint:gosec // G115: non-negative.
	copy(data[headerSize:], p)
	return b.Box(), nil
}

func fromValid(h *heap.Heap, p []byte) (box.Box, error) {
	return build(h, p, utf8.RuneCount(p))
}

// FromGo creates a string from s, replacing each invalid UTF-8 sequence with
// U+FFFD.
func FromGo(h *heap.Heap, s string) (box.Box, error) {
	if !utf8.ValidString(s) {
		s = toValid(s)
	}
	return fromValid(h, []byte(s))
}

func toValid(s string) string {
	var buf bytes.Buffer
	buf.Grow(len(s))
	for _, r := range s {
		buf.WriteRune(r)
	}
	return buf.String()
}

// FromBytes creates a string from the contents of a byte buffer, which must
// be valid UTF-8.
func FromBytes(h *heap.Heap, buf box.Box) (box.Box, error) {
	p := bytebuf.Bytes(h, buf)
	if !utf8.Valid(p) {
		return box.Invalid, fmt.Errorf("strbuf: from bytes: %w", ErrInvalidUTF8)
	}
	return fromValid(h, p)
}

// ToBytes copies the UTF-8 encoding of v into a new byte buffer.
func ToBytes(h *heap.Heap, v box.Box) (box.Box, error) {
	return bytebuf.FromBytes(h, text(block(h, v)))
}

// String returns v as a Go string.
func String(h *heap.Heap, v box.Box) string {
	return string(text(block(h, v)))
}

// View returns the UTF-8 bytes of v without copying. The view is valid while
// the caller holds a reference to v and must not be modified.
func View(h *heap.Heap, v box.Box) []byte {
	return text(block(h, v))
}

// Count returns the number of characters (code points).
func Count(h *heap.Heap, v box.Box) int {
	return count(block(h, v))
}

// Len returns the length in bytes.
func Len(h *heap.Heap, v box.Box) int {
	return len(text(block(h, v)))
}

// Concat returns a new string holding a followed by b.
func Concat(h *heap.Heap, a, b box.Box) (box.Box, error) {
	ba, bb := block(h, a), block(h, b)
	ta, tb := text(ba), text(bb)
	p := make([]byte, 0, len(ta)+len(tb))
	p = append(append(p, ta...), tb...)
	return build(h, p, count(ba)+count(bb))
}

// Slice returns the characters [start, end) of v.
func Slice(h *heap.Heap, v box.Box, start, end int) (box.Box, error) {
	b := block(h, v)
	n := count(b)
	if start < 0 || end < start || end > n {
		return box.Invalid, fmt.Errorf("strbuf: slice [%d:%d] of %d chars: %w", start, end, n, ErrOutOfRange)
	}
	t := text(b)
	if n == len(t) {
		return build(h, t[start:end], end-start)
	}
	lo := byteOffset(t, 0, start)
	hi := byteOffset(t, lo, end-start)
	return build(h, t[lo:hi], end-start)
}

// byteOffset advances from byte position from by chars code points.
func byteOffset(t []byte, from, chars int) int {
	i := from
	for ; chars > 0; chars-- {
		_, size := utf8.DecodeRune(t[i:])
		i += size
	}
	return i
}

// At returns the character at index i.
func At(h *heap.Heap, v box.Box, i int) (rune, error) {
	b := block(h, v)
	n := count(b)
	if i < 0 || i >= n {
		return 0, fmt.Errorf("strbuf: index %d of %d chars: %w", i, n, ErrOutOfRange)
	}
	t := text(b)
	if n == len(t) {
		return rune(t[i]), nil
	}
	r, _ := utf8.DecodeRune(t[byteOffset(t, 0, i):])
	return r, nil
}

// Compare orders strings by code point and returns -1, 0 or 1.
func Compare(h *heap.Heap, a, b box.Box) int {
	if a == b {
		return 0
	}
	return bytes.Compare(text(block(h, a)), text(block(h, b)))
}

// Equal reports whether a and b hold the same characters.
func Equal(h *heap.Heap, a, b box.Box) bool {
	return Compare(h, a, b) == 0
}

// Hash returns a content hash of v, equal for equal strings.
func Hash(h *heap.Heap, v box.Box) uint64 {
	return bytebuf.HashBytes(text(block(h, v)))
}

// Quote renders v as a Go-quoted string for diagnostics.
func Quote(h *heap.Heap, v box.Box) string {
	return strconv.Quote(String(h, v))
}
