package heap

import (
	"encoding/binary"
	"sync/atomic"

	"boxrt/internal/alloc"
	"boxrt/internal/box"
)

const (
	flagShared uint32 = 1 << iota
	flagFreed
)

// Block is a heap object: a header plus a payload region obtained from the
// heap's allocator. The payload starts with Scan() Box words, which the
// reclamation engine follows; the remaining bytes are raw data it never
// interprets.
//
// The refcount is a plain counter while the block is local and is only
// touched with atomic instructions once the block has been marked shared.
type Block struct {
	handle  box.Handle
	tag     Tag
	scan    uint16
	flags   atomic.Uint32
	rc      int32
	allocID uint64
	extra   int

	mem []byte
}

// Handle returns the block's handle.
func (b *Block) Handle() box.Handle { return b.handle }

// Box returns a Box referring to b. It does not change the refcount.
func (b *Block) Box() box.Box { return box.FromHandle(b.handle) }

// Tag returns the payload shape.
func (b *Block) Tag() Tag { return b.tag }

// Scan returns the number of Box fields at the start of the payload.
func (b *Block) Scan() int { return int(b.scan) }

// AllocID is a per-heap sequence number that is never reused.
func (b *Block) AllocID() uint64 { return b.allocID }

// IsShared reports whether the block has been promoted to atomic refcounting.
func (b *Block) IsShared() bool { return b.flags.Load()&flagShared != 0 }

func (b *Block) isFreed() bool { return b.flags.Load()&flagFreed != 0 }

// RefCount returns the current number of references.
func (b *Block) RefCount() int32 {
	if b.IsShared() {
		return atomic.LoadInt32(&b.rc)
	}
	return b.rc
}

// Field returns Box field i without changing any refcount.
func (b *Block) Field(i int) box.Box {
	if i < 0 || i >= int(b.scan) {
		panic(&Error{Code: PanicFieldIndex, Message: "field index out of range", Handle: b.handle})
	}
	return box.Box(binary.LittleEndian.Uint64(b.mem[i*alloc.WordSize:]))
}

// SetField stores v in field i. Ownership of v moves into the block; the
// previous field value is not dropped. Shared blocks are immutable.
func (b *Block) SetField(i int, v box.Box) {
	if i < 0 || i >= int(b.scan) {
		panic(&Error{Code: PanicFieldIndex, Message: "field index out of range", Handle: b.handle})
	}
	if b.IsShared() {
		panic(&Error{Code: PanicSharedMutation, Message: "write to field of shared block", Handle: b.handle})
	}
	binary.LittleEndian.PutUint64(b.mem[i*alloc.WordSize:], uint64(v))
}

// ExchangeField stores v in field i and returns the previous value. Ownership
// moves both ways. Unlike SetField it is allowed on shared blocks; callers
// must serialize access to the field.
func (b *Block) ExchangeField(i int, v box.Box) box.Box {
	old := b.Field(i)
	binary.LittleEndian.PutUint64(b.mem[i*alloc.WordSize:], uint64(v))
	return old
}

// Data returns the raw payload that follows the Box fields.
// Writers must hold the only reference.
func (b *Block) Data() []byte {
	off := int(b.scan) * alloc.WordSize
	return b.mem[off : off+b.extra]
}

// Size is the number of payload bytes charged to the allocator.
func (b *Block) Size() int { return len(b.mem) }

func (b *Block) refFields() int {
	n := 0
	for i := range int(b.scan) {
		if b.Field(i).IsRef() {
			n++
		}
	}
	return n
}
