// Package ref implements mutable reference cells. A cell is a block with a
// single Box field. Cells follow the usual ownership rules: New and Set
// consume the value they store, Get returns a new reference to the content.
//
// A local cell is used from one goroutine and needs no locking. Once the cell
// has been marked shared, every access takes a lock from a striped table and
// every stored value is marked shared before it becomes visible.
package ref

import (
	"sync"

	"boxrt/internal/bits"
	"boxrt/internal/box"
	"boxrt/internal/heap"
)

const stripeCount = 64

var stripes [stripeCount]sync.Mutex

func init() {
	heap.RegisterTag(heap.TagRef, "ref", func(b *heap.Block) string {
		return "-> " + b.Field(0).String()
	})
}

func stripe(b *heap.Block) *sync.Mutex {
	return &stripes[bits.Hash64(uint64(b.Handle()))%stripeCount]
}

func cell(h *heap.Heap, c box.Box) *heap.Block {
	b := h.Get(c)
	if b.Tag() != heap.TagRef {
		panic("ref: expected ref cell, got " + b.Tag().String())
	}
	return b
}

// lock serializes access to a shared cell. Local cells are not locked.
func lock(b *heap.Block) func() {
	if !b.IsShared() {
		return func() {}
	}
	mu := stripe(b)
	mu.Lock()
	return mu.Unlock
}

// New creates a cell holding v. It consumes v.
func New(h *heap.Heap, v box.Box) (box.Box, error) {
	b, err := h.Allocate(heap.TagRef, 1, 0)
	if err != nil {
		h.Drop(v)
		return box.Invalid, err
	}
	b.SetField(0, v)
	return b.Box(), nil
}

// Get returns a new reference to the cell's content.
func Get(h *heap.Heap, c box.Box) box.Box {
	b := cell(h, c)
	unlock := lock(b)
	defer unlock()
	return h.Dup(b.Field(0))
}

// Swap stores v in the cell and returns the previous content. It consumes v
// and the caller owns the result.
func Swap(h *heap.Heap, c box.Box, v box.Box) box.Box {
	b := cell(h, c)
	if b.IsShared() {
		h.MarkShared(v)
	}
	unlock := lock(b)
	defer unlock()
	return b.ExchangeField(0, v)
}

// Set stores v in the cell and drops the previous content. It consumes v.
func Set(h *heap.Heap, c box.Box, v box.Box) {
	h.Drop(Swap(h, c, v))
}

// Modify replaces the content with fn(old). fn receives its own reference to
// the old value and returns an owned new value. If fn fails the cell is left
// unchanged. On a shared cell fn runs under the cell's lock and must not
// access other cells.
func Modify(h *heap.Heap, c box.Box, fn func(old box.Box) (box.Box, error)) error {
	b := cell(h, c)
	unlock := lock(b)
	defer unlock()
	old := h.Dup(b.Field(0))
	next, err := fn(old)
	if err != nil {
		return err
	}
	if b.IsShared() {
		h.MarkShared(next)
	}
	h.Drop(b.ExchangeField(0, next))
	return nil
}
