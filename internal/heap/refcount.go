package heap

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"boxrt/internal/box"
	"boxrt/internal/trace"
)

// maxPooledWorklist caps the capacity of worklists returned to the pool.
const maxPooledWorklist = 1 << 16

type worklist struct {
	items []*Block
}

// Dup records one more owner of v and returns v. Immediates pass through.
func (h *Heap) Dup(v box.Box) box.Box {
	if !v.IsRef() {
		return v
	}
	b := h.get(v.Handle())
	if b.IsShared() {
		atomic.AddInt32(&b.rc, 1)
	} else {
		b.rc++
	}
	h.counters.rcIncr.Add(1)
	return v
}

// Drop releases one owner of v. When the last owner goes, the block and every
// block reachable only through it are reclaimed. Immediates are ignored.
func (h *Heap) Drop(v box.Box) {
	if !v.IsRef() {
		return
	}
	b := h.get(v.Handle())
	if h.decref(b) == 0 {
		h.reclaim(b)
	}
}

// decref decrements b's count and returns the new value.
func (h *Heap) decref(b *Block) int32 {
	var n int32
	if b.IsShared() {
		n = atomic.AddInt32(&b.rc, -1)
	} else {
		b.rc--
		n = b.rc
	}
	h.counters.rcDecr.Add(1)
	if n < 0 {
		h.fail(PanicRefcountUnderflow, b.handle, "refcount underflow: %s#%d (alloc=%d)", b.tag, b.handle, b.allocID)
	}
	return n
}

// reclaim frees root and everything that reaches zero because of it.
// Children are pushed onto a worklist instead of being freed recursively.
func (h *Heap) reclaim(root *Block) {
	wl, ok := h.worklists.Get().(*worklist)
	if !ok {
		wl = &worklist{}
	}
	stack := append(wl.items[:0], root)
	freed := 0
	peak := 1

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range int(b.scan) {
			child := b.Field(i)
			if !child.IsRef() {
				continue
			}
			cb := h.get(child.Handle())
			if h.decref(cb) == 0 {
				stack = append(stack, cb)
			}
		}
		peak = max(peak, len(stack))
		h.free(b)
		freed++
	}

	h.counters.notePeakWorklist(int64(peak))
	if cap(stack) <= maxPooledWorklist {
		clear(stack[:cap(stack)])
		wl.items = stack[:0]
		h.worklists.Put(wl)
	}

	if h.traceHeap && freed > 1 {
		trace.Point(h.tracer, trace.ScopeHeap, "reclaim",
			fmt.Sprintf("root=%s#%d freed=%d peak=%d", root.tag, root.handle, freed, peak))
	}
}

func (h *Heap) free(b *Block) {
	if old := b.flags.Or(flagFreed); old&flagFreed != 0 {
		h.fail(PanicDoubleFree, b.handle, "double free: %s#%d (alloc=%d)", b.tag, b.handle, b.allocID)
	}
	mem := b.mem
	b.mem = nil
	h.counters.frees.Add(1)
	h.counters.liveBytes.Add(-int64(len(mem)))
	if h.traceBlocks {
		trace.Point(h.tracer, trace.ScopeBlock, "free", b.tag.String()+"#"+strconv.FormatUint(uint64(b.handle), 10))
	}
	h.alloc.Free(mem)
	h.table.remove(b.handle)
}

// MarkShared promotes v and every local block reachable from it to atomic
// refcounting. It must be called before v is handed to another goroutine.
// Promotion is one-way; already shared blocks stop the walk.
func (h *Heap) MarkShared(v box.Box) {
	if !v.IsRef() {
		return
	}
	root := h.get(v.Handle())
	if root.IsShared() {
		return
	}

	span := trace.Begin(h.tracer, trace.ScopeHeap, "mark-shared", 0)
	stack := []*Block{root}
	promoted := 0
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// Or is a release store; the receiving goroutine's Load acquires it.
		if old := b.flags.Or(flagShared); old&flagShared != 0 {
			continue
		}
		promoted++
		for i := range int(b.scan) {
			child := b.Field(i)
			if !child.IsRef() {
				continue
			}
			if cb := h.get(child.Handle()); !cb.IsShared() {
				stack = append(stack, cb)
			}
		}
	}
	h.counters.promotions.Add(uint64(promoted))
	span.WithExtra("promoted", strconv.Itoa(promoted)).End(fmt.Sprintf("%s#%d", root.tag, root.handle))
}

// IsUnique reports whether v is a reference held by exactly one owner, which
// makes in-place mutation safe.
func (h *Heap) IsUnique(v box.Box) bool {
	if !v.IsRef() {
		return false
	}
	return h.get(v.Handle()).RefCount() == 1
}

// RefCount returns the owner count of v's block, 0 for immediates.
func (h *Heap) RefCount(v box.Box) int32 {
	if !v.IsRef() {
		return 0
	}
	return h.get(v.Handle()).RefCount()
}
