// Package heap implements blocks and the reference-counting reclamation engine.
//
// Every heap object is a Block reached through a box.Box reference. A block is
// created with refcount 1, owned by its creator. Dup adds an owner, Drop removes
// one, and the drop that brings the count to zero reclaims the block and,
// transitively, every block only it kept alive. Reclamation walks an explicit
// worklist, so tearing down an arbitrarily long chain uses constant call-stack
// depth.
//
// Reference cycles are never reclaimed.
package heap

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"

	"boxrt/internal/alloc"
	"boxrt/internal/box"
	"boxrt/internal/trace"
)

// MaxScan is the largest number of Box fields a block may carry.
const MaxScan = 1<<16 - 1

// Options configures a Heap.
type Options struct {
	// Allocator supplies block memory; defaults to alloc.System.
	Allocator alloc.Allocator
	// Debug enables tombstones and invariant checks on every access.
	Debug bool
	// Tracer receives heap and block events; defaults to trace.Nop.
	Tracer trace.Tracer
}

// Heap owns a set of blocks and the allocator behind them.
// All methods are safe for concurrent use on shared blocks.
type Heap struct {
	alloc  alloc.Allocator
	debug  bool
	tracer trace.Tracer
	// traceBlocks caches whether per-block events pass the tracer level.
	traceBlocks bool
	traceHeap   bool

	table       table
	nextAllocID atomic.Uint64
	counters    counters
	closed      atomic.Bool

	worklists sync.Pool
}

// New creates a heap. The heap takes ownership of opts.Allocator and closes it
// in Close.
func New(opts Options) *Heap {
	if opts.Allocator == nil {
		opts.Allocator = alloc.System{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	h := &Heap{
		alloc:       opts.Allocator,
		debug:       opts.Debug,
		tracer:      opts.Tracer,
		traceBlocks: opts.Tracer.Level().ShouldEmit(trace.ScopeBlock),
		traceHeap:   opts.Tracer.Level().ShouldEmit(trace.ScopeHeap),
	}
	h.table.reuse = !opts.Debug
	h.worklists.New = func() any { return &worklist{items: make([]*Block, 0, 64)} }
	return h
}

// Debug reports whether invariant checking is enabled.
func (h *Heap) Debug() bool { return h.debug }

// Tracer returns the heap's tracer.
func (h *Heap) Tracer() trace.Tracer { return h.tracer }

// Allocate creates a block with scan Box fields followed by extra raw bytes.
// The fields start out as box.Invalid, which Drop ignores, so a partially
// initialized block can be dropped safely. The caller owns the single
// reference.
func (h *Heap) Allocate(tag Tag, scan, extra int) (*Block, error) {
	if h.closed.Load() {
		h.fail(PanicHeapClosed, 0, "allocate on closed heap")
	}
	scan16, err := safecast.Conv[uint16](scan)
	if err != nil || scan > MaxScan {
		return nil, fmt.Errorf("allocate %s: invalid field count %d", tag, scan)
	}
	if extra < 0 {
		return nil, fmt.Errorf("allocate %s: negative payload size %d", tag, extra)
	}

	size := scan*alloc.WordSize + extra
	mem, err := h.alloc.Alloc(size)
	if err != nil {
		h.counters.failures.Add(1)
		return nil, fmt.Errorf("allocate %s (%d bytes): %w", tag, size, err)
	}
	if len(mem) < size {
		h.alloc.Free(mem)
		return nil, fmt.Errorf("allocate %s: allocator returned %d bytes, want %d", tag, len(mem), size)
	}

	b := &Block{
		tag:     tag,
		scan:    scan16,
		rc:      1,
		allocID: h.nextAllocID.Add(1),
		extra:   extra,
		mem:     mem,
	}
	if _, err := h.table.insert(b); err != nil {
		h.alloc.Free(mem)
		return nil, err
	}
	h.counters.allocs.Add(1)
	h.counters.liveBytes.Add(int64(len(mem)))
	if h.traceBlocks {
		trace.Point(h.tracer, trace.ScopeBlock, "alloc", fmt.Sprintf("%s#%d size=%d", tag, b.handle, len(mem)))
	}
	return b, nil
}

// Get resolves a reference without changing its refcount.
// v must be a reference to a live block.
func (h *Heap) Get(v box.Box) *Block {
	if !v.IsRef() {
		h.fail(PanicInvalidHandle, 0, "expected reference, got %s box", v.Kind())
	}
	return h.get(v.Handle())
}

func (h *Heap) get(handle box.Handle) *Block {
	b := h.table.lookup(handle)
	if b == nil {
		h.fail(PanicInvalidHandle, handle, "invalid handle %d", handle)
	}
	if h.debug && b.isFreed() {
		h.fail(PanicUseAfterFree, handle, "use after free: %s#%d (alloc=%d)", b.tag, handle, b.allocID)
	}
	return b
}

// Close tears the heap down. On a debug heap it reports leaked blocks first.
// The allocator is closed in all cases.
func (h *Heap) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if h.debug {
		if err := h.CheckLeaks(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := h.alloc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close allocator: %w", err))
	}
	return errors.Join(errs...)
}
