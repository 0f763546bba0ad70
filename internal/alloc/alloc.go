// Package alloc defines the byte allocator the heap draws block memory from.
//
// The heap never calls make directly for block payloads: it goes through an
// Allocator acquired once when the heap is created and released when the heap
// is closed. Implementations compose; a typical chain is
// Poison(Metered(System{})).
package alloc

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// WordSize is the alignment and size granularity of every allocation.
const WordSize = 8

// ErrOutOfMemory is returned when an allocation cannot be satisfied.
var ErrOutOfMemory = errors.New("out of memory")

// Allocator hands out word-aligned byte regions.
//
// Alloc returns a zeroed region whose length is size rounded up to WordSize.
// Free takes back a region previously returned by Alloc; the caller must not
// touch it afterwards. Implementations must be safe for concurrent use.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(mem []byte)
	Close() error
}

// RoundUp rounds size up to the allocation granularity.
func RoundUp(size int) int {
	return (size + WordSize - 1) &^ (WordSize - 1)
}

// System allocates from the Go heap.
type System struct{}

// Alloc implements Allocator.
func (System) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("alloc: negative size %d", size)
	}
	if size == 0 {
		return nil, nil
	}
	return make([]byte, RoundUp(size)), nil
}

// Free implements Allocator. The region is left to the Go collector.
func (System) Free([]byte) {}

// Close implements Allocator.
func (System) Close() error { return nil }

// Stats is a point-in-time view of a Metered allocator.
type Stats struct {
	Allocs    uint64
	Frees     uint64
	LiveBytes int64
	PeakBytes int64
	Failures  uint64
}

// Metered counts traffic through an inner allocator and enforces an optional
// byte budget.
type Metered struct {
	inner Allocator
	limit int64

	allocs   atomic.Uint64
	frees    atomic.Uint64
	failures atomic.Uint64
	live     atomic.Int64
	peak     atomic.Int64
}

// NewMetered wraps inner. A limit of zero means unlimited.
func NewMetered(inner Allocator, limit int64) *Metered {
	if inner == nil {
		inner = System{}
	}
	return &Metered{inner: inner, limit: limit}
}

// Alloc implements Allocator.
func (m *Metered) Alloc(size int) ([]byte, error) {
	n := int64(RoundUp(size))
	if m.limit > 0 {
		if live := m.live.Add(n); live > m.limit {
			m.live.Add(-n)
			m.failures.Add(1)
			return nil, fmt.Errorf("alloc %d bytes (budget %d, live %d): %w", n, m.limit, live-n, ErrOutOfMemory)
		}
	} else {
		m.live.Add(n)
	}
	mem, err := m.inner.Alloc(size)
	if err != nil {
		m.live.Add(-n)
		m.failures.Add(1)
		return nil, err
	}
	m.allocs.Add(1)
	m.notePeak()
	return mem, nil
}

func (m *Metered) notePeak() {
	live := m.live.Load()
	for {
		peak := m.peak.Load()
		if live <= peak || m.peak.CompareAndSwap(peak, live) {
			return
		}
	}
}

// Free implements Allocator.
func (m *Metered) Free(mem []byte) {
	m.frees.Add(1)
	m.live.Add(-int64(len(mem)))
	m.inner.Free(mem)
}

// Close implements Allocator.
func (m *Metered) Close() error {
	return m.inner.Close()
}

// Stats returns the current counters.
func (m *Metered) Stats() Stats {
	return Stats{
		Allocs:    m.allocs.Load(),
		Frees:     m.frees.Load(),
		LiveBytes: m.live.Load(),
		PeakBytes: m.peak.Load(),
		Failures:  m.failures.Load(),
	}
}
