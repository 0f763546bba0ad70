package heap

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

type counters struct {
	allocs       atomic.Uint64
	frees        atomic.Uint64
	failures     atomic.Uint64
	rcIncr       atomic.Uint64
	rcDecr       atomic.Uint64
	promotions   atomic.Uint64
	liveBytes    atomic.Int64
	peakWorklist atomic.Int64
}

func (c *counters) notePeakWorklist(n int64) {
	for {
		cur := c.peakWorklist.Load()
		if n <= cur || c.peakWorklist.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Stats is a point-in-time view of heap activity.
type Stats struct {
	Allocs       uint64 `msgpack:"allocs" cbor:"allocs" json:"allocs"`
	Frees        uint64 `msgpack:"frees" cbor:"frees" json:"frees"`
	Failures     uint64 `msgpack:"failures" cbor:"failures" json:"failures"`
	RCIncr       uint64 `msgpack:"rc_incr" cbor:"rc_incr" json:"rc_incr"`
	RCDecr       uint64 `msgpack:"rc_decr" cbor:"rc_decr" json:"rc_decr"`
	Promotions   uint64 `msgpack:"promotions" cbor:"promotions" json:"promotions"`
	LiveBlocks   uint64 `msgpack:"live_blocks" cbor:"live_blocks" json:"live_blocks"`
	LiveBytes    int64  `msgpack:"live_bytes" cbor:"live_bytes" json:"live_bytes"`
	PeakWorklist int64  `msgpack:"peak_worklist" cbor:"peak_worklist" json:"peak_worklist"`
}

// Stats returns the current counters.
func (h *Heap) Stats() Stats {
	allocs := h.counters.allocs.Load()
	frees := h.counters.frees.Load()
	live := uint64(0)
	if allocs > frees {
		live = allocs - frees
	}
	return Stats{
		Allocs:       allocs,
		Frees:        frees,
		Failures:     h.counters.failures.Load(),
		RCIncr:       h.counters.rcIncr.Load(),
		RCDecr:       h.counters.rcDecr.Load(),
		Promotions:   h.counters.promotions.Load(),
		LiveBlocks:   live,
		LiveBytes:    h.counters.liveBytes.Load(),
		PeakWorklist: h.counters.peakWorklist.Load(),
	}
}

// CheckLeaks returns a *Error with code PanicHeapLeak when live blocks remain.
func (h *Heap) CheckLeaks() error {
	leakCount := 0
	kindCounts := make(map[Tag]int, 8)
	const maxList = 8
	list := make([]string, 0, maxList)

	h.table.each(func(b *Block) {
		if b.isFreed() {
			return
		}
		leakCount++
		kindCounts[b.tag]++
		if len(list) < maxList {
			list = append(list, fmt.Sprintf("%s#%d(rc=%d)", b.tag, b.handle, b.RefCount()))
		}
	})
	if leakCount == 0 {
		return nil
	}

	msg := fmt.Sprintf("heap leak detected: %d blocks still alive", leakCount)
	kinds := make([]string, 0, len(kindCounts))
	for tag, n := range kindCounts {
		kinds = append(kinds, fmt.Sprintf("%s=%d", tag, n))
	}
	sort.Strings(kinds)
	msg += " (" + strings.Join(kinds, ", ") + ")"
	msg += ": " + strings.Join(list, ", ")
	return &Error{Code: PanicHeapLeak, Message: msg}
}
