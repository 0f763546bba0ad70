// Package testkit holds heap invariant checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"boxrt/internal/box"
	"boxrt/internal/heap"
)

// CheckHeapInvariants walks every live block of h and verifies:
// 1) every live block has a positive refcount
// 2) every reference field points to a live block
// 3) no block has fewer owners than references to it from inside the heap
// 4) shared blocks only reference shared blocks
// 5) the live block counter matches the walk
//
// It must not run concurrently with drops.
func CheckHeapInvariants(h *heap.Heap) error {
	snap := h.Snapshot()
	live := make(map[box.Handle]heap.BlockRecord, len(snap.Blocks))
	for _, rec := range snap.Blocks {
		live[box.Handle(rec.Handle)] = rec
	}

	var errs []error
	incoming := make(map[box.Handle]int32, len(live))
	for handle, rec := range live {
		if rec.RC < 1 {
			errs = append(errs, fmt.Errorf("%s#%d: live with rc=%d", rec.Tag, handle, rec.RC))
		}
		b := h.Get(box.FromHandle(handle))
		for i := range b.Scan() {
			f := b.Field(i)
			if !f.IsRef() {
				continue
			}
			child, ok := live[f.Handle()]
			if !ok {
				errs = append(errs, fmt.Errorf("%s#%d field %d: dangling reference to #%d", rec.Tag, handle, i, f.Handle()))
				continue
			}
			incoming[f.Handle()]++
			if rec.Shared && !child.Shared {
				errs = append(errs, fmt.Errorf("%s#%d field %d: shared block references local %s#%d",
					rec.Tag, handle, i, child.Tag, f.Handle()))
			}
		}
	}
	for handle, n := range incoming {
		if rec := live[handle]; rec.RC < n {
			errs = append(errs, fmt.Errorf("%s#%d: rc=%d but %d in-heap references", rec.Tag, handle, rec.RC, n))
		}
	}

	liveCount, err := safecast.Conv[uint64](len(live))
	if err != nil {
		errs = append(errs, err)
	} else if liveCount != snap.Stats.LiveBlocks {
		errs = append(errs, fmt.Errorf("stats report %d live blocks, walk found %d", snap.Stats.LiveBlocks, liveCount))
	}
	return errors.Join(errs...)
}

// Roots returns the handles of live blocks that no other live block
// references, in snapshot order.
func Roots(h *heap.Heap) []box.Handle {
	snap := h.Snapshot()
	referenced := make(map[box.Handle]bool, len(snap.Blocks))
	for _, rec := range snap.Blocks {
		b := h.Get(box.FromHandle(box.Handle(rec.Handle)))
		for i := range b.Scan() {
			if f := b.Field(i); f.IsRef() {
				referenced[f.Handle()] = true
			}
		}
	}
	var roots []box.Handle
	for _, rec := range snap.Blocks {
		if handle := box.Handle(rec.Handle); !referenced[handle] {
			roots = append(roots, handle)
		}
	}
	return roots
}
