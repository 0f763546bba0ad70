package heap

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"boxrt/internal/alloc"
	"boxrt/internal/box"
)

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

type page [pageSize]atomic.Pointer[Block]

// table maps handles to blocks. Lookups are lock-free; inserts and removals
// take the mutex. The page directory is replaced wholesale when it grows, so a
// reader always sees a consistent directory.
type table struct {
	mu   sync.Mutex
	dir  atomic.Pointer[[]*page]
	next box.Handle
	free []box.Handle

	// reuse is false on debug heaps: freed handles stay occupied by tombstones
	// so stale references are caught instead of aliasing a new block.
	reuse bool
}

func (t *table) insert(b *Block) (box.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var h box.Handle
	if t.reuse && len(t.free) > 0 {
		h = t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
	} else {
		if t.next == 0 {
			t.next = 1
		}
		if t.next == math.MaxUint32 {
			return 0, fmt.Errorf("handle space exhausted: %w", alloc.ErrOutOfMemory)
		}
		h = t.next
		t.next++
	}
	b.handle = h
	t.pageFor(h)[h&pageMask].Store(b)
	return h, nil
}

// pageFor returns the page holding h, growing the directory. Caller holds mu.
func (t *table) pageFor(h box.Handle) *page {
	idx := int(h >> pageShift)
	var dir []*page
	if p := t.dir.Load(); p != nil {
		dir = *p
	}
	if idx < len(dir) && dir[idx] != nil {
		return dir[idx]
	}
	grown := make([]*page, max(idx+1, len(dir)))
	copy(grown, dir)
	grown[idx] = new(page)
	t.dir.Store(&grown)
	return grown[idx]
}

func (t *table) lookup(h box.Handle) *Block {
	p := t.dir.Load()
	if p == nil {
		return nil
	}
	dir := *p
	idx := int(h >> pageShift)
	if idx >= len(dir) || dir[idx] == nil {
		return nil
	}
	return dir[idx][h&pageMask].Load()
}

// remove releases h. Debug tables keep the tombstone in place.
func (t *table) remove(h box.Handle) {
	if !t.reuse {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if p := t.dir.Load(); p != nil {
		(*p)[h>>pageShift][h&pageMask].Store(nil)
	}
	t.free = append(t.free, h)
}

// each calls fn for every occupied slot, tombstones included, in handle order.
func (t *table) each(fn func(*Block)) {
	t.mu.Lock()
	limit := t.next
	t.mu.Unlock()
	for h := box.Handle(1); h < limit; h++ {
		if b := t.lookup(h); b != nil {
			fn(b)
		}
	}
}
