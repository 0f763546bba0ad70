package alloc

import (
	"fmt"
	"sync"
)

// PoisonByte fills every region returned to a Poison allocator.
const PoisonByte byte = 0xDB

// Poison is a debugging allocator: it tracks live regions, rejects double
// frees and frees of foreign memory, and overwrites freed regions with
// PoisonByte so stale reads surface as garbage instead of plausible data.
type Poison struct {
	inner Allocator

	mu   sync.Mutex
	live map[*byte]int
}

// NewPoison wraps inner.
func NewPoison(inner Allocator) *Poison {
	if inner == nil {
		inner = System{}
	}
	return &Poison{inner: inner, live: make(map[*byte]int, 64)}
}

// Alloc implements Allocator.
func (p *Poison) Alloc(size int) ([]byte, error) {
	mem, err := p.inner.Alloc(size)
	if err != nil || len(mem) == 0 {
		return mem, err
	}
	p.mu.Lock()
	p.live[&mem[0]] = len(mem)
	p.mu.Unlock()
	return mem, nil
}

// Free implements Allocator. It panics on a double free or a foreign region.
func (p *Poison) Free(mem []byte) {
	if len(mem) == 0 {
		return
	}
	key := &mem[0]
	p.mu.Lock()
	size, ok := p.live[key]
	if ok {
		delete(p.live, key)
	}
	p.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("alloc: free of untracked or already freed region (%d bytes)", len(mem)))
	}
	if size != len(mem) {
		panic(fmt.Sprintf("alloc: free size mismatch: got %d want %d", len(mem), size))
	}
	for i := range mem {
		mem[i] = PoisonByte
	}
	p.inner.Free(mem)
}

// Live reports the number of regions not yet freed.
func (p *Poison) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Close implements Allocator.
func (p *Poison) Close() error {
	return p.inner.Close()
}

// IsPoisoned reports whether every byte of mem carries the poison pattern.
func IsPoisoned(mem []byte) bool {
	if len(mem) == 0 {
		return false
	}
	for _, b := range mem {
		if b != PoisonByte {
			return false
		}
	}
	return true
}
