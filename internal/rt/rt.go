// Package rt is the runtime's init/teardown hook. Open assembles the
// allocator chain, the heap and the tracer from a configuration; Close
// checks for leaks and releases everything Open acquired.
package rt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"boxrt/internal/alloc"
	"boxrt/internal/box"
	"boxrt/internal/config"
	"boxrt/internal/heap"
	"boxrt/internal/integer"
	"boxrt/internal/strbuf"
	"boxrt/internal/trace"
)

// Runtime owns one heap and its allocator chain.
type Runtime struct {
	Heap   *heap.Heap
	Tracer trace.Tracer

	cfg         config.Config
	meter       *alloc.Metered
	poison      *alloc.Poison
	ownedTracer trace.Tracer
	closeOnce   sync.Once
	closeErr    error
}

// Open builds a runtime. The tracer attached to ctx is used when present;
// otherwise one is created from cfg.Trace and closed by Close.
func Open(ctx context.Context, cfg config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime config: %w", err)
	}
	r := &Runtime{cfg: cfg}

	r.Tracer = trace.FromContext(ctx)
	if r.Tracer == trace.Nop {
		tc, err := cfg.TracerConfig()
		if err != nil {
			return nil, err
		}
		t, err := trace.New(tc)
		if err != nil {
			return nil, err
		}
		r.Tracer = t
		r.ownedTracer = t
	}

	// System -> Metered (budget, stats) -> Poison (debug only)
	r.meter = alloc.NewMetered(alloc.System{}, cfg.Heap.MaxBytes)
	var a alloc.Allocator = r.meter
	if cfg.Heap.Debug && cfg.Heap.Poison {
		r.poison = alloc.NewPoison(r.meter)
		a = r.poison
	}
	r.Heap = heap.New(heap.Options{Allocator: a, Debug: cfg.Heap.Debug, Tracer: r.Tracer})

	trace.Point(r.Tracer, trace.ScopeRuntime, "open",
		fmt.Sprintf("debug=%t poison=%t max_bytes=%d", cfg.Heap.Debug, r.poison != nil, cfg.Heap.MaxBytes))
	return r, nil
}

// Config returns the configuration the runtime was opened with.
func (r *Runtime) Config() config.Config { return r.cfg }

// AllocStats reports allocator traffic.
func (r *Runtime) AllocStats() alloc.Stats { return r.meter.Stats() }

// Close tears the runtime down. On a debug runtime leaked blocks are
// reported as a *heap.Error. Close is idempotent.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		span := trace.Begin(r.Tracer, trace.ScopeRuntime, "close", 0)
		st := r.Heap.Stats()
		err := r.Heap.Close()
		span.WithExtra("live", fmt.Sprint(st.LiveBlocks)).End(fmt.Sprintf("allocs=%d frees=%d", st.Allocs, st.Frees))
		if r.ownedTracer != nil {
			err = errors.Join(err, r.ownedTracer.Close())
		}
		r.closeErr = err
	})
	return r.closeErr
}

// Int parses an integer literal into a Box owned by the caller.
func (r *Runtime) Int(s string) (box.Box, error) {
	return integer.Parse(r.Heap, s)
}

// String copies s into a string Box owned by the caller.
func (r *Runtime) String(s string) (box.Box, error) {
	return strbuf.FromGo(r.Heap, s)
}

// Drop releases v.
func (r *Runtime) Drop(v box.Box) { r.Heap.Drop(v) }
