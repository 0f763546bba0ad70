// Package stress exercises the heap from many goroutines at once. It builds
// a graph of integers, strings, byte buffers and a counter cell, publishes
// it with MarkShared, and lets workers hammer it with balanced dup/drop
// pairs and reads. Afterwards every refcount must be back where it started
// and dropping the root must free the whole graph.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"boxrt/internal/box"
	"boxrt/internal/bytebuf"
	"boxrt/internal/heap"
	"boxrt/internal/integer"
	"boxrt/internal/ref"
	"boxrt/internal/strbuf"
	"boxrt/internal/trace"
)

// ErrConservation reports a refcount that did not return to its starting value.
var ErrConservation = errors.New("refcount conservation violated")

// Options configures a run.
type Options struct {
	Workers int // defaults to GOMAXPROCS
	Iters   int // per worker
	Values  int // leaves in the shared graph
	Seed    uint64
	// Progress receives events; nil discards them.
	Progress ProgressSink
}

// Report summarizes a run.
type Report struct {
	Workers  int
	Iters    int
	Ops      uint64
	Counter  int64
	Elapsed  time.Duration
	Before   heap.Stats
	After    heap.Stats
	Promoted uint64
}

const progressSteps = 50

// Run executes the stress workload against h.
func Run(ctx context.Context, h *heap.Heap, opts Options) (Report, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Iters <= 0 {
		opts.Iters = 10_000
	}
	if opts.Values <= 0 {
		opts.Values = 32
	}
	sink := opts.Progress
	if sink == nil {
		sink = nopSink{}
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRuntime, "stress", 0).
		WithExtra("workers", fmt.Sprint(opts.Workers)).
		WithExtra("iters", fmt.Sprint(opts.Iters))

	report := Report{Workers: opts.Workers, Iters: opts.Iters, Before: h.Stats()}
	start := time.Now()

	sink.OnEvent(Event{Worker: -1, Phase: PhaseBuild, Status: StatusWorking})
	g, err := build(h, opts.Values)
	if err != nil {
		sink.OnEvent(Event{Worker: -1, Phase: PhaseBuild, Status: StatusError, Err: err})
		span.End("build failed")
		return report, err
	}
	h.MarkShared(g.root)
	report.Promoted = h.Stats().Promotions - report.Before.Promotions
	baseline := g.refcounts(h)

	for w := range opts.Workers {
		sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusQueued, Total: opts.Iters})
	}
	var ops atomic.Uint64
	runErr := g.run(ctx, h, opts, sink, &ops)
	report.Ops = ops.Load()

	sink.OnEvent(Event{Worker: -1, Phase: PhaseVerify, Status: StatusWorking})
	counter := ref.Get(h, g.counter)
	report.Counter, _ = integer.Int64(h, counter)
	h.Drop(counter)

	verifyErr := g.verify(h, baseline)
	h.Drop(g.root)
	report.After = h.Stats()
	report.Elapsed = time.Since(start)

	if runErr == nil && verifyErr == nil {
		if live := report.After.LiveBlocks; live != report.Before.LiveBlocks {
			verifyErr = fmt.Errorf("%w: %d blocks alive after teardown, %d before",
				ErrConservation, live, report.Before.LiveBlocks)
		}
	}
	if runErr == nil && verifyErr == nil && opts.Iters > 0 {
		if want := int64(opts.Workers) * int64(opts.Iters/8); report.Counter != want {
			verifyErr = fmt.Errorf("counter = %d, want %d", report.Counter, want)
		}
	}
	err = errors.Join(runErr, verifyErr)
	status := StatusDone
	if err != nil {
		status = StatusError
	}
	sink.OnEvent(Event{Worker: -1, Phase: PhaseVerify, Status: status, Err: err, Elapsed: report.Elapsed})
	span.WithExtra("ops", fmt.Sprint(report.Ops)).End(string(status))
	return report, err
}

type graph struct {
	root    box.Box
	leaves  []box.Box
	counter box.Box
}

// build creates root = record(leaves..., counter).
func build(h *heap.Heap, n int) (_ *graph, err error) {
	root, err := h.Allocate(heap.TagRecord, n+1, 0)
	if err != nil {
		return nil, err
	}
	g := &graph{root: root.Box()}
	defer func() {
		if err != nil {
			h.Drop(g.root)
		}
	}()
	for i := range n {
		var v box.Box
		switch i % 3 {
		case 0:
			v, err = integer.Pow(h, box.FromInt(int64(3+i)), uint64(40+i))
		case 1:
			v, err = strbuf.FromGo(h, fmt.Sprintf("leaf-%d-äöü-日本", i))
		default:
			v, err = bytebuf.Create(h, 32+i)
		}
		if err != nil {
			return nil, err
		}
		root.SetField(i, v)
		g.leaves = append(g.leaves, v)
	}
	g.counter, err = ref.New(h, box.FromInt(0))
	if err != nil {
		return nil, err
	}
	root.SetField(n, g.counter)
	return g, nil
}

func (g *graph) refcounts(h *heap.Heap) []int32 {
	out := make([]int32, 0, len(g.leaves)+2)
	out = append(out, h.RefCount(g.root), h.RefCount(g.counter))
	for _, v := range g.leaves {
		out = append(out, h.RefCount(v))
	}
	return out
}

func (g *graph) verify(h *heap.Heap, baseline []int32) error {
	now := g.refcounts(h)
	for i := range now {
		if now[i] != baseline[i] {
			return fmt.Errorf("%w: slot %d rc=%d, want %d", ErrConservation, i, now[i], baseline[i])
		}
	}
	return nil
}

func (g *graph) run(ctx context.Context, h *heap.Heap, opts Options, sink ProgressSink, ops *atomic.Uint64) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	step := max(opts.Iters/progressSteps, 1)

	for w := range opts.Workers {
		eg.Go(func() error {
			started := time.Now()
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(w)))
			sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusWorking, Total: opts.Iters})
			for i := range opts.Iters {
				if i%step == 0 {
					select {
					case <-gctx.Done():
						err := gctx.Err()
						sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusError, Done: i, Total: opts.Iters, Err: err})
						return err
					default:
					}
					if i > 0 {
						sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusWorking, Done: i, Total: opts.Iters})
					}
				}
				if err := g.step(h, rng, i); err != nil {
					sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusError, Done: i, Total: opts.Iters, Err: err})
					return fmt.Errorf("worker %d: %w", w, err)
				}
				ops.Add(1)
			}
			sink.OnEvent(Event{Worker: w, Phase: PhaseRun, Status: StatusDone, Done: opts.Iters, Total: opts.Iters, Elapsed: time.Since(started)})
			return nil
		})
	}
	return eg.Wait()
}

// step performs one balanced operation on the shared graph.
func (g *graph) step(h *heap.Heap, rng *rand.Rand, i int) error {
	if i%8 == 7 {
		return ref.Modify(h, g.counter, func(old box.Box) (box.Box, error) {
			defer h.Drop(old)
			return integer.Add(h, old, box.FromInt(1))
		})
	}
	v := h.Dup(g.leaves[rng.IntN(len(g.leaves))])
	defer h.Drop(v)
	switch h.Get(v).Tag() {
	case heap.TagBigInt:
		sum, err := integer.Add(h, v, v)
		if err != nil {
			return err
		}
		h.Drop(sum)
	case heap.TagString:
		if strbuf.Count(h, v) == 0 {
			return errors.New("empty leaf string")
		}
	case heap.TagBytes:
		_ = bytebuf.Hash(h, v)
	}
	return nil
}
