package stress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"boxrt/internal/alloc"
	"boxrt/internal/heap"
	"boxrt/internal/testkit"
	"boxrt/internal/trace"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func TestRunConservesRefcounts(t *testing.T) {
	h := heap.New(heap.Options{Debug: true})
	sink := &recordingSink{}
	rep, err := Run(context.Background(), h, Options{Workers: 4, Iters: 2000, Values: 12, Seed: 7, Progress: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Ops != 4*2000 {
		t.Fatalf("ops = %d, want %d", rep.Ops, 4*2000)
	}
	if rep.Counter != 4*250 {
		t.Fatalf("counter = %d, want %d", rep.Counter, 4*250)
	}
	if rep.Promoted != 14 {
		t.Fatalf("promoted = %d, want 14 (root, 12 leaves, counter)", rep.Promoted)
	}
	if rep.After.LiveBlocks != 0 {
		t.Fatalf("live blocks after run = %d", rep.After.LiveBlocks)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	done := map[int]bool{}
	var final *Event
	for i := range sink.events {
		evt := sink.events[i]
		if evt.Phase == PhaseRun && evt.Status == StatusDone {
			done[evt.Worker] = true
		}
		if evt.Worker < 0 && evt.Phase == PhaseVerify && evt.Status != StatusWorking {
			final = &sink.events[i]
		}
	}
	if len(done) != 4 {
		t.Fatalf("workers reporting done = %d, want 4", len(done))
	}
	if final == nil || final.Status != StatusDone {
		t.Fatalf("final event = %+v, want done", final)
	}
}

func TestRunKeepsPreexistingBlocks(t *testing.T) {
	h := heap.New(heap.Options{})
	keep, err := h.Allocate(heap.TagBytes, 0, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	rep, err := Run(context.Background(), h, Options{Workers: 2, Iters: 100, Values: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Before.LiveBlocks != 1 || rep.After.LiveBlocks != 1 {
		t.Fatalf("live before/after = %d/%d, want 1/1", rep.Before.LiveBlocks, rep.After.LiveBlocks)
	}
	if err := testkit.CheckHeapInvariants(h); err != nil {
		t.Fatalf("invariants after run: %v", err)
	}
	h.Drop(keep.Box())
}

func TestRunStopsOnCancel(t *testing.T) {
	h := heap.New(heap.Options{Debug: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, h, Options{Workers: 2, Iters: 1000, Values: 4})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("graph not torn down after cancel: %v", err)
	}
}

func TestRunBuildFailure(t *testing.T) {
	h := heap.New(heap.Options{Allocator: alloc.NewMetered(alloc.System{}, 512), Debug: true})
	sink := &recordingSink{}
	_, err := Run(context.Background(), h, Options{Workers: 1, Iters: 10, Values: 16, Progress: sink})
	if !errors.Is(err, alloc.ErrOutOfMemory) {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}
	if st := h.Stats(); st.LiveBlocks != 0 {
		t.Fatalf("partial graph leaked %d blocks", st.LiveBlocks)
	}
	last := sink.events[len(sink.events)-1]
	if last.Phase != PhaseBuild || last.Status != StatusError {
		t.Fatalf("last event = %+v, want build error", last)
	}
}

func TestRunEmitsSpan(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelPhase)
	h := heap.New(heap.Options{})
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := Run(ctx, h, Options{Workers: 1, Iters: 16, Values: 2}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, evt := range ring.Snapshot() {
		if evt.Name == "stress" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no stress span recorded")
	}
}
