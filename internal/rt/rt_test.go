package rt

import (
	"context"
	"errors"
	"testing"

	"boxrt/internal/alloc"
	"boxrt/internal/config"
	"boxrt/internal/heap"
	"boxrt/internal/integer"
	"boxrt/internal/trace"
)

func debugConfig() config.Config {
	cfg := config.Default()
	cfg.Heap.Debug = true
	return cfg
}

func TestOpenCloseBalanced(t *testing.T) {
	r, err := Open(context.Background(), debugConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := r.Int("100000000000000000000")
	if err != nil {
		t.Fatalf("int: %v", err)
	}
	s, err := integer.ToString(r.Heap, a)
	if err != nil {
		t.Fatalf("to string: %v", err)
	}
	r.Drop(a)
	r.Drop(s)
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if st := r.AllocStats(); st.Allocs != 2 || st.Frees != 2 || st.LiveBytes != 0 {
		t.Fatalf("allocator stats: %+v", st)
	}
}

func TestCloseReportsLeaks(t *testing.T) {
	r, err := Open(context.Background(), debugConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.String("leaked"); err != nil {
		t.Fatalf("string: %v", err)
	}
	err = r.Close()
	var herr *heap.Error
	if !errors.As(err, &herr) || herr.Code != heap.PanicHeapLeak {
		t.Fatalf("expected leak error, got %v", err)
	}
}

func TestBudgetIsEnforced(t *testing.T) {
	cfg := config.Default()
	cfg.Heap.MaxBytes = 64
	r, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if _, err := r.String(string(make([]byte, 128))); !errors.Is(err, alloc.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if r.AllocStats().Failures != 1 {
		t.Fatalf("failure not recorded: %+v", r.AllocStats())
	}
}

func TestTracerFromContext(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	r, err := Open(ctx, config.Default())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if r.Tracer != ring {
		t.Fatal("runtime should use the context tracer")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	names := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		names[ev.Name] = true
	}
	if !names["open"] || !names["close"] {
		t.Fatalf("missing lifecycle events: %v", names)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Trace.Level = "chatty"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected config error")
	}
}
