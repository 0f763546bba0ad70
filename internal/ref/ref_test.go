package ref

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"boxrt/internal/alloc"
	"boxrt/internal/box"
	"boxrt/internal/heap"
	"boxrt/internal/integer"
)

func newHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h := heap.New(heap.Options{Allocator: alloc.NewPoison(nil), Debug: true})
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("close heap: %v", err)
		}
	})
	return h
}

func bigValue(t *testing.T, h *heap.Heap) box.Box {
	t.Helper()
	v, err := integer.Parse(h, "123456789012345678901234567890")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestGetSetOwnership(t *testing.T) {
	h := newHeap(t)
	v := bigValue(t, h)
	c, err := New(h, v)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := Get(h, c)
	if got != v || h.RefCount(v) != 2 {
		t.Fatalf("Get should return a new reference, rc=%d", h.RefCount(v))
	}
	h.Drop(got)

	Set(h, c, box.FromInt(5))
	if st := h.Stats(); st.LiveBlocks != 1 {
		t.Fatalf("old content should be freed, live=%d", st.LiveBlocks)
	}
	if Get(h, c) != box.FromInt(5) {
		t.Fatal("Set did not store the value")
	}

	old := Swap(h, c, bigValue(t, h))
	if old != box.FromInt(5) {
		t.Fatalf("Swap returned %s", old)
	}
	h.Drop(c)
	if st := h.Stats(); st.LiveBlocks != 0 {
		t.Fatalf("dropping the cell should free its content, live=%d", st.LiveBlocks)
	}
}

func TestModify(t *testing.T) {
	h := newHeap(t)
	c, err := New(h, box.FromInt(box.MaxImmediate))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	inc := func(old box.Box) (box.Box, error) {
		defer h.Drop(old)
		return integer.Add(h, old, box.FromInt(1))
	}
	if err := Modify(h, c, inc); err != nil {
		t.Fatalf("modify: %v", err)
	}
	v := Get(h, c)
	if !v.IsRef() || integer.Format(h, v) != "4611686018427387904" {
		t.Fatalf("content = %s", integer.Format(h, v))
	}
	h.Drop(v)

	boom := errors.New("boom")
	err = Modify(h, c, func(old box.Box) (box.Box, error) {
		h.Drop(old)
		return box.Invalid, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	v = Get(h, c)
	if integer.Format(h, v) != "4611686018427387904" {
		t.Fatal("failed Modify must leave the cell unchanged")
	}
	h.Drop(v)
	h.Drop(c)
}

func TestSharedCellPublishesSharedValues(t *testing.T) {
	h := newHeap(t)
	c, err := New(h, box.FromInt(0))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	h.MarkShared(c)

	v := bigValue(t, h)
	Set(h, c, v)
	if !h.Get(v).IsShared() {
		t.Fatal("value stored in a shared cell must be shared")
	}
	if dump := h.Dump(); dump == "" {
		t.Fatal("expected live blocks in dump")
	}
	h.Drop(c)
}

func TestConcurrentModifyOnSharedCell(t *testing.T) {
	h := newHeap(t)
	c, err := New(h, box.FromInt(box.MaxImmediate-1000))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	h.MarkShared(c)

	const workers = 8
	const iters = 500
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range iters {
				err := Modify(h, c, func(old box.Box) (box.Box, error) {
					defer h.Drop(old)
					return integer.Add(h, old, box.FromInt(1))
				})
				if err != nil {
					return err
				}
				h.Drop(Get(h, c))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker: %v", err)
	}
	v := Get(h, c)
	want, _ := integer.Add(h, box.FromInt(box.MaxImmediate-1000), box.FromInt(workers*iters))
	if !integer.Equal(h, v, want) {
		t.Fatalf("final = %s, want %s", integer.Format(h, v), integer.Format(h, want))
	}
	h.Drop(v)
	h.Drop(want)
	h.Drop(c)
}
