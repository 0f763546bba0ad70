package testkit

import (
	"strings"
	"testing"

	"boxrt/internal/box"
	"boxrt/internal/heap"
)

func TestCheckHeapInvariantsHealthyGraph(t *testing.T) {
	h := heap.New(heap.Options{Debug: true})
	leaf, err := h.Allocate(heap.TagBytes, 0, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	root, err := h.Allocate(heap.TagRecord, 3, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	root.SetField(0, leaf.Box())
	root.SetField(1, h.Dup(leaf.Box()))
	root.SetField(2, box.FromInt(9))
	h.MarkShared(root.Box())

	if err := CheckHeapInvariants(h); err != nil {
		t.Fatalf("healthy graph reported: %v", err)
	}
	if roots := Roots(h); len(roots) != 1 || roots[0] != root.Handle() {
		t.Fatalf("roots = %v, want [%d]", roots, root.Handle())
	}
	h.Drop(root.Box())
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCheckHeapInvariantsFindsMissingOwner(t *testing.T) {
	h := heap.New(heap.Options{})
	leaf, err := h.Allocate(heap.TagBytes, 0, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	root, err := h.Allocate(heap.TagRecord, 2, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	// Two references, one owner.
	root.SetField(0, leaf.Box())
	root.SetField(1, leaf.Box())

	err = CheckHeapInvariants(h)
	if err == nil || !strings.Contains(err.Error(), "rc=1 but 2 in-heap references") {
		t.Fatalf("err = %v, want missing owner", err)
	}
	root.SetField(1, box.Invalid)
	h.Drop(root.Box())
}

func TestCheckHeapInvariantsFindsLocalChildOfShared(t *testing.T) {
	h := heap.New(heap.Options{})
	root, err := h.Allocate(heap.TagRecord, 1, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	h.MarkShared(root.Box())
	leaf, err := h.Allocate(heap.TagBytes, 0, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	// ExchangeField skips the shared-mutation guard.
	root.ExchangeField(0, leaf.Box())

	err = CheckHeapInvariants(h)
	if err == nil || !strings.Contains(err.Error(), "shared block references local") {
		t.Fatalf("err = %v, want shared/local violation", err)
	}
	h.Drop(root.Box())
}
