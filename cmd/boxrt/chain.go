package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"boxrt/internal/box"
	"boxrt/internal/heap"
	"boxrt/internal/rt"
	"boxrt/internal/trace"
)

func newChainCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Build a linked chain of records and drop it",
		Long:  `Build a singly linked chain of records, then drop its head and report how long reclamation took and how deep the worklist grew.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if length <= 0 {
				return fmt.Errorf("--length must be positive, got %d", length)
			}
			return withRuntime(cmd, func(ctx context.Context, r *rt.Runtime) error {
				return runChain(ctx, cmd.OutOrStdout(), r, length)
			})
		},
	}
	cmd.Flags().IntVar(&length, "length", 1_000_000, "number of records in the chain")
	return cmd
}

func runChain(ctx context.Context, out io.Writer, r *rt.Runtime, length int) error {
	h := r.Heap
	tracer := trace.FromContext(ctx)

	span := trace.Begin(tracer, trace.ScopeRuntime, "chain-build", 0)
	start := time.Now()
	head := box.Empty
	for i := range length {
		b, err := h.Allocate(heap.TagRecord, 2, 0)
		if err != nil {
			h.Drop(head)
			span.End("failed")
			return fmt.Errorf("record %d: %w", i, err)
		}
		b.SetField(0, box.FromInt(int64(i)))
		b.SetField(1, head)
		head = b.Box()
	}
	built := time.Since(start)
	span.End(fmt.Sprintf("length=%d", length))

	before := h.Stats()
	span = trace.Begin(tracer, trace.ScopeRuntime, "chain-drop", 0)
	start = time.Now()
	h.Drop(head)
	dropped := time.Since(start)
	span.End("")
	after := h.Stats()

	fmt.Fprintf(out, "built %d records in %s\n", length, built.Round(time.Microsecond))
	fmt.Fprintf(out, "dropped in %s: freed=%d peak_worklist=%d\n",
		dropped.Round(time.Microsecond), after.Frees-before.Frees, after.PeakWorklist)
	return nil
}
