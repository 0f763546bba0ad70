package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"boxrt/internal/box"
	"boxrt/internal/bytebuf"
	"boxrt/internal/heap"
	"boxrt/internal/ref"
	"boxrt/internal/rt"
	"boxrt/internal/strbuf"
)

func newDumpCmd() *cobra.Command {
	var (
		format string
		share  bool
		cell   bool
	)
	cmd := &cobra.Command{
		Use:   "dump [value...]",
		Short: "Box values into a record and print a heap snapshot",
		Long: `Box every argument (integer literals become integers, b:<text> becomes a
byte buffer, anything else a string), store them in one record and write a
snapshot of the live heap.`,
		Example: "  boxrt dump 42 340282366920938463463374607431768211456 héllo b:raw\n  boxrt dump --format cbor 1 2 3 > heap.cbor",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := heap.ParseSnapshotFormat(format)
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(_ context.Context, r *rt.Runtime) error {
				return runDump(cmd.OutOrStdout(), r, args, f, share, cell)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "snapshot format (text|msgpack|cbor)")
	cmd.Flags().BoolVar(&share, "shared", false, "mark the record shared before the snapshot")
	cmd.Flags().BoolVar(&cell, "ref", false, "hold the record through a ref cell")
	return cmd
}

func runDump(out io.Writer, r *rt.Runtime, args []string, format heap.SnapshotFormat, share, cell bool) error {
	h := r.Heap
	rec, err := h.Allocate(heap.TagRecord, len(args), 0)
	if err != nil {
		return err
	}
	root := rec.Box()
	defer func() { h.Drop(root) }()

	for i, arg := range args {
		v, err := boxArg(r, arg)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		rec.SetField(i, v)
	}
	if cell {
		// New consumes root and returns Invalid on failure.
		if root, err = ref.New(h, root); err != nil {
			return err
		}
	}
	if share {
		h.MarkShared(root)
	}
	return heap.EncodeSnapshot(out, h.Snapshot(), format)
}

func boxArg(r *rt.Runtime, arg string) (box.Box, error) {
	if raw, ok := strings.CutPrefix(arg, "b:"); ok {
		return bytebuf.FromBytes(r.Heap, []byte(raw))
	}
	if v, err := r.Int(arg); err == nil {
		return v, nil
	}
	return strbuf.FromGo(r.Heap, arg)
}
