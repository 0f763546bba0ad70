package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"boxrt/internal/rt"
	"boxrt/internal/stress"
)

type stressFlags struct {
	workers int
	iters   int
	values  int
	seed    uint64
	ui      string
}

func newStressCmd() *cobra.Command {
	var f stressFlags
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer a shared value graph from many goroutines",
		Long: `Build a graph of integers, strings, byte buffers and a counter cell, share
it between worker goroutines that duplicate, read and drop its values, then
check that every refcount returned to its starting value and that dropping the
graph frees it completely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := readUIMode(f.ui)
			if err != nil {
				return err
			}
			if f.workers <= 0 {
				f.workers = runtime.GOMAXPROCS(0)
			}
			return withRuntime(cmd, func(ctx context.Context, r *rt.Runtime) error {
				return runStress(ctx, cmd.OutOrStdout(), r, f, shouldUseTUI(mode))
			})
		},
	}
	cmd.Flags().IntVar(&f.workers, "workers", 0, "number of worker goroutines (default GOMAXPROCS)")
	cmd.Flags().IntVar(&f.iters, "iters", 100_000, "operations per worker")
	cmd.Flags().IntVar(&f.values, "values", 32, "leaf values in the shared graph")
	cmd.Flags().Uint64Var(&f.seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	cmd.Flags().StringVar(&f.ui, "ui", "auto", "progress UI (auto|on|off)")
	return cmd
}

func runStress(ctx context.Context, out io.Writer, r *rt.Runtime, f stressFlags, tui bool) error {
	opts := stress.Options{
		Workers: f.workers,
		Iters:   f.iters,
		Values:  f.values,
		Seed:    f.seed,
	}
	var (
		rep stress.Report
		err error
	)
	if tui {
		rep, err = runStressWithUI(ctx, "stress", r.Heap, opts)
	} else {
		rep, err = stress.Run(ctx, r.Heap, opts)
	}
	printStressReport(out, rep, f.seed)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, color.GreenString("ok: refcounts conserved, graph fully reclaimed"))
	return nil
}

func printStressReport(out io.Writer, rep stress.Report, seed uint64) {
	perSec := 0.0
	if rep.Elapsed > 0 {
		perSec = float64(rep.Ops) / rep.Elapsed.Seconds()
	}
	fmt.Fprintf(out, "workers=%d iters=%d seed=%d\n", rep.Workers, rep.Iters, seed)
	fmt.Fprintf(out, "ops=%d in %s (%.0f ops/s) counter=%d\n", rep.Ops, rep.Elapsed.Round(time.Millisecond), perSec, rep.Counter)
	fmt.Fprintf(out, "promoted=%d rc+=%d rc-=%d live=%d->%d\n",
		rep.Promoted,
		rep.After.RCIncr-rep.Before.RCIncr,
		rep.After.RCDecr-rep.Before.RCDecr,
		rep.Before.LiveBlocks, rep.After.LiveBlocks)
}
