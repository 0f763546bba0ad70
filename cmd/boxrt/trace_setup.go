package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"boxrt/internal/config"
	"boxrt/internal/trace"
)

// setupTracing creates the tracer described by cfg and attaches it to the
// command context. The returned stop function flushes and closes it; when the
// command failed, ring-buffered events are dumped to stderr first.
func setupTracing(cmd *cobra.Command, cfg config.Config) (context.Context, func(error), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	heartbeatInterval, err := cmd.Root().PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	tc, err := cfg.TracerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace configuration: %w", err)
	}
	if tc.Level == trace.LevelOff {
		return trace.WithTracer(ctx, trace.Nop), func(error) {}, nil
	}
	tc.Heartbeat = heartbeatInterval

	tracer, err := trace.New(tc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx = trace.WithTracer(ctx, tracer)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	stop := func(cmdErr error) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if cmdErr != nil {
			if ring, ok := ringOf(tracer); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: last %d events before failure:\n", len(ring.Snapshot()))
				if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return ctx, stop, nil
}

func ringOf(t trace.Tracer) (*trace.RingTracer, bool) {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t, true
	case *trace.MultiTracer:
		return t.Ring()
	default:
		return nil, false
	}
}
