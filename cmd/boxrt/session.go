package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boxrt/internal/config"
	"boxrt/internal/observ"
	"boxrt/internal/rt"
)

// loadConfig reads boxrt.toml (explicit --config or discovered) and applies
// flag overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return config.Config{}, fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("debug") {
		if cfg.Heap.Debug, err = flags.GetBool("debug"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("max-bytes") {
		if cfg.Heap.MaxBytes, err = flags.GetInt64("max-bytes"); err != nil {
			return config.Config{}, err
		}
	}
	for flag, dst := range map[string]*string{
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	} {
		if !flags.Changed(flag) {
			continue
		}
		if *dst, err = flags.GetString(flag); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("trace-ring-size") {
		if cfg.Trace.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
			return config.Config{}, err
		}
	}
	// --trace without a level means "trace something".
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
		if !flags.Changed("trace-mode") {
			cfg.Trace.Mode = "stream"
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// withRuntime runs fn against a runtime opened from the effective
// configuration, with tracing, profiling and timings set up around it.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, r *rt.Runtime) error) (err error) {
	timer := observ.NewTimer()
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	var cfg config.Config
	if err := timer.Time("config", func() (e error) { cfg, e = loadConfig(cmd); return e }); err != nil {
		return err
	}

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProf()

	ctx, stopTrace, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { stopTrace(err) }()

	var r *rt.Runtime
	if err := timer.Time("open", func() (e error) { r, e = rt.Open(ctx, cfg); return e }); err != nil {
		return err
	}

	runIdx := timer.Begin(cmd.Name())
	runErr := fn(ctx, r)
	timer.End(runIdx, "")

	closeIdx := timer.Begin("close")
	closeErr := r.Close()
	timer.End(closeIdx, fmt.Sprintf("debug=%t", cfg.Heap.Debug))

	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return errors.Join(runErr, closeErr)
}
