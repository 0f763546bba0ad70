package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"boxrt/internal/version"
)

// newRootCmd assembles the command tree with its persistent flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boxrt",
		Short:         "Boxed value runtime: heap, refcounting and bignums",
		Long:          `boxrt drives the boxed value runtime: integer arithmetic with transparent bignum promotion, heap dumps and concurrent refcount stress runs.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			return applyColorMode(mode)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to boxrt.toml (default: nearest boxrt.toml above the working directory)")
	flags.Bool("debug", false, "enable debug heap (tombstones, poisoning, leak check on exit)")
	flags.Int64("max-bytes", 0, "heap budget in bytes (0 = unlimited)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")

	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 0, "ring buffer capacity for ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	flags.String("cpu-profile", "", "write CPU profile to file")
	flags.String("mem-profile", "", "write heap profile to file")
	flags.String("runtime-trace", "", "write Go execution trace to file")

	root.AddCommand(
		newCalcCmd(),
		newChainCmd(),
		newDumpCmd(),
		newStressCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(1)
	}
}

func applyColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
