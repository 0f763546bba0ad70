package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"boxrt/internal/box"
	"boxrt/internal/heap"
	"boxrt/internal/integer"
	"boxrt/internal/rt"
)

type binaryOp func(h *heap.Heap, a, b box.Box) (box.Box, error)

var calcOps = map[string]binaryOp{
	"+":   integer.Add,
	"-":   integer.Sub,
	"*":   integer.Mul,
	"/":   integer.Div,
	"%":   integer.Mod,
	"and": integer.And,
	"or":  integer.Or,
	"xor": integer.Xor,
}

func newCalcCmd() *cobra.Command {
	var hex bool
	cmd := &cobra.Command{
		Use:   "calc <a> <op> <b>",
		Short: "Evaluate one integer operation",
		Long: `Evaluate one integer operation on arbitrary-size operands.

Operators: + - * / % and or xor divmod ediv cmp pow shl shr
Literals accept 0x, 0o and 0b prefixes and _ digit separators.
Flags go before the operands; use -- when the first operand is negative.`,
		Example: "  boxrt calc 123456789012345678901234567890 '*' 987654321\n  boxrt calc --hex 2 pow 200\n  boxrt calc -- -7 ediv 2",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(_ context.Context, r *rt.Runtime) error {
				return runCalc(cmd.OutOrStdout(), r, args[0], args[1], args[2], hex)
			})
		},
	}
	cmd.Flags().BoolVar(&hex, "hex", false, "print results in hexadecimal")
	// Operands such as -5 must not be parsed as flags.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runCalc(out io.Writer, r *rt.Runtime, lhs, op, rhs string, hex bool) error {
	h := r.Heap
	a, err := r.Int(lhs)
	if err != nil {
		return err
	}
	defer h.Drop(a)

	switch op {
	case "pow", "shl", "shr":
		n, err := strconv.ParseUint(rhs, 0, 32)
		if err != nil {
			return fmt.Errorf("%s: exponent %q: %w", op, rhs, err)
		}
		var res box.Box
		switch op {
		case "pow":
			res, err = integer.Pow(h, a, n)
		case "shl":
			res, err = integer.Shl(h, a, int(n))
		default:
			res, err = integer.Shr(h, a, int(n))
		}
		if err != nil {
			return err
		}
		printValue(out, h, "", res, hex)
		h.Drop(res)
		return nil
	}

	b, err := r.Int(rhs)
	if err != nil {
		return err
	}
	defer h.Drop(b)

	switch op {
	case "cmp":
		fmt.Fprintln(out, integer.Cmp(h, a, b))
		return nil
	case "divmod", "ediv":
		divmod := integer.DivMod
		if op == "ediv" {
			divmod = integer.DivModEuclid
		}
		q, m, err := divmod(h, a, b)
		if err != nil {
			return err
		}
		printValue(out, h, "q = ", q, hex)
		printValue(out, h, "r = ", m, hex)
		h.Drop(q)
		h.Drop(m)
		return nil
	}

	fn, ok := calcOps[op]
	if !ok {
		return fmt.Errorf("unknown operator %q", op)
	}
	res, err := fn(h, a, b)
	if err != nil {
		return err
	}
	printValue(out, h, "", res, hex)
	h.Drop(res)
	return nil
}

var reprColor = color.New(color.FgHiBlack)

func printValue(out io.Writer, h *heap.Heap, prefix string, v box.Box, hex bool) {
	text := integer.Format(h, v)
	if hex {
		text = integer.FormatHex(h, v)
	}
	repr := "immediate"
	if integer.IsBoxed(h, v) {
		repr = fmt.Sprintf("bigint, %d digits", integer.CountDigits(h, v))
	}
	fmt.Fprintf(out, "%s%s %s\n", prefix, text, reprColor.Sprintf("(%s)", repr))
}
