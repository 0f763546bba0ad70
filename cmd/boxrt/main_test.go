package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boxrt/internal/heap"
	"boxrt/internal/version"
)

// execute runs the CLI with a fresh command tree against an empty config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "boxrt.toml")
	if err := os.WriteFile(cfgPath, []byte("[heap]\ndebug = true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath, "--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCalc(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"calc", "100000000000000000000", "+", "1"}, "100000000000000000001 (bigint, 21 digits)\n"},
		{[]string{"calc", "4611686018427387904", "-", "1"}, "4611686018427387903 (immediate)\n"},
		{[]string{"calc", "7", "divmod", "-2"}, "q = -3 (immediate)\nr = 1 (immediate)\n"},
		{[]string{"calc", "--", "-7", "ediv", "2"}, "q = -4 (immediate)\nr = 1 (immediate)\n"},
		{[]string{"calc", "--hex", "2", "pow", "10"}, "0x400 (immediate)\n"},
		{[]string{"calc", "1", "shl", "64"}, "18446744073709551616 (bigint, 20 digits)\n"},
		{[]string{"calc", "0xff", "and", "0b1010"}, "10 (immediate)\n"},
		{[]string{"calc", "1_000", "cmp", "999"}, "1\n"},
	}
	for _, tc := range cases {
		out, err := execute(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if out != tc.want {
			t.Fatalf("%v = %q, want %q", tc.args, out, tc.want)
		}
	}
}

func TestCalcErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"calc", "1", "/", "0"}, "division by zero"},
		{[]string{"calc", "1", "^", "2"}, `unknown operator "^"`},
		{[]string{"calc", "12x", "+", "2"}, "12x"},
		{[]string{"calc", "2", "pow", "-1"}, "exponent"},
	}
	for _, tc := range cases {
		_, err := execute(t, tc.args...)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: err = %v, want mention of %q", tc.args, err, tc.want)
		}
	}
}

func TestChainReclaimsIteratively(t *testing.T) {
	out, err := execute(t, "chain", "--length", "50000")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if !strings.Contains(out, "freed=50000 peak_worklist=1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDumpText(t *testing.T) {
	out, err := execute(t, "dump", "--ref", "--shared", "42", "340282366920938463463374607431768211456", "héllo", "b:xy")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, want := range []string{
		"live=5 ",
		"ref(rc=1,shared,fields=1,refs=1,bytes=8)",
		"record(rc=1,shared,fields=4,refs=3,bytes=32)",
		`string(rc=1,shared`,
		`"héllo"`,
		"340282366920938463463374607431768211456",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpBinary(t *testing.T) {
	out, err := execute(t, "dump", "--format", "cbor", "1", "two")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	snap, err := heap.DecodeSnapshot(strings.NewReader(out), heap.SnapshotCBOR)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Blocks) != 2 || snap.Stats.LiveBlocks != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, err := execute(t, "dump", "--format", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestStress(t *testing.T) {
	out, err := execute(t, "stress", "--workers", "3", "--iters", "400", "--values", "6", "--seed", "1", "--ui", "off")
	if err != nil {
		t.Fatalf("stress: %v\n%s", err, out)
	}
	for _, want := range []string{"workers=3 iters=400 seed=1", "ops=1200 ", "counter=150", "ok: refcounts conserved"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stress output missing %q:\n%s", want, out)
		}
	}
	if _, err := execute(t, "stress", "--ui", "maybe"); err == nil {
		t.Fatalf("expected error for bad --ui")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if info.Version != version.Version || info.GoVersion == "" {
		t.Fatalf("info = %+v", info)
	}
	if _, err := execute(t, "version", "--format", "yaml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestBadConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxrt.toml")
	if err := os.WriteFile(path, []byte("[heap]\nmax_bytes = -1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "chain", "--length", "1"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "max_bytes") {
		t.Fatalf("err = %v, want max_bytes error", err)
	}
}

func TestMaxBytesFlagOverridesConfig(t *testing.T) {
	_, err := execute(t, "--max-bytes", "4096", "chain", "--length", "10000")
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("err = %v, want out of memory", err)
	}
}
