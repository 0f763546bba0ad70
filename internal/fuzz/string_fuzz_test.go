package fuzztests

import (
	"strings"
	"testing"
	"unicode/utf8"

	"boxrt/internal/heap"
	"boxrt/internal/strbuf"
)

// FuzzStringSlice checks char counting and slicing against the standard
// library on arbitrary (possibly invalid) UTF-8.
func FuzzStringSlice(f *testing.F) {
	f.Add("", 0, 0)
	f.Add("hello", 1, 4)
	f.Add("héllo wörld", 2, 9)
	f.Add("日本語テキスト", 3, 5)
	f.Add("\xff\xfeok", 0, 3)
	f.Fuzz(func(t *testing.T, input string, start, end int) {
		input = clampInput(input)
		h := heap.New(heap.Options{Debug: true})
		v, err := strbuf.FromGo(h, input)
		if err != nil {
			t.Fatalf("FromGo: %v", err)
		}
		valid := replaceEachInvalid(input)
		if got := strbuf.String(h, v); got != valid {
			t.Fatalf("String = %q, want %q", got, valid)
		}
		runes := []rune(valid)
		if n := strbuf.Count(h, v); n != len(runes) {
			t.Fatalf("Count = %d, want %d", n, len(runes))
		}

		s, err := strbuf.Slice(h, v, start, end)
		if start < 0 || end < start || end > len(runes) {
			if err == nil {
				t.Fatalf("Slice(%d, %d) of %d chars succeeded", start, end, len(runes))
			}
		} else {
			if err != nil {
				t.Fatalf("Slice(%d, %d): %v", start, end, err)
			}
			if got, want := strbuf.String(h, s), string(runes[start:end]); got != want {
				t.Fatalf("Slice(%d, %d) = %q, want %q", start, end, got, want)
			}
			h.Drop(s)
		}
		h.Drop(v)
		requireEmpty(t, h)
	})
}

// replaceEachInvalid substitutes U+FFFD for every byte that does not start a
// valid encoding, matching how strings are imported.
func replaceEachInvalid(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		sb.WriteRune(r)
		i += size
	}
	return sb.String()
}
