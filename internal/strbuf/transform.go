package strbuf

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"boxrt/internal/box"
	"boxrt/internal/heap"
)

// Normalize returns the NFC form of v. An already normalized string is
// returned as a new reference to the same block.
func Normalize(h *heap.Heap, v box.Box) (box.Box, error) {
	t := text(block(h, v))
	if norm.NFC.IsNormal(t) {
		return h.Dup(v), nil
	}
	return fromValid(h, norm.NFC.Bytes(t))
}

// ToUpper returns v with Unicode upper-case mapping applied.
func ToUpper(h *heap.Heap, v box.Box) (box.Box, error) {
	return mapCase(h, v, cases.Upper(language.Und))
}

// ToLower returns v with Unicode lower-case mapping applied.
func ToLower(h *heap.Heap, v box.Box) (box.Box, error) {
	return mapCase(h, v, cases.Lower(language.Und))
}

func mapCase(h *heap.Heap, v box.Box, c cases.Caser) (box.Box, error) {
	return fromValid(h, c.Bytes(text(block(h, v))))
}

// Width returns the display width of v in terminal cells, counting East
// Asian wide characters as two.
func Width(h *heap.Heap, v box.Box) int {
	return runewidth.StringWidth(String(h, v))
}
