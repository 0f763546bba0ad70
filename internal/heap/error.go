package heap

import (
	"fmt"

	"boxrt/internal/box"
	"boxrt/internal/trace"
)

// PanicCode identifies a violated heap invariant.
type PanicCode int

// Stable codes - do not change values.
const (
	PanicInvalidHandle     PanicCode = 1001 // RT1001: handle not known to the heap
	PanicUseAfterFree      PanicCode = 1002 // RT1002: access to a reclaimed block
	PanicDoubleFree        PanicCode = 1003 // RT1003: block reclaimed twice
	PanicRefcountUnderflow PanicCode = 1004 // RT1004: drop below zero
	PanicHeapLeak          PanicCode = 1005 // RT1005: live blocks at teardown
	PanicSharedMutation    PanicCode = 1006 // RT1006: write to a shared block
	PanicHeapClosed        PanicCode = 1007 // RT1007: use of a closed heap
	PanicFieldIndex        PanicCode = 1008 // RT1008: field index out of range
)

// String returns the code as "RT1001".
func (c PanicCode) String() string {
	return fmt.Sprintf("RT%d", c)
}

// Error describes a heap invariant violation. It is raised with panic, except
// for PanicHeapLeak which Close and CheckLeaks return as an ordinary error.
type Error struct {
	Code    PanicCode
	Message string
	Handle  box.Handle
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

func (h *Heap) fail(code PanicCode, handle box.Handle, format string, args ...any) {
	err := &Error{Code: code, Message: fmt.Sprintf(format, args...), Handle: handle}
	if h != nil && h.tracer.Enabled() {
		trace.Point(h.tracer, trace.ScopeError, "invariant", err.Error())
		_ = h.tracer.Flush() //nolint:errcheck
	}
	panic(err)
}
