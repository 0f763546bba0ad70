package ui

import (
	"errors"
	"strings"
	"testing"

	"boxrt/internal/stress"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"worker", 10, "worker"},
		{"worker 12  100/100", 10, "work..."},
		{"日本語テキスト", 8, "日..."},
		{"abcdef", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestApplyEventTracksWorkers(t *testing.T) {
	m := NewProgressModel("stress", 2, nil).(*progressModel)
	m.applyEvent(stress.Event{Worker: 0, Phase: stress.PhaseRun, Status: stress.StatusWorking, Done: 50, Total: 100})
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent = %v, want 0.25", got)
	}
	m.applyEvent(stress.Event{Worker: 1, Phase: stress.PhaseRun, Status: stress.StatusDone, Done: 100, Total: 100})
	if got := m.percent(); got != 0.75 {
		t.Fatalf("percent = %v, want 0.75", got)
	}
	m.applyEvent(stress.Event{Worker: 7, Status: stress.StatusDone})

	m.applyEvent(stress.Event{Worker: -1, Phase: stress.PhaseVerify, Status: stress.StatusError, Err: errors.New("slot 3 rc=2")})
	view := m.View()
	for _, want := range []string{"verify failed", "worker 0  50/100", "worker 1  100/100", "slot 3 rc=2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan stress.Event)
	close(ch)
	m := NewProgressModel("stress", 1, ch).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %T, want doneMsg", msg)
	}
	m.Update(msg)
	if !m.done {
		t.Fatalf("model not done after events closed")
	}
	if !strings.Contains(m.View(), "done: stress") {
		t.Fatalf("view = %q", m.View())
	}
}
