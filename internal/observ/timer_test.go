package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("open")
	time.Sleep(time.Millisecond)
	tm.End(idx, "debug heap")
	if err := tm.Time("run", func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("Time dropped the error")
	}
	tm.End(42, "ignored")

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(rep.Phases))
	}
	if rep.Phases[0].DurationMS < 1 || rep.Phases[0].Note != "debug heap" {
		t.Fatalf("phase 0 = %+v", rep.Phases[0])
	}
	if rep.Phases[1].Note != "failed" {
		t.Fatalf("phase 1 note = %q", rep.Phases[1].Note)
	}
	if rep.TotalMS < rep.Phases[0].DurationMS {
		t.Fatalf("total %v < phase %v", rep.TotalMS, rep.Phases[0].DurationMS)
	}

	sum := tm.Summary()
	for _, want := range []string{"timings:\n", "open", "// debug heap", "total"} {
		if !strings.Contains(sum, want) {
			t.Fatalf("summary missing %q:\n%s", want, sum)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if rep := NewTimer().Report(); rep.TotalMS != 0 || rep.Phases != nil {
		t.Fatalf("empty report = %+v", rep)
	}
}
