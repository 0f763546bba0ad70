package stress

import "time"

// Phase describes what the driver is doing.
type Phase string

const (
	// PhaseBuild builds and publishes the shared graph.
	PhaseBuild Phase = "build"
	// PhaseRun runs the workers.
	PhaseRun Phase = "run"
	// PhaseVerify checks conservation and tears the graph down.
	PhaseVerify Phase = "verify"
)

// Status captures progress state of one worker.
type Status string

const (
	// StatusQueued indicates the worker has not started.
	StatusQueued Status = "queued"
	// StatusWorking indicates the worker is running.
	StatusWorking Status = "working"
	// StatusDone indicates the worker finished all iterations.
	StatusDone Status = "done"
	// StatusError indicates the worker stopped with an error.
	StatusError Status = "error"
)

// Event reports progress for a worker, or for the whole run when Worker < 0.
type Event struct {
	Worker  int
	Phase   Phase
	Status  Status
	Done    int
	Total   int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
