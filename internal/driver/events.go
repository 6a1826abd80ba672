package driver

import "time"

// Stage describes a high-level analysis phase.
type Stage string

const (
	// StageLoad is manifest loading and unit binding.
	StageLoad Stage = "load"
	// StageGraph is wrap-graph construction and ordering.
	StageGraph Stage = "graph"
	// StageAnalyze is per-type equality analysis.
	StageAnalyze Stage = "analyze"
	// StageResolve is call-site resolution.
	StageResolve Stage = "resolve"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one value type, or for the whole pipeline
// when Type is empty.
type Event struct {
	Type    string
	Stage   Stage
	Status  Status
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

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
