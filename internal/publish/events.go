package publish

import "sync/atomic"

// Transfer actions reported in ProgressEvent.
const (
	ActionUpload     = "upload"
	ActionDelete     = "delete"
	ActionInvalidate = "invalidate"
)

// Event is a one-way notification to whoever observes a publish.
type Event interface {
	Kind() string
}

// ProgressEvent is emitted before each transfer and before invalidation.
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	File    string `json:"file"`
	Action  string `json:"action"`
}

// ErrorEvent names the key whose transfer aborted the publish.
type ErrorEvent struct {
	Error string `json:"error"`
	File  string `json:"file"`
}

// CompleteEvent closes an execute call, including a cancelled one.
type CompleteEvent struct {
	Uploaded  int  `json:"uploaded"`
	Deleted   int  `json:"deleted"`
	Unchanged int  `json:"unchanged"`
	Cancelled bool `json:"cancelled"`
}

// ThumbnailProgressEvent reports the thumbnail phase of a preview. A single
// zero event is emitted when there is nothing to generate.
type ThumbnailProgressEvent struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Filename string `json:"filename"`
}

func (ProgressEvent) Kind() string          { return "publish-progress" }
func (ErrorEvent) Kind() string             { return "publish-error" }
func (CompleteEvent) Kind() string          { return "publish-complete" }
func (ThumbnailProgressEvent) Kind() string { return "thumbnail-progress" }

// Emitter delivers events. Implementations must not block the caller.
type Emitter interface {
	Emit(Event)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}

// ChannelEmitter forwards events to a buffered channel. When the buffer is
// full the event is dropped and counted rather than blocking the pipeline.
type ChannelEmitter struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChannelEmitter creates an emitter with the given buffer size.
func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Event, buffer)}
}

func (e *ChannelEmitter) Emit(ev Event) {
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Events returns the receive side of the emitter.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.ch
}

// Dropped returns how many events were discarded because the buffer was full.
func (e *ChannelEmitter) Dropped() int64 {
	return e.dropped.Load()
}

// Close closes the event channel. Emit must not be called afterwards.
func (e *ChannelEmitter) Close() {
	close(e.ch)
}

var (
	_ Emitter = NopEmitter{}
	_ Emitter = (*ChannelEmitter)(nil)
)
