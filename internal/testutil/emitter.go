package testutil

import (
	"sync"

	"afterglow/internal/publish"
)

// RecordingEmitter keeps every emitted event in order.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []publish.Event
	// OnEmit, if set, is called synchronously after recording each event.
	OnEmit func(publish.Event)
}

func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{}
}

func (r *RecordingEmitter) Emit(ev publish.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	hook := r.OnEmit
	r.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
}

// Events returns a copy of everything emitted so far.
func (r *RecordingEmitter) Events() []publish.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]publish.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Progress returns the emitted ProgressEvents.
func (r *RecordingEmitter) Progress() []publish.ProgressEvent {
	var out []publish.ProgressEvent
	for _, ev := range r.Events() {
		if p, ok := ev.(publish.ProgressEvent); ok {
			out = append(out, p)
		}
	}
	return out
}

// Thumbnails returns the emitted ThumbnailProgressEvents.
func (r *RecordingEmitter) Thumbnails() []publish.ThumbnailProgressEvent {
	var out []publish.ThumbnailProgressEvent
	for _, ev := range r.Events() {
		if p, ok := ev.(publish.ThumbnailProgressEvent); ok {
			out = append(out, p)
		}
	}
	return out
}

// Errors returns the emitted ErrorEvents.
func (r *RecordingEmitter) Errors() []publish.ErrorEvent {
	var out []publish.ErrorEvent
	for _, ev := range r.Events() {
		if p, ok := ev.(publish.ErrorEvent); ok {
			out = append(out, p)
		}
	}
	return out
}

// Completions returns the emitted CompleteEvents.
func (r *RecordingEmitter) Completions() []publish.CompleteEvent {
	var out []publish.CompleteEvent
	for _, ev := range r.Events() {
		if p, ok := ev.(publish.CompleteEvent); ok {
			out = append(out, p)
		}
	}
	return out
}

var _ publish.Emitter = (*RecordingEmitter)(nil)
