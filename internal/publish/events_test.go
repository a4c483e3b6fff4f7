package publish_test

import (
	"testing"

	"afterglow/internal/publish"
)

func TestChannelEmitter_DropsWhenFull(t *testing.T) {
	e := publish.NewChannelEmitter(2)
	for i := 1; i <= 5; i++ {
		e.Emit(publish.ProgressEvent{Current: i, Total: 5})
	}
	if got := e.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	e.Close()

	var got []int
	for ev := range e.Events() {
		got = append(got, ev.(publish.ProgressEvent).Current)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("delivered = %v, want [1 2]", got)
	}
}

func TestEventKinds(t *testing.T) {
	tests := []struct {
		ev   publish.Event
		want string
	}{
		{publish.ProgressEvent{}, "publish-progress"},
		{publish.ErrorEvent{}, "publish-error"},
		{publish.CompleteEvent{}, "publish-complete"},
		{publish.ThumbnailProgressEvent{}, "thumbnail-progress"},
	}
	for _, tt := range tests {
		if got := tt.ev.Kind(); got != tt.want {
			t.Errorf("%T.Kind() = %q, want %q", tt.ev, got, tt.want)
		}
	}
}
