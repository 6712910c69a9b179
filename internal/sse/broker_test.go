package sse

import (
	"strings"
	"testing"
	"time"
)

func testBroker(t *testing.T, throttle time.Duration) *Broker {
	t.Helper()
	b := NewBroker(throttle)
	t.Cleanup(b.Close)
	return b
}

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	b := testBroker(t, time.Second)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if n := b.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}

	b.Publish(Event{Type: "playback.progress", Data: map[string]int{"frame": 42}})

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: playback.progress") {
		t.Errorf("msg = %q", msg)
	}
	if !strings.Contains(msg, `"frame":42`) {
		t.Errorf("payload missing: %q", msg)
	}
	if !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("SSE frame not terminated: %q", msg)
	}
}

func TestClipEventVocabulary(t *testing.T) {
	b := testBroker(t, time.Hour) // suppress library.updated noise after the first
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishClipEvent("added", "kick.wav")
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: clip.added") || !strings.Contains(msg, "kick.wav") {
		t.Errorf("added msg = %q", msg)
	}
	// First clip event also carries a library.updated.
	if msg = recv(t, ch); !strings.Contains(msg, "event: library.updated") {
		t.Errorf("expected library.updated, got %q", msg)
	}

	b.PublishClipEvent("removed", "kick.wav")
	if msg = recv(t, ch); !strings.Contains(msg, "event: clip.removed") {
		t.Errorf("removed msg = %q", msg)
	}
}

func TestLibraryEventThrottled(t *testing.T) {
	b := testBroker(t, time.Hour)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 5; i++ {
		b.PublishClipEvent("updated", "a.wav")
	}

	library := 0
	deadline := time.After(500 * time.Millisecond)
	received := 0
	for received < 5 {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "library.updated") {
				library++
			} else {
				received++
			}
		case <-deadline:
			t.Fatalf("only %d clip events arrived", received)
		}
	}
	if library > 1 {
		t.Errorf("library.updated fired %d times within throttle window", library)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := testBroker(t, time.Second)
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after unsubscribe")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d, want 0", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Second)
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed after broker Close")
	}
	// Publishing after close must not panic or block.
	b.Publish(Event{Type: "x"})
	b.PublishClipEvent("added", "y.wav")
}
