package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled dispatcher is not nil")
	}

	// All operations on the nil dispatcher are no-ops.
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if got := d.Dropped(); got != 0 {
		t.Errorf("Dropped = %d, want 0", got)
	}
}

func TestDispatcherForwardsToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	want := Event{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		EventType: "login_success",
		Username:  "alice",
		Role:      "editor",
		IP:        "1.2.3.4",
		Success:   true,
		Metadata:  map[string]string{"k": "v"},
	}
	d.Emit(context.Background(), want)

	select {
	case got := <-sink.Events():
		if got.EventType != want.EventType || got.Username != want.Username || got.Metadata["k"] != "v" {
			t.Errorf("sink received %#v, want %#v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the sink")
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "logout"})
	}
	d.Close()

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
		default:
			if got != 5 {
				t.Errorf("drained %d events, want 5", got)
			}
			return
		}
	}
}

type gateSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	s.entered <- struct{}{}
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	d.Emit(ctx, Event{EventType: "e1"})
	<-sink.entered // the worker now blocks inside the sink

	d.Emit(ctx, Event{EventType: "e2"}) // fills the buffer
	d.Emit(ctx, Event{EventType: "e3"}) // no room left

	if got := d.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}

	close(sink.release)
	<-sink.entered // the buffered event flows through
	d.Close()
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: "user_created", Username: "alice", Success: true})
	sink.Emit(context.Background(), Event{EventType: "user_deleted", Username: "alice", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first.EventType != "user_created" || first.Username != "alice" {
		t.Errorf("decoded %#v", first)
	}
}
