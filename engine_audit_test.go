package authvault

import (
	"context"
	"testing"
	"time"
)

func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()
	var events []AuditEvent
	deadline := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("collected %d events, want %d", len(events), want)
		}
	}
	return events
}

func TestAuditTrail(t *testing.T) {
	sink := NewChannelSink(64)

	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Store.AuthFilePath = dir + "/auth.yml"
	cfg.Store.HomeRoot = dir
	cfg.Audit.Enabled = true

	e, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(e.Close)

	ctx := WithClientIP(context.Background(), "1.2.3.4")
	bootstrap(t, e)

	sess := e.NewSession()
	if _, err := e.Login(ctx, sess, "root", testRootPassword, false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := e.Login(ctx, e.NewSession(), "root", "wrong", false); err == nil {
		t.Fatal("wrong password succeeded")
	}

	events := collectEvents(t, sink, 3)

	if events[0].EventType != "root_password_set" {
		t.Errorf("event 0 = %q, want root_password_set", events[0].EventType)
	}

	login := events[1]
	if login.EventType != "login_success" || !login.Success {
		t.Errorf("event 1 = %+v", login)
	}
	if login.Username != "root" || login.Role != "root" || login.IP != "1.2.3.4" {
		t.Errorf("login event fields = %+v", login)
	}

	failure := events[2]
	if failure.EventType != "login_failure" || failure.Success {
		t.Errorf("event 2 = %+v", failure)
	}
	if failure.Error == "" {
		t.Error("failure event has no error text")
	}
	// The rejected password must never appear anywhere in the event.
	if failure.Metadata["reason"] != "password_mismatch" {
		t.Errorf("failure metadata = %v", failure.Metadata)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	bootstrap(t, e)

	// No dispatcher exists; emitting must be a silent no-op.
	if got := e.AuditDropped(); got != 0 {
		t.Errorf("AuditDropped = %d, want 0", got)
	}
}
