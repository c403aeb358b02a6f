package token

import (
	"errors"
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, at time.Time, validity time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Validity: validity,
		Now:      func() time.Time { return at },
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueParseRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, at, time.Hour)

	raw, expires, err := m.Issue(testKey, "alice", "fp-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := at.Add(time.Hour); !expires.Equal(want) {
		t.Errorf("expiry = %v, want %v", expires, want)
	}

	username, fp, err := m.Parse(testKey, raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if username != "alice" || fp != "fp-1" {
		t.Errorf("Parse = (%q, %q), want (alice, fp-1)", username, fp)
	}
}

func TestParseExpired(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, at, time.Hour)

	raw, _, err := m.Issue(testKey, "alice", "fp-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	late := newTestManager(t, at.Add(2*time.Hour), time.Hour)
	if _, _, err := late.Parse(testKey, raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Parse after expiry: got %v, want ErrInvalid", err)
	}
}

func TestParseWrongKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, at, time.Hour)

	raw, _, err := m.Issue(testKey, "alice", "fp-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := []byte("ffffffffffffffffffffffffffffffff")
	if _, _, err := m.Parse(other, raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Parse with wrong key: got %v, want ErrInvalid", err)
	}
}

func TestParseGarbage(t *testing.T) {
	m := newTestManager(t, time.Now(), time.Hour)

	for _, raw := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, _, err := m.Parse(testKey, raw); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q): got %v, want ErrInvalid", raw, err)
		}
	}
}

func TestIssueValidation(t *testing.T) {
	m := newTestManager(t, time.Now(), time.Hour)

	if _, _, err := m.Issue(nil, "alice", "fp"); err == nil {
		t.Error("Issue with empty key succeeded")
	}
	if _, _, err := m.Issue(testKey, "", "fp"); err == nil {
		t.Error("Issue with empty username succeeded")
	}
	if _, _, err := m.Issue(testKey, "alice", ""); err == nil {
		t.Error("Issue with empty fingerprint succeeded")
	}
}

func TestNewManagerRejectsNonPositiveValidity(t *testing.T) {
	if _, err := NewManager(Config{Validity: 0}); err == nil {
		t.Error("NewManager with zero validity succeeded")
	}
	if _, err := NewManager(Config{Validity: -time.Hour}); err == nil {
		t.Error("NewManager with negative validity succeeded")
	}
}
