package authvault

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const testRootPassword = "Secr3t!pass"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestEngine builds an engine against a throwaway directory. mutate, when
// non-nil, tweaks the config before Build.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeClock) {
	t.Helper()

	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Store.AuthFilePath = filepath.Join(dir, "auth.yml")
	cfg.Store.HomeRoot = dir
	if mutate != nil {
		mutate(&cfg)
	}

	clock := newFakeClock()
	engine, err := New().WithConfig(cfg).WithClock(clock.Now).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

// bootstrap provisions the root account.
func bootstrap(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.SetRootPassword(context.Background(), testRootPassword); err != nil {
		t.Fatalf("SetRootPassword: %v", err)
	}
}

// rootSession bootstraps if needed and returns a session logged in as root.
func rootSession(t *testing.T, e *Engine) *Session {
	t.Helper()
	has, err := e.HasRootAccount(context.Background())
	if err != nil {
		t.Fatalf("HasRootAccount: %v", err)
	}
	if !has {
		bootstrap(t, e)
	}
	sess := e.NewSession()
	if _, err := e.Login(context.Background(), sess, "root", testRootPassword, false); err != nil {
		t.Fatalf("root login: %v", err)
	}
	return sess
}

// mustCreateUser creates a user through a root session.
func mustCreateUser(t *testing.T, e *Engine, in CreateUserInput) {
	t.Helper()
	root := rootSession(t, e)
	if err := e.CreateUser(context.Background(), root, in); err != nil {
		t.Fatalf("CreateUser(%q): %v", in.Username, err)
	}
}

// loginSession returns a session logged in as username.
func loginSession(t *testing.T, e *Engine, username, password string) *Session {
	t.Helper()
	sess := e.NewSession()
	if _, err := e.Login(context.Background(), sess, username, password, false); err != nil {
		t.Fatalf("login %q: %v", username, err)
	}
	return sess
}
