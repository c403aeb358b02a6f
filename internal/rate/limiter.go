package rate

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks last-attempt timestamps for login throttling. Check returns
// the remaining cooldown for the identifier pair; zero means the attempt may
// proceed. Record marks a failed attempt; Reset clears all state for the
// pair after a successful login.
type Limiter interface {
	Check(ctx context.Context, username, ip string) (time.Duration, error)
	Record(ctx context.Context, username, ip string) error
	Reset(ctx context.Context, username, ip string) error
}

func userKey(username string) string { return "user:" + username }
func ipKey(ip string) string         { return "ip:" + ip }

// MemoryLimiter keeps cooldown state in process memory. State lives as long
// as the process and is not coordinated across instances.
type MemoryLimiter struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryLimiter creates an in-process limiter. A window of zero or less
// disables throttling: Check always returns zero and Record is a no-op.
func NewMemoryLimiter(window time.Duration, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

// Check returns the longest remaining cooldown across the username and
// origin records.
func (l *MemoryLimiter) Check(_ context.Context, username, ip string) (time.Duration, error) {
	if l.window <= 0 {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	remaining := l.remainingLocked(userKey(username), now)
	if ip != "" {
		if r := l.remainingLocked(ipKey(ip), now); r > remaining {
			remaining = r
		}
	}
	return remaining, nil
}

// Record stores the current time as the last failed attempt for both records.
func (l *MemoryLimiter) Record(_ context.Context, username, ip string) error {
	if l.window <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.last[userKey(username)] = now
	if ip != "" {
		l.last[ipKey(ip)] = now
	}
	return nil
}

// Reset clears cooldown state for both records.
func (l *MemoryLimiter) Reset(_ context.Context, username, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.last, userKey(username))
	if ip != "" {
		delete(l.last, ipKey(ip))
	}
	return nil
}

func (l *MemoryLimiter) remainingLocked(key string, now time.Time) time.Duration {
	ts, ok := l.last[key]
	if !ok {
		return 0
	}
	elapsed := now.Sub(ts)
	if elapsed >= l.window {
		delete(l.last, key)
		return 0
	}
	return l.window - elapsed
}
