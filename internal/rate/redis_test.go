package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, window), srv
}

func TestRedisLimiterCooldown(t *testing.T) {
	ctx := context.Background()
	l, srv := newRedisLimiter(t, 10*time.Second)

	if r, err := l.Check(ctx, "alice", "1.2.3.4"); err != nil || r != 0 {
		t.Fatalf("fresh Check = (%v, %v), want (0, nil)", r, err)
	}

	if err := l.Record(ctx, "alice", "1.2.3.4"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	r, err := l.Check(ctx, "alice", "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if r <= 0 || r > 10*time.Second {
		t.Errorf("Check = %v, want within (0, 10s]", r)
	}

	srv.FastForward(10 * time.Second)
	if r, _ := l.Check(ctx, "alice", "1.2.3.4"); r != 0 {
		t.Errorf("Check after window = %v, want 0", r)
	}
}

func TestRedisLimiterSharedOrigin(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLimiter(t, 10*time.Second)

	if err := l.Record(ctx, "alice", "1.2.3.4"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r, _ := l.Check(ctx, "bob", "1.2.3.4"); r <= 0 {
		t.Errorf("same-origin Check = %v, want positive", r)
	}
}

func TestRedisLimiterReset(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLimiter(t, 10*time.Second)

	if err := l.Record(ctx, "alice", "1.2.3.4"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Reset(ctx, "alice", "1.2.3.4"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if r, _ := l.Check(ctx, "alice", "1.2.3.4"); r != 0 {
		t.Errorf("Check after Reset = %v, want 0", r)
	}
}

func TestRedisLimiterUnavailable(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	l := NewRedisLimiter(client, 10*time.Second)

	srv.Close()

	if err := l.Record(ctx, "alice", "1.2.3.4"); err == nil {
		t.Error("Record against a dead backend succeeded")
	}
	if _, err := l.Check(ctx, "alice", "1.2.3.4"); err == nil {
		t.Error("Check against a dead backend succeeded")
	}
}
