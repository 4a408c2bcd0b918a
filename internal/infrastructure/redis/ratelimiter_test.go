package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T) (*miniredis.Miniredis, *FixedWindowLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return mr, NewFixedWindowLimiter(c)
}

func TestFixedWindowLimiter_NilClient_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.Allow(context.Background(), Key("login", "1.2.3.4"), 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected allowed when redis disabled")
	}
	if d.Remaining != 10 {
		t.Fatalf("unexpected remaining: %d", d.Remaining)
	}
}

func TestFixedWindowLimiter_LimitZero_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, _ := l.Allow(context.Background(), "k", 0, time.Minute)
	if !d.Allowed {
		t.Fatalf("limit=0 should allow")
	}
}

func TestFixedWindowLimiter_CountsWithinWindow(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()
	key := Key("login", "1.2.3.4")

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
		if d.Remaining != 3-i {
			t.Fatalf("hit %d: remaining = %d, want %d", i, d.Remaining, 3-i)
		}
	}

	d, err := l.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("fourth hit: %v", err)
	}
	if d.Allowed {
		t.Fatalf("fourth hit should be rejected")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("rejected decision should carry RetryAfter, got %v", d.RetryAfter)
	}
}

func TestFixedWindowLimiter_WindowReset(t *testing.T) {
	mr, l := newTestLimiter(t)
	ctx := context.Background()
	key := Key("forgot_password", "ada@example.com")

	for i := 0; i < 2; i++ {
		if _, err := l.Allow(ctx, key, 2, time.Minute); err != nil {
			t.Fatalf("hit: %v", err)
		}
	}
	if d, _ := l.Allow(ctx, key, 2, time.Minute); d.Allowed {
		t.Fatalf("over-limit hit should be rejected")
	}

	mr.FastForward(time.Minute + time.Second)

	d, err := l.Allow(ctx, key, 2, time.Minute)
	if err != nil {
		t.Fatalf("post-window hit: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("new window should allow again")
	}
	if d.Count != 1 {
		t.Fatalf("new window should restart the count, got %d", d.Count)
	}
}

func TestFixedWindowLimiter_KeysAreIndependent(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()

	if _, err := l.Allow(ctx, Key("login", "1.2.3.4"), 1, time.Minute); err != nil {
		t.Fatalf("first identity: %v", err)
	}
	d, err := l.Allow(ctx, Key("login", "5.6.7.8"), 1, time.Minute)
	if err != nil {
		t.Fatalf("second identity: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("different identities must not share a window")
	}
}
