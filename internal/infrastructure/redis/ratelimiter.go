package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// FixedWindowLimiter counts requests per (scope, identity) in fixed windows.
// Scopes are route families (login, forgot_password, ...) and the identity is
// whatever the caller considers the abuser handle, usually the client IP or a
// normalized email.
//
// When Redis is not configured the limiter allows everything: throttling is a
// hardening layer, never a dependency the auth flows can fail on.
type FixedWindowLimiter struct {
	client *Client
}

func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: c}
}

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // 0 if allowed
	ResetAt    time.Time     // window end (best-effort)
	Count      int
}

// Key builds the limiter key for a scope and identity.
func Key(scope, identity string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, identity)
}

// atomic INCR + expire-on-first-hit; returns {count, ttl_ms}
const fixedWindowScript = `
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`

// Allow records one hit against key and reports whether it stays within
// limit for the window.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window < time.Second {
		window = time.Minute
	}
	if l == nil || l.client == nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}

	res, err := l.client.rdb.Eval(ctx, fixedWindowScript, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, domain.ErrRedisUnavailable(fmt.Errorf("ratelimit eval: %w", err))
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return Decision{}, domain.ErrRedisUnavailable(fmt.Errorf("ratelimit eval: unexpected result shape"))
	}

	count := int(arr[0].(int64))
	ttl := time.Duration(arr[1].(int64)) * time.Millisecond

	d := Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-count),
		Count:     count,
		ResetAt:   time.Now().Add(ttl),
	}
	if !d.Allowed {
		d.RetryAfter = ttl
		if d.RetryAfter <= 0 {
			d.RetryAfter = window
		}
	}
	return d, nil
}
