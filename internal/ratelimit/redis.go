package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter implements the fixed window on a shared Redis counter.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "aero:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window < time.Second {
		window = DefaultWindow
	}

	return &RedisLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  limit,
		window: window,
	}
}

func (r *RedisLimiter) key(identity, action string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, strings.TrimSpace(action), strings.TrimSpace(identity))
}

func (r *RedisLimiter) Admit(ctx context.Context, identity, action string) (Decision, error) {
	windowMs := r.window.Milliseconds()
	rawResult, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(identity, action)}, windowMs).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	d := Decision{Allowed: int(count) <= r.limit, Count: int(count), Limit: r.limit}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
	}
	return d, nil
}
