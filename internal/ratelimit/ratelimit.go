/**
 * @description
 * Fixed-window admission control keyed by (identity, action).
 *
 * Two backends share one contract:
 * - MemoryLimiter keeps buckets in process. Each instance enforces its own quota.
 * - RedisLimiter keeps the counter in Redis so every instance shares it.
 */
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 20
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
}

// Admitter decides whether an identity may perform an action now.
type Admitter interface {
	Admit(ctx context.Context, identity, action string) (Decision, error)
}
