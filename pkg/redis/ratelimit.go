package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const rateLimitPrefix = "rate_limit"

type RateLimiter interface {
	Allow(ctx context.Context, scope string, limit int64, window time.Duration) (Decision, error)
}

// Decision is the outcome of one rate-limit check. RetryAfter is set only
// when the request was refused.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

func (c *Client) RateLimitKey(scope string) string {
	return key(rateLimitPrefix, scope)
}

// Allow counts one hit against scope. Windows start at multiples of window
// since the epoch, so every replica sees the same boundaries. A non-positive
// limit or window disables the check.
func (c *Client) Allow(ctx context.Context, scope string, limit int64, window time.Duration) (Decision, error) {
	if c.store == nil {
		return Decision{}, ErrNotInitialized
	}
	if limit <= 0 || window <= 0 {
		return Decision{Allowed: true, Limit: limit}, nil
	}

	now := c.clock()
	start := now.Truncate(window)
	k := key(rateLimitPrefix, scope, strconv.FormatInt(start.Unix(), 10))

	count, err := c.store.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := c.store.Expire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}

	d := Decision{Allowed: count <= limit, Count: count, Limit: limit}
	if !d.Allowed {
		d.RetryAfter = start.Add(window).Sub(now)
	}
	return d, nil
}
