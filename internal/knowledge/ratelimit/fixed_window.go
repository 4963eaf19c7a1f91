package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"Athena/internal/knowledge/interfaces"
)

const window = time.Minute

// FixedWindowLimiter bounds per-tenant request throughput with a fixed
// window counter stored in Redis. The counter for a window is created by its
// first increment and disappears via TTL; expired windows are never read
// again. The scheme is intentionally approximate: a burst straddling a
// window boundary can briefly reach twice the nominal rate, which is
// accepted in exchange for O(1) state per window.
type FixedWindowLimiter struct {
	rdb    *redis.Client
	limits map[string]int

	// now is replaceable in tests to control window rollover.
	now func() time.Time
}

// NewFixedWindowLimiter creates a limiter with a per-minute limit for each
// operation name. Operations without a configured limit are always allowed.
func NewFixedWindowLimiter(rdb *redis.Client, limits map[string]int) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		rdb:    rdb,
		limits: limits,
		now:    time.Now,
	}
}

// Allow increments the counter for (tenant, operation, current window) and
// reports whether the post-increment count is within the limit. The
// increment itself is a single atomic Redis operation, so concurrent
// requests never under-count.
func (l *FixedWindowLimiter) Allow(ctx context.Context, tenantID, operation string) (bool, error) {
	limit, ok := l.limits[operation]
	if !ok || limit <= 0 {
		return true, nil
	}

	currentWindow := l.now().Unix() / int64(window/time.Second)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", tenantID, operation, currentWindow)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate counter expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}

var _ interfaces.RateLimiter = (*FixedWindowLimiter)(nil)
