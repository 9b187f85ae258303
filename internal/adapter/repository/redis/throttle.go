package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle implements usecase.Throttle with a fixed-window counter per user.
// The counter lives in Redis so the cap holds across scheduler replicas.
type Throttle struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewThrottle creates a new Throttle allowing limit operations per user per
// window.
func NewThrottle(client *redis.Client, limit int, window time.Duration) *Throttle {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Throttle{
		client: client,
		prefix: "throttle:",
		limit:  int64(limit),
		window: window,
	}
}

// Allow consumes one slot from the user's current window. It reports false
// when the window is exhausted; the caller is expected to defer the work, not
// drop it.
func (t *Throttle) Allow(ctx context.Context, userID string) (bool, error) {
	windowID := time.Now().UnixNano() / int64(t.window)
	key := fmt.Sprintf("%s%s:%d", t.prefix, userID, windowID)

	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// Expire on every call: the first INCR of a window needs it, and
	// repeating it is harmless.
	pipe.Expire(ctx, key, t.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= t.limit, nil
}
