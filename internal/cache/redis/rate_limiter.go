package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// RateLimiter is a sliding-window request counter backed by a Redis sorted
// set and an atomic Lua script. Requests older than the window fall out of
// the count, so a client steadily under the limit is never blocked, and the
// window key expires on its own once the client goes idle.
type RateLimiter struct {
	client *Client
	script *redis.Script

	now func() time.Time
}

// NewRateLimiter creates a RateLimiter backed by the given Redis client.
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		script: redis.NewScript(slidingWindowLua),
		now:    time.Now,
	}
}

// Allow reports whether one more request for key fits inside the window. An
// admitted request is counted; a rejected one is not, so probing while over
// the limit does not extend the lockout.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := r.script.Run(ctx, r.client.rdb,
		[]string{key},
		r.now().UnixMicro(),
		window.Microseconds(),
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %q: %w", key, err)
	}
	if len(res) < 2 {
		return false, fmt.Errorf("redis: rate limit %q: unexpected script result length %d", key, len(res))
	}
	return res[0] == 1, nil
}
