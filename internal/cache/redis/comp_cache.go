package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardscout/cardscout/internal/domain"
)

const compKeyPrefix = "comps:"

// CompCache caches comparable sets in Redis, keyed by their cleaned search
// key, so repeated evaluations of the same card reuse one external lookup.
type CompCache struct {
	client *Client
	logger *slog.Logger
}

// NewCompCache creates a CompCache backed by the given Redis client.
func NewCompCache(client *Client, logger *slog.Logger) *CompCache {
	return &CompCache{
		client: client,
		logger: logger.With(slog.String("component", "comp_cache")),
	}
}

// Get returns the cached comparable set for key, or domain.ErrNotFound on a
// miss.
func (c *CompCache) Get(ctx context.Context, key string) (domain.ComparableSet, error) {
	data, err := c.client.rdb.Get(ctx, compKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ComparableSet{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ComparableSet{}, fmt.Errorf("redis: get comps %q: %w", key, err)
	}

	var set domain.ComparableSet
	if err := json.Unmarshal(data, &set); err != nil {
		// A corrupt entry is treated as a miss so the caller refetches.
		c.logger.Warn("dropping corrupt comp cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = c.client.rdb.Del(ctx, compKeyPrefix+key).Err()
		return domain.ComparableSet{}, domain.ErrNotFound
	}
	return set, nil
}

// Set stores the comparable set under its own key with the given TTL.
func (c *CompCache) Set(ctx context.Context, set domain.ComparableSet, ttl time.Duration) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("redis: marshal comps %q: %w", set.Key, err)
	}
	if err := c.client.rdb.Set(ctx, compKeyPrefix+set.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set comps %q: %w", set.Key, err)
	}
	return nil
}

var _ domain.CompCache = (*CompCache)(nil)
