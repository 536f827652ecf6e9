package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
)

const (
	seenSetKey = "seen:listings"
	seenSetTTL = 30 * 24 * time.Hour
)

// SeenCache is a best-effort Redis front for the durable seen ledger. Entries
// live in one set with a rolling TTL; losing the set only costs a few
// duplicate alerts.
type SeenCache struct {
	client *Client
}

// NewSeenCache creates a SeenCache backed by the given Redis client.
func NewSeenCache(client *Client) *SeenCache {
	return &SeenCache{client: client}
}

// Add records the listing IDs as seen and refreshes the set's TTL.
func (c *SeenCache) Add(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	pipe := c.client.rdb.TxPipeline()
	pipe.SAdd(ctx, seenSetKey, members...)
	pipe.Expire(ctx, seenSetKey, seenSetTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: add seen: %w", err)
	}
	return nil
}

// Contains reports, per listing ID, whether it is in the seen set.
func (c *SeenCache) Contains(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	hits, err := c.client.rdb.SMIsMember(ctx, seenSetKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: check seen: %w", err)
	}
	for i, id := range ids {
		out[id] = hits[i]
	}
	return out, nil
}

var _ domain.SeenCache = (*SeenCache)(nil)
