package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// TagCache is a read-through cache for tag name → ID lookups on the search
// path. Tag rows are never renamed or deleted, so entries need no
// invalidation. A nil *TagCache is valid and always misses, which keeps Redis
// strictly optional.
type TagCache struct {
	client *redis.Client
}

// NewTagCache wraps a redis client. Returns nil for a nil client so callers
// can pass the result through unconditionally.
func NewTagCache(client *redis.Client) *TagCache {
	if client == nil {
		return nil
	}
	return &TagCache{client: client}
}

func key(name string) string {
	return "tag:" + name
}

// GetID returns the cached tag ID for a normalized name. Cache errors count
// as misses; the database stays authoritative.
func (c *TagCache) GetID(ctx context.Context, name string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, err := c.client.Get(ctx, key(name)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SetID records a resolved name → ID pair. Best effort; failures are ignored.
func (c *TagCache) SetID(ctx context.Context, name string, id int64) {
	if c == nil {
		return
	}
	c.client.Set(ctx, key(name), strconv.FormatInt(id, 10), 0)
}
