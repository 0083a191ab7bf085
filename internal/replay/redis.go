package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces replay entries in a shared Redis instance.
const keyPrefix = "crawlgate:replay:"

// RedisGuard is a replay guard backed by Redis, for deployments running
// multiple gateway instances. SET NX with a TTL gives the per-reference
// atomic check-and-set; Redis owns eviction.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a guard over the given Redis client with the given
// protection window.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

// Seen reports whether the reference is recorded and not yet evicted.
func (g *RedisGuard) Seen(ctx context.Context, reference string) (bool, error) {
	n, err := g.client.Exists(ctx, keyPrefix+reference).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check replay entry: %w", err)
	}
	return n > 0, nil
}

// CheckAndRecord atomically records the reference via SET NX. Returns true
// when this call created the entry.
func (g *RedisGuard) CheckAndRecord(ctx context.Context, reference string) (bool, error) {
	created, err := g.client.SetNX(ctx, keyPrefix+reference, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record replay entry: %w", err)
	}
	return created, nil
}
