package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	// DateFallback counts webhook timestamps that matched no known layout.
	DateFallback = "webhook.date_fallback"
	// DroppedEvent counts webhook deliveries discarded for lacking an identity.
	DroppedEvent = "webhook.dropped"
	// UnmatchedCredit counts credits that carried no resolvable pending code.
	UnmatchedCredit = "topup.unmatched_credit"

	redisPrefix = "metrics:v1:"
)

// Counters records monotonically increasing named counts.
type Counters interface {
	Incr(ctx context.Context, name string)
	Snapshot(ctx context.Context, names ...string) (map[string]int64, error)
}

// RedisCounters shares counts across instances using INCR.
type RedisCounters struct {
	cache *redis.Client
}

// NewRedisCounters builds Redis-backed counters.
func NewRedisCounters(cache *redis.Client) *RedisCounters {
	return &RedisCounters{cache: cache}
}

// Incr bumps the counter; failures are swallowed since counts are advisory.
func (c *RedisCounters) Incr(ctx context.Context, name string) {
	_ = c.cache.Incr(ctx, redisPrefix+name).Err()
}

// Snapshot reads the current values of the named counters.
func (c *RedisCounters) Snapshot(ctx context.Context, names ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		v, err := c.cache.Get(ctx, redisPrefix+name).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// MemoryCounters keeps counts in-process.
type MemoryCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounters builds process-local counters.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{values: make(map[string]int64)}
}

func (c *MemoryCounters) Incr(_ context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name]++
}

func (c *MemoryCounters) Snapshot(_ context.Context, names ...string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(names))
	for _, name := range names {
		out[name] = c.values[name]
	}
	return out, nil
}
