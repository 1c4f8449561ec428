package metrics

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	ctx := context.Background()
	c := NewRedisCounters(cache)
	c.Incr(ctx, DateFallback)
	c.Incr(ctx, DateFallback)

	snap, err := c.Snapshot(ctx, DateFallback, DroppedEvent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap[DateFallback])
	assert.Equal(t, int64(0), snap[DroppedEvent])
}

func TestMemoryCounters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounters()
	c.Incr(ctx, DroppedEvent)

	snap, err := c.Snapshot(ctx, DroppedEvent, UnmatchedCredit)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{DroppedEvent: 1, UnmatchedCredit: 0}, snap)
}
