package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/fund"
	"github.com/nexus-hr/treasury/internal/logging"
)

type countingResyncer struct {
	calls atomic.Int32
	err   error
}

func (r *countingResyncer) Resync(context.Context) (fund.SyncResult, error) {
	r.calls.Add(1)
	return fund.SyncResult{}, r.err
}

func TestRunOnceResyncsBalance(t *testing.T) {
	ctx := context.Background()
	store := bank.NewMemoryStore()
	funds := fund.NewInMemory()
	_, err := store.Upsert(ctx, bank.Transaction{RefID: "r1", Type: bank.TypeCredit, Amount: 5, Balance: 420, TxTime: time.Now()})
	require.NoError(t, err)

	w := NewWorker(fund.NewSynchronizer(funds, store, "Bank Fund", logging.Discard()), nil, time.Minute, logging.Discard())
	ran, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)

	f, err := funds.Get(ctx, "Bank Fund")
	require.NoError(t, err)
	assert.Equal(t, int64(420), f.Balance)
}

func TestRunOnceHonoursLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	r := &countingResyncer{}
	first := NewWorker(r, cache, time.Minute, logging.Discard())
	second := NewWorker(r, cache, time.Minute, logging.Discard())

	require.NoError(t, mr.Set(lockKey, "someone-else"))
	ran, err := first.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, r.calls.Load())

	mr.Del(lockKey)
	ran, err = second.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.False(t, mr.Exists(lockKey), "lock released after pass")
}

func TestRunOnceReleasesLockOnError(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	r := &countingResyncer{err: errors.New("boom")}
	w := NewWorker(r, cache, time.Minute, logging.Discard())
	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.False(t, mr.Exists(lockKey))
}

func TestRunStopsOnCancel(t *testing.T) {
	r := &countingResyncer{}
	w := NewWorker(r, nil, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunDisabled(t *testing.T) {
	r := &countingResyncer{}
	NewWorker(r, nil, 0, logging.Discard()).Run(context.Background())
	assert.Zero(t, r.calls.Load())
}
