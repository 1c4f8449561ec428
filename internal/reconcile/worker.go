package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexus-hr/treasury/internal/fund"
)

const lockKey = "lock:v1:fund-resync"

// releaseScript deletes the lock only if this worker still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Resyncer is the balance maintenance operation the worker drives.
type Resyncer interface {
	Resync(ctx context.Context) (fund.SyncResult, error)
}

// Worker periodically overwrites the fund balance from the latest stored
// transaction. With a Redis client only one instance runs per tick.
type Worker struct {
	resyncer Resyncer
	cache    *redis.Client
	interval time.Duration
	logger   *slog.Logger
	owner    string
}

// NewWorker builds a worker. cache may be nil for single-instance runs.
func NewWorker(resyncer Resyncer, cache *redis.Client, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		resyncer: resyncer,
		cache:    cache,
		interval: interval,
		logger:   logger,
		owner:    uuid.NewString(),
	}
}

// Run ticks until ctx is cancelled. A non-positive interval disables it.
func (w *Worker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("reconciliation worker disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconciliation worker started", slog.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("reconciliation pass failed", slog.Any("error", err))
			}
		}
	}
}

// RunOnce performs a single pass. ran is false when another instance holds
// the lock.
func (w *Worker) RunOnce(ctx context.Context) (ran bool, err error) {
	if w.cache != nil {
		acquired, err := w.cache.SetNX(ctx, lockKey, w.owner, w.lockTTL()).Result()
		if err != nil {
			return false, err
		}
		if !acquired {
			w.logger.Debug("reconciliation skipped, lock held elsewhere")
			return false, nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, w.cache, []string{lockKey}, w.owner).Err(); err != nil {
				w.logger.Warn("release reconciliation lock", slog.Any("error", err))
			}
		}()
	}

	res, err := w.resyncer.Resync(ctx)
	if err != nil {
		return true, err
	}
	w.logger.Debug("reconciliation pass complete",
		slog.String("ref_id", res.RefID),
		slog.Int64("balance", res.Balance),
		slog.Bool("updated", res.Updated),
	)
	return true, nil
}

func (w *Worker) lockTTL() time.Duration {
	if w.interval > 0 && w.interval < time.Minute {
		return w.interval
	}
	return time.Minute
}
