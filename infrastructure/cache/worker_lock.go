package cache

import (
	"context"
	"time"

	"foodcollab/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// WorkerLock is a best-effort per-run lease that keeps overlapping scheduled
// verification runs from double-incrementing retry counters. With a nil redis
// client the lock degrades to a no-op and every acquire succeeds.
type WorkerLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewWorkerLock(client *redis.Client, key string, ttl time.Duration) *WorkerLock {
	return &WorkerLock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lease. Returns false when another run holds it.
func (l *WorkerLock) Acquire(ctx context.Context) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339Nano), l.ttl).Result()
	if err != nil {
		// Treat redis trouble as "not acquired" rather than risking a double run.
		logger.GetLogger().WithField("error", err).Warn("worker lock acquire failed")
		return false, err
	}
	return ok, nil
}

func (l *WorkerLock) Release(ctx context.Context) {
	if l.client == nil {
		return
	}
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("worker lock release failed")
	}
}
