package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed job locking in Redis. Settlement,
// recalculation, and ranking runs take a lock keyed by job and period so
// overlapping schedules stay single-writer.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireJobLock attempts to acquire a lock for the given job and period key.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireJobLock(ctx context.Context, job, periodKey string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:job:%s:%s", job, periodKey)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseJobLock releases the lock for the given job and period key.
func (s *LockStore) ReleaseJobLock(ctx context.Context, job, periodKey string) error {
	key := fmt.Sprintf("lock:job:%s:%s", job, periodKey)

	return s.client.Del(ctx, key).Err()
}
