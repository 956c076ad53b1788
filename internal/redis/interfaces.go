package redis

import (
	"context"
	"time"

	"drivepool/internal/domain"
)

// LockStoreInterface defines the interface for distributed job locking.
type LockStoreInterface interface {
	AcquireJobLock(ctx context.Context, job, periodKey string, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, job, periodKey string) error
}

// LeaderboardStoreInterface defines the interface for snapshot storage.
type LeaderboardStoreInterface interface {
	Get(ctx context.Context, period domain.LeaderboardPeriod) (*domain.LeaderboardSnapshot, error)
	Replace(ctx context.Context, snapshot *domain.LeaderboardSnapshot) error
}

// CacheStoreInterface defines the interface for profile summary caching.
type CacheStoreInterface interface {
	GetProfile(ctx context.Context, userID string) (*CachedProfile, error)
	SetProfile(ctx context.Context, profile *CachedProfile) error
	InvalidateProfile(ctx context.Context, userID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ LeaderboardStoreInterface = (*LeaderboardStore)(nil)
	_ CacheStoreInterface       = (*CacheStore)(nil)
)
