package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProfileCacheTTL bounds staleness of the dashboard profile summary.
const ProfileCacheTTL = 60 * time.Second

const profileCachePrefix = "cache:profile:"

// CachedProfile is the display summary cached per user. A cache, not a
// source of truth; the driving_profiles table is authoritative.
type CachedProfile struct {
	UserID     string  `json:"user_id"`
	Score      int     `json:"score"`
	RiskTier   string  `json:"risk_tier"`
	TotalTrips int     `json:"total_trips"`
	TotalMiles float64 `json:"total_miles"`
	StreakDays int     `json:"streak_days"`
}

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetProfile retrieves a profile summary from cache.
func (s *CacheStore) GetProfile(ctx context.Context, userID string) (*CachedProfile, error) {
	data, err := s.client.Get(ctx, profileCachePrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var profile CachedProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetProfile stores a profile summary in cache.
func (s *CacheStore) SetProfile(ctx context.Context, profile *CachedProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileCachePrefix+profile.UserID, data, ProfileCacheTTL).Err()
}

// InvalidateProfile removes a profile summary from cache. Called after a
// trip completion mutates the underlying profile.
func (s *CacheStore) InvalidateProfile(ctx context.Context, userID string) error {
	return s.client.Del(ctx, profileCachePrefix+userID).Err()
}
