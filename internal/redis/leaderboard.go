package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"drivepool/internal/domain"
)

const leaderboardKeyPrefix = "leaderboard:"

// LeaderboardStore persists ranking snapshots in Redis. Each period type
// holds exactly one snapshot, replaced whole on every ranking run.
type LeaderboardStore struct {
	client *redis.Client
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client}
}

// Get retrieves the current snapshot for a period type.
// Returns nil if no snapshot has been generated yet.
func (s *LeaderboardStore) Get(ctx context.Context, period domain.LeaderboardPeriod) (*domain.LeaderboardSnapshot, error) {
	data, err := s.client.Get(ctx, leaderboardKeyPrefix+string(period)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.LeaderboardSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Replace atomically swaps in a new snapshot for a period type.
func (s *LeaderboardStore) Replace(ctx context.Context, snapshot *domain.LeaderboardSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, leaderboardKeyPrefix+string(snapshot.Period), data, 0).Err()
}
