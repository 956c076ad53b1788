package service

import (
	"context"
	"sort"
	"time"

	"drivepool/internal/domain"
	internalRedis "drivepool/internal/redis"
	"drivepool/internal/repository"
)

// defaultMinTrips is the trip count a driver needs before ranking.
const defaultMinTrips = 3

// LeaderboardService regenerates ranking snapshots from the profile store.
type LeaderboardService struct {
	userRepo repository.UserRepository
	store    internalRedis.LeaderboardStoreInterface
	minTrips int
}

// NewLeaderboardService creates a new LeaderboardService. A minTrips of zero
// or below falls back to the default.
func NewLeaderboardService(userRepo repository.UserRepository, store internalRedis.LeaderboardStoreInterface, minTrips int) *LeaderboardService {
	if minTrips <= 0 {
		minTrips = defaultMinTrips
	}
	return &LeaderboardService{userRepo: userRepo, store: store, minTrips: minTrips}
}

// Get returns the current snapshot for a period type. Returns an empty
// snapshot when no ranking run has happened yet.
func (s *LeaderboardService) Get(ctx context.Context, period domain.LeaderboardPeriod) (*domain.LeaderboardSnapshot, error) {
	snapshot, err := s.store.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &domain.LeaderboardSnapshot{
			Period:      period,
			Entries:     []domain.LeaderboardEntry{},
			GeneratedAt: time.Now(),
		}
	}
	return snapshot, nil
}

// Rebuild regenerates one period's snapshot from scratch and swaps it in,
// carrying rank movement relative to the previous snapshot.
//
// Every period type ranks the same lifetime profile aggregates; the profile
// store keeps no per-window rollups, so weekly and monthly differ from
// all-time only in snapshot key, rebuild cadence, and movement baseline.
func (s *LeaderboardService) Rebuild(ctx context.Context, period domain.LeaderboardPeriod) (*domain.LeaderboardSnapshot, error) {
	drivers, err := s.userRepo.ListRankable(ctx, s.minTrips)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	prevRanks := make(map[string]int)
	if previous != nil {
		for _, e := range previous.Entries {
			prevRanks[e.UserID] = e.Rank
		}
	}

	snapshot := buildSnapshot(period, drivers, prevRanks)
	if err := s.store.Replace(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// buildSnapshot ranks drivers by score, breaking ties by miles driven and
// then user ID so ordering is stable across runs.
func buildSnapshot(period domain.LeaderboardPeriod, drivers []repository.RankedDriver, prevRanks map[string]int) *domain.LeaderboardSnapshot {
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].Score != drivers[j].Score {
			return drivers[i].Score > drivers[j].Score
		}
		if drivers[i].TotalMiles != drivers[j].TotalMiles {
			return drivers[i].TotalMiles > drivers[j].TotalMiles
		}
		return drivers[i].UserID < drivers[j].UserID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(drivers))
	scores := make([]int, 0, len(drivers))
	scoreSum := 0
	for i, d := range drivers {
		rank := i + 1
		change := 0
		if prev, ok := prevRanks[d.UserID]; ok {
			change = prev - rank
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:       rank,
			UserID:     d.UserID,
			Name:       d.Name,
			Score:      d.Score,
			TotalMiles: d.TotalMiles,
			TotalTrips: d.TotalTrips,
			Change:     change,
		})
		scores = append(scores, d.Score)
		scoreSum += d.Score
	}

	snapshot := &domain.LeaderboardSnapshot{
		Period:       period,
		Entries:      entries,
		Participants: len(entries),
		GeneratedAt:  time.Now(),
	}
	if len(entries) > 0 {
		snapshot.MeanScore = float64(scoreSum) / float64(len(entries))
		snapshot.MedianScore = medianOfSorted(scores)
	}
	return snapshot
}

// medianOfSorted expects scores in descending rank order, which is still
// sorted for median purposes.
func medianOfSorted(scores []int) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(scores[n/2])
	}
	return (float64(scores[n/2-1]) + float64(scores[n/2])) / 2
}
