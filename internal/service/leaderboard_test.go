package service

import (
	"testing"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

func TestBuildSnapshot_OrderingAndRanks(t *testing.T) {
	t.Parallel()

	drivers := []repository.RankedDriver{
		{UserID: "u1", Name: "Ann", Score: 85, TotalMiles: 120, TotalTrips: 10},
		{UserID: "u2", Name: "Ben", Score: 92, TotalMiles: 80, TotalTrips: 7},
		{UserID: "u3", Name: "Cal", Score: 85, TotalMiles: 200, TotalTrips: 15},
	}

	snapshot := buildSnapshot(domain.LeaderboardPeriodWeekly, drivers, nil)

	if snapshot.Participants != 3 {
		t.Fatalf("expected 3 participants, got %d", snapshot.Participants)
	}

	// Score desc, ties broken by miles desc.
	wantOrder := []string{"u2", "u3", "u1"}
	for i, want := range wantOrder {
		e := snapshot.Entries[i]
		if e.UserID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, e.UserID)
		}
		if e.Rank != i+1 {
			t.Errorf("position %d: expected contiguous rank %d, got %d", i, i+1, e.Rank)
		}
	}
}

func TestBuildSnapshot_TieBrokenByUserID(t *testing.T) {
	t.Parallel()

	drivers := []repository.RankedDriver{
		{UserID: "b", Score: 80, TotalMiles: 50},
		{UserID: "a", Score: 80, TotalMiles: 50},
	}

	snapshot := buildSnapshot(domain.LeaderboardPeriodMonthly, drivers, nil)
	if snapshot.Entries[0].UserID != "a" || snapshot.Entries[1].UserID != "b" {
		t.Errorf("expected deterministic order a, b; got %s, %s",
			snapshot.Entries[0].UserID, snapshot.Entries[1].UserID)
	}
}

func TestBuildSnapshot_RankChange(t *testing.T) {
	t.Parallel()

	prevRanks := map[string]int{"u1": 1, "u2": 3}
	drivers := []repository.RankedDriver{
		{UserID: "u1", Score: 70},
		{UserID: "u2", Score: 95},
		{UserID: "u3", Score: 80},
	}

	snapshot := buildSnapshot(domain.LeaderboardPeriodAllTime, drivers, prevRanks)

	byUser := make(map[string]domain.LeaderboardEntry)
	for _, e := range snapshot.Entries {
		byUser[e.UserID] = e
	}

	// u2 climbed from 3 to 1: change +2. u1 fell from 1 to 3: change -2.
	if byUser["u2"].Change != 2 {
		t.Errorf("expected u2 change +2, got %d", byUser["u2"].Change)
	}
	if byUser["u1"].Change != -2 {
		t.Errorf("expected u1 change -2, got %d", byUser["u1"].Change)
	}
	// New entrant has no movement.
	if byUser["u3"].Change != 0 {
		t.Errorf("expected u3 change 0, got %d", byUser["u3"].Change)
	}
}

func TestBuildSnapshot_Statistics(t *testing.T) {
	t.Parallel()

	drivers := []repository.RankedDriver{
		{UserID: "u1", Score: 90},
		{UserID: "u2", Score: 80},
		{UserID: "u3", Score: 70},
		{UserID: "u4", Score: 60},
	}

	snapshot := buildSnapshot(domain.LeaderboardPeriodWeekly, drivers, nil)

	if snapshot.MeanScore != 75 {
		t.Errorf("expected mean 75, got %v", snapshot.MeanScore)
	}
	// Even count: exact average of the two middle scores.
	if snapshot.MedianScore != 75 {
		t.Errorf("expected median 75, got %v", snapshot.MedianScore)
	}
}

func TestBuildSnapshot_OddMedian(t *testing.T) {
	t.Parallel()

	drivers := []repository.RankedDriver{
		{UserID: "u1", Score: 95},
		{UserID: "u2", Score: 72},
		{UserID: "u3", Score: 61},
	}

	snapshot := buildSnapshot(domain.LeaderboardPeriodWeekly, drivers, nil)
	if snapshot.MedianScore != 72 {
		t.Errorf("expected median 72, got %v", snapshot.MedianScore)
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	t.Parallel()

	snapshot := buildSnapshot(domain.LeaderboardPeriodWeekly, nil, nil)
	if snapshot.Participants != 0 || len(snapshot.Entries) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snapshot)
	}
	if snapshot.MeanScore != 0 || snapshot.MedianScore != 0 {
		t.Errorf("expected zero statistics for empty snapshot")
	}
}
