package service

import (
	"testing"
	"time"

	"drivepool/internal/domain"
)

func TestWeightedAverage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		old       int
		sample    int
		oldWeight int
		want      int
	}{
		{"first sample replaces", 0, 85, 0, 85},
		{"equal weight averages", 80, 90, 1, 85},
		{"heavy history moves slowly", 80, 100, 9, 82},
		{"rounds half up", 70, 75, 1, 73},
		{"identical values stable", 77, 77, 50, 77},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := weightedAverage(tc.old, tc.sample, tc.oldWeight); got != tc.want {
				t.Errorf("weightedAverage(%d, %d, %d) = %d, want %d", tc.old, tc.sample, tc.oldWeight, got, tc.want)
			}
		})
	}
}

func TestMergeTripIntoProfile_FirstTrip(t *testing.T) {
	t.Parallel()

	profile := &domain.DrivingProfile{UserID: "user-1", Tier: domain.RiskTierMedium}
	trip := &domain.Trip{
		ID:              "trip-1",
		UserID:          "user-1",
		Score:           88,
		Breakdown:       domain.ScoreBreakdown{Speed: 90, Braking: 85, Acceleration: 92, Cornering: 80, PhoneUsage: 100},
		DistanceMeters:  16093.4, // 10 miles
		DurationSeconds: 1200,
		EndedAt:         time.Now(),
	}

	mergeTripIntoProfile(profile, trip)

	if profile.Score != 88 {
		t.Errorf("expected profile score 88, got %d", profile.Score)
	}
	if profile.TotalTrips != 1 {
		t.Errorf("expected 1 total trip, got %d", profile.TotalTrips)
	}
	if profile.TotalMiles < 9.99 || profile.TotalMiles > 10.01 {
		t.Errorf("expected ~10 miles, got %f", profile.TotalMiles)
	}
	if profile.TotalDrivingMinutes != 20 {
		t.Errorf("expected 20 minutes, got %f", profile.TotalDrivingMinutes)
	}
	if profile.Tier != domain.RiskTierLow {
		t.Errorf("expected low tier at score 88, got %s", profile.Tier)
	}
	if profile.StreakDays != 1 {
		t.Errorf("expected streak 1 after first good trip, got %d", profile.StreakDays)
	}
	if len(profile.RecentTrips) != 1 || profile.RecentTrips[0].TripID != "trip-1" {
		t.Errorf("expected recent trips to contain trip-1, got %+v", profile.RecentTrips)
	}
}

func TestMergeTripIntoProfile_CumulativeMean(t *testing.T) {
	t.Parallel()

	profile := &domain.DrivingProfile{UserID: "user-1"}
	ended := time.Now()

	scores := []int{90, 70, 80}
	for i, score := range scores {
		mergeTripIntoProfile(profile, &domain.Trip{
			ID:      "trip",
			Score:   score,
			EndedAt: ended.Add(time.Duration(i) * time.Hour),
		})
	}

	// (90 + 70 + 80) / 3 via running mean
	if profile.Score != 80 {
		t.Errorf("expected cumulative mean 80, got %d", profile.Score)
	}
	if profile.TotalTrips != 3 {
		t.Errorf("expected 3 trips, got %d", profile.TotalTrips)
	}
}

func TestMergeTripIntoProfile_RecentTripsCapped(t *testing.T) {
	t.Parallel()

	profile := &domain.DrivingProfile{UserID: "user-1"}
	ended := time.Now()

	for i := 0; i < domain.MaxRecentTrips+2; i++ {
		mergeTripIntoProfile(profile, &domain.Trip{
			ID:      string(rune('a' + i)),
			Score:   75,
			EndedAt: ended.Add(time.Duration(i) * time.Minute),
		})
	}

	if len(profile.RecentTrips) != domain.MaxRecentTrips {
		t.Fatalf("expected %d recent trips, got %d", domain.MaxRecentTrips, len(profile.RecentTrips))
	}
	// Oldest entries must have been evicted.
	if profile.RecentTrips[0].TripID == "a" {
		t.Error("oldest recent trip should have been evicted")
	}
}

func TestNextStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		lastTripAt time.Time
		streak     int
		score      int
		endedAt    time.Time
		want       int
	}{
		{"first good trip starts streak", time.Time{}, 0, 70, now, 1},
		{"first bad trip no streak", time.Time{}, 0, 69, now, 0},
		{"same day good trip extends", now.Add(-2 * time.Hour), 4, 85, now, 5},
		{"next day good trip extends", now.Add(-24 * time.Hour), 4, 85, now, 5},
		{"two day gap good trip restarts", now.Add(-49 * time.Hour), 4, 85, now, 1},
		{"two day gap bad trip resets", now.Add(-49 * time.Hour), 4, 50, now, 0},
		{"same day bad trip keeps streak", now.Add(-2 * time.Hour), 4, 50, now, 4},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			profile := &domain.DrivingProfile{LastTripAt: tc.lastTripAt, StreakDays: tc.streak}
			trip := &domain.Trip{Score: tc.score, EndedAt: tc.endedAt}
			if got := nextStreak(profile, trip); got != tc.want {
				t.Errorf("nextStreak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRiskTierBoundaries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		score int
		want  domain.RiskTier
	}{
		{100, domain.RiskTierLow},
		{80, domain.RiskTierLow},
		{79, domain.RiskTierMedium},
		{60, domain.RiskTierMedium},
		{59, domain.RiskTierHigh},
		{0, domain.RiskTierHigh},
	}

	for _, tc := range testCases {
		if got := domain.RiskTierForScore(tc.score); got != tc.want {
			t.Errorf("RiskTierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
