package domain

import "time"

// RiskTier is a coarse pricing bucket derived from the driving score.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// RiskTierForScore maps a driving score to its tier. Boundaries are exact:
// score>=80 is low, 60-79 medium, below 60 high.
func RiskTierForScore(score int) RiskTier {
	switch {
	case score >= 80:
		return RiskTierLow
	case score >= 60:
		return RiskTierMedium
	default:
		return RiskTierHigh
	}
}

// RecentTrip is a compact entry in the profile's most-recent-trips cache.
// Display-only; the trips table is the source of truth.
type RecentTrip struct {
	TripID         string    `json:"trip_id"`
	Score          int       `json:"score"`
	DistanceMeters float64   `json:"distance_meters"`
	EndedAt        time.Time `json:"ended_at"`
}

// MaxRecentTrips caps the profile's recent-trip cache.
const MaxRecentTrips = 3

// DrivingProfile is the running aggregate of a user's completed trips.
// It is mutated exactly once per completed trip, inside the same
// transaction that marks the trip completed.
type DrivingProfile struct {
	UserID              string
	Score               int // running cumulative mean, 0-100
	Breakdown           ScoreBreakdown
	TotalTrips          int
	TotalMiles          float64
	TotalDrivingMinutes float64
	LastTripAt          time.Time
	StreakDays          int
	Tier                RiskTier
	RecentTrips         []RecentTrip
}
