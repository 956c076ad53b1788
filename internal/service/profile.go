package service

import (
	"math"

	"drivepool/internal/domain"
)

const (
	metersPerMile = 1609.34

	// streakMinScore is the minimum trip score that keeps a streak alive.
	streakMinScore = 70
)

// mergeTripIntoProfile applies one completed trip to the running driving
// profile. The update rule is a cumulative mean: every historical trip keeps
// weight one and the new trip joins with weight one. Callers run this inside
// the same transaction that marks the trip completed.
func mergeTripIntoProfile(p *domain.DrivingProfile, trip *domain.Trip) {
	oldWeight := p.TotalTrips
	p.TotalTrips++

	p.Score = weightedAverage(p.Score, trip.Score, oldWeight)
	p.Breakdown.Speed = weightedAverage(p.Breakdown.Speed, trip.Breakdown.Speed, oldWeight)
	p.Breakdown.Braking = weightedAverage(p.Breakdown.Braking, trip.Breakdown.Braking, oldWeight)
	p.Breakdown.Acceleration = weightedAverage(p.Breakdown.Acceleration, trip.Breakdown.Acceleration, oldWeight)
	p.Breakdown.Cornering = weightedAverage(p.Breakdown.Cornering, trip.Breakdown.Cornering, oldWeight)
	p.Breakdown.PhoneUsage = weightedAverage(p.Breakdown.PhoneUsage, trip.Breakdown.PhoneUsage, oldWeight)

	p.TotalMiles += trip.DistanceMeters / metersPerMile
	p.TotalDrivingMinutes += float64(trip.DurationSeconds) / 60
	p.Tier = domain.RiskTierForScore(p.Score)

	p.StreakDays = nextStreak(p, trip)
	p.LastTripAt = trip.EndedAt

	p.RecentTrips = append(p.RecentTrips, domain.RecentTrip{
		TripID:         trip.ID,
		Score:          trip.Score,
		DistanceMeters: trip.DistanceMeters,
		EndedAt:        trip.EndedAt,
	})
	if len(p.RecentTrips) > domain.MaxRecentTrips {
		p.RecentTrips = p.RecentTrips[len(p.RecentTrips)-domain.MaxRecentTrips:]
	}
}

// weightedAverage folds a new sample into a running mean that carried
// oldWeight samples. With oldWeight 0 the new sample replaces the mean.
func weightedAverage(old, sample, oldWeight int) int {
	if oldWeight == 0 {
		return sample
	}
	return int(math.Round(
		(float64(old)*float64(oldWeight) + float64(sample)) / float64(oldWeight+1),
	))
}

// nextStreak applies the streak rule: trips on consecutive days with a
// score of at least 70 extend the streak; a gap over one day restarts it.
func nextStreak(p *domain.DrivingProfile, trip *domain.Trip) int {
	goodTrip := trip.Score >= streakMinScore

	if p.LastTripAt.IsZero() {
		if goodTrip {
			return 1
		}
		return 0
	}

	dayDelta := trip.EndedAt.Sub(p.LastTripAt).Hours() / 24
	switch {
	case dayDelta <= 1 && goodTrip:
		return p.StreakDays + 1
	case dayDelta > 1 && goodTrip:
		return 1
	case dayDelta > 1:
		return 0
	default:
		// Same-day or next-day trip below the bar keeps the streak as is.
		return p.StreakDays
	}
}
