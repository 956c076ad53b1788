package scoring

import (
	"drivepool/internal/domain"
	"drivepool/internal/geo"
)

// Anomaly detection limits.
const (
	impossibleAvgMph    = 200 // no road trip averages this
	gpsJumpRatio        = 5   // route length vs straight line
	gpsJumpReviewRatio  = 10
	gpsJumpMinStraightM = 100 // ratio is meaningless on tiny trips
)

// DetectAnomalies flags conditions that make a trip's telemetry
// untrustworthy. Flagged trips are held for manual review instead of
// completing automatically.
func DetectAnomalies(points []domain.TripPoint, m Metrics) domain.AnomalyFlags {
	var flags domain.AnomalyFlags

	if m.DurationSeconds > 0 {
		avgMph := (m.DistanceMeters / metersPerMile) / (float64(m.DurationSeconds) / 3600)
		if avgMph > impossibleAvgMph {
			flags.HasImpossibleSpeed = true
			flags.FlaggedForReview = true
		}
	}

	if len(points) >= 2 {
		first, last := points[0], points[len(points)-1]
		straight := geo.DistanceMeters(first.Latitude, first.Longitude, last.Latitude, last.Longitude)
		if straight > gpsJumpMinStraightM {
			ratio := m.DistanceMeters / straight
			if ratio > gpsJumpRatio {
				flags.HasGpsJumps = true
			}
			if ratio > gpsJumpReviewRatio {
				flags.FlaggedForReview = true
			}
		}
	}

	return flags
}
