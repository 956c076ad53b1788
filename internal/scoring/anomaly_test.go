package scoring

import (
	"testing"

	"drivepool/internal/domain"
)

func TestDetectAnomalies_CleanTrip(t *testing.T) {
	t.Parallel()

	points := steadyDrive(300, 20)
	m := Compute(points, DefaultThresholds())

	flags := DetectAnomalies(points, m)

	if flags.HasImpossibleSpeed || flags.HasGpsJumps || flags.FlaggedForReview {
		t.Errorf("clean trip flagged: %+v", flags)
	}
}

func TestDetectAnomalies_ImpossibleAverageSpeed(t *testing.T) {
	t.Parallel()

	// London to Birmingham (~163 km) in 10 minutes.
	points := []domain.TripPoint{
		pt(0, 51.5074, -0.1278, 30, 0),
		pt(600000, 52.4862, -1.8904, 30, 0),
	}
	m := Compute(points, DefaultThresholds())

	flags := DetectAnomalies(points, m)

	if !flags.HasImpossibleSpeed {
		t.Error("expected impossible-speed flag")
	}
	if !flags.FlaggedForReview {
		t.Error("impossible speed must flag for review")
	}
}

func TestDetectAnomalies_GpsJumpRatio(t *testing.T) {
	t.Parallel()

	// Route wanders ~4.4 km while start and end are ~220 m apart.
	points := []domain.TripPoint{
		pt(0, 51.5000, -0.1200, 15, 0),
		pt(60000, 51.5200, -0.1200, 15, 0),
		pt(120000, 51.5020, -0.1200, 15, 180),
	}
	m := Compute(points, DefaultThresholds())

	flags := DetectAnomalies(points, m)

	if !flags.HasGpsJumps {
		t.Error("expected GPS-jump flag")
	}
	if !flags.FlaggedForReview {
		t.Error("expected review flag when ratio exceeds the review threshold")
	}
}

func TestDetectAnomalies_ShortStraightLineSkipsJumpCheck(t *testing.T) {
	t.Parallel()

	// Start and end ~50 m apart: the ratio check is not evaluated,
	// however circuitous the route looks.
	points := []domain.TripPoint{
		pt(0, 51.50000, -0.1200, 10, 0),
		pt(60000, 51.51000, -0.1200, 10, 0),
		pt(120000, 51.50045, -0.1200, 10, 180),
	}
	m := Compute(points, DefaultThresholds())

	flags := DetectAnomalies(points, m)

	if flags.HasGpsJumps {
		t.Error("jump check must be skipped when endpoints are close together")
	}
}
