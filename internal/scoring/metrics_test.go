package scoring

import (
	"testing"

	"drivepool/internal/domain"
)

// pt builds a minimal trip point for detector tests.
func pt(offsetMs int64, lat, lng, speed, heading float64) domain.TripPoint {
	return domain.TripPoint{
		OffsetMs:  offsetMs,
		Latitude:  lat,
		Longitude: lng,
		SpeedMS:   speed,
		Heading:   heading,
	}
}

// steadyDrive returns a clean constant-speed sequence heading north.
func steadyDrive(n int, speed float64) []domain.TripPoint {
	points := make([]domain.TripPoint, 0, n)
	for i := 0; i < n; i++ {
		// ~0.0002 deg latitude per second at ~22 m/s
		points = append(points, pt(int64(i)*1000, 51.5+float64(i)*0.0002, -0.12, speed, 0))
	}
	return points
}

func TestCompute_TooFewPoints_NeutralDefault(t *testing.T) {
	t.Parallel()

	m := Compute([]domain.TripPoint{pt(0, 51.5, -0.12, 10, 0)}, DefaultThresholds())

	if m.Score != 70 {
		t.Errorf("expected neutral score 70, got %d", m.Score)
	}
	if m.Breakdown.PhoneUsage != 100 {
		t.Errorf("expected phone usage 100, got %d", m.Breakdown.PhoneUsage)
	}
	if m.Breakdown.Braking != 70 {
		t.Errorf("expected braking 70, got %d", m.Breakdown.Braking)
	}
}

func TestCompute_CleanDrive_HighScoreNoEvents(t *testing.T) {
	t.Parallel()

	m := Compute(steadyDrive(120, 20), DefaultThresholds())

	if m.Events.HardBrakes != 0 || m.Events.HardAccels != 0 || m.Events.SharpTurns != 0 {
		t.Errorf("expected no events on a steady drive, got %+v", m.Events)
	}
	if m.Events.SpeedingSeconds != 0 {
		t.Errorf("expected no speeding, got %d s", m.Events.SpeedingSeconds)
	}
	if m.Score < 90 {
		t.Errorf("expected high score for clean drive, got %d", m.Score)
	}
	if m.DurationSeconds != 119 {
		t.Errorf("expected 119 s duration, got %d", m.DurationSeconds)
	}
}

func TestCompute_ScoreAlwaysInBounds(t *testing.T) {
	t.Parallel()

	// Aggressive short trip: every pair is a brake or accel plus a turn.
	points := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 0, 0),
		pt(1000, 51.5001, -0.12, 8, 80),
		pt(2000, 51.5002, -0.12, 0, 170),
		pt(3000, 51.5003, -0.12, 9, 260),
		pt(4000, 51.5004, -0.12, 0, 350),
	}

	m := Compute(points, DefaultThresholds())

	if m.Score < 0 || m.Score > 100 {
		t.Fatalf("score out of bounds: %d", m.Score)
	}
	for name, v := range map[string]int{
		"speed":        m.Breakdown.Speed,
		"braking":      m.Breakdown.Braking,
		"acceleration": m.Breakdown.Acceleration,
		"cornering":    m.Breakdown.Cornering,
		"phone":        m.Breakdown.PhoneUsage,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s sub-score out of bounds: %d", name, v)
		}
	}
}

func TestDetectEvents_HardBrakeAndAccel(t *testing.T) {
	t.Parallel()

	points := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 20, 0),
		pt(2000, 51.5002, -0.12, 12, 0), // -4 m/s^2
		pt(4000, 51.5004, -0.12, 19, 0), // +3.5 m/s^2
	}

	ev := detectEvents(points, DefaultThresholds())

	if ev.HardBrakes != 1 {
		t.Errorf("expected 1 hard brake, got %d", ev.HardBrakes)
	}
	if ev.HardAccels != 1 {
		t.Errorf("expected 1 hard accel, got %d", ev.HardAccels)
	}
}

func TestDetectEvents_BoundaryAccelerationIsNotAnEvent(t *testing.T) {
	t.Parallel()

	// Exactly -3.5 and +3.0 m/s^2: thresholds are strict inequalities.
	points := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 20, 0),
		pt(1000, 51.5002, -0.12, 16.5, 0),
		pt(2000, 51.5004, -0.12, 19.5, 0),
	}

	ev := detectEvents(points, DefaultThresholds())

	if ev.HardBrakes != 0 || ev.HardAccels != 0 {
		t.Errorf("boundary values must not count as events, got %+v", ev)
	}
}

func TestDetectEvents_SpeedingAccumulatesSeconds(t *testing.T) {
	t.Parallel()

	points := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 33, 0),
		pt(2000, 51.5006, -0.12, 33, 0),
		pt(4000, 51.5012, -0.12, 33, 0),
		pt(6000, 51.5018, -0.12, 20, 0), // dropped below threshold
	}

	ev := detectEvents(points, DefaultThresholds())

	if ev.SpeedingSeconds != 4 {
		t.Errorf("expected 4 speeding seconds, got %d", ev.SpeedingSeconds)
	}
}

func TestDetectEvents_SharpTurnRequiresSpeed(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	// 90 degrees in 2 s = 45 deg/s at 10 m/s: sharp turn.
	fast := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 10, 0),
		pt(2000, 51.5002, -0.12, 10, 90),
	}
	if ev := detectEvents(fast, th); ev.SharpTurns != 1 {
		t.Errorf("expected 1 sharp turn, got %d", ev.SharpTurns)
	}

	// Same rotation while crawling: ignored (parking maneuvers).
	slow := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 2, 0),
		pt(2000, 51.5002, -0.12, 2, 90),
	}
	if ev := detectEvents(slow, th); ev.SharpTurns != 0 {
		t.Errorf("expected no sharp turns at low speed, got %d", ev.SharpTurns)
	}
}

func TestDetectEvents_LargeGapsSkipped(t *testing.T) {
	t.Parallel()

	// 15 s gap with a huge speed change: must be skipped, not interpolated.
	points := []domain.TripPoint{
		pt(0, 51.5000, -0.12, 30, 0),
		pt(15000, 51.5050, -0.12, 0, 0),
	}

	ev := detectEvents(points, DefaultThresholds())

	if ev.HardBrakes != 0 {
		t.Errorf("expected gap pair to be skipped, got %d brakes", ev.HardBrakes)
	}
	if ev.SpeedingSeconds != 0 {
		t.Errorf("expected no speeding over a gap, got %d", ev.SpeedingSeconds)
	}
}

func TestCompute_OutlierSpeedsDiscarded(t *testing.T) {
	t.Parallel()

	points := steadyDrive(60, 20)
	points[30].SpeedMS = 250 // GPS glitch

	m := Compute(points, DefaultThresholds())

	if m.MaxSpeedMS != 20 {
		t.Errorf("outlier speed leaked into max: %f", m.MaxSpeedMS)
	}
}

func TestCompute_UnsortedBatchesHandled(t *testing.T) {
	t.Parallel()

	// Batches can arrive out of order; Compute must sort by offset.
	ordered := steadyDrive(60, 20)
	shuffled := append([]domain.TripPoint{}, ordered[30:]...)
	shuffled = append(shuffled, ordered[:30]...)

	a := Compute(ordered, DefaultThresholds())
	b := Compute(shuffled, DefaultThresholds())

	if a.Score != b.Score || a.DurationSeconds != b.DurationSeconds {
		t.Errorf("order dependence: %+v vs %+v", a, b)
	}
}
