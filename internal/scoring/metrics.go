// Package scoring turns a trip's raw point sequence into event counts,
// speed statistics, and the five-factor composite driving score.
package scoring

import (
	"math"
	"sort"

	"drivepool/internal/domain"
	"drivepool/internal/geo"
)

const metersPerMile = 1609.34

// Thresholds are the event-detection and outlier limits. Zero values are
// never meaningful; construct with DefaultThresholds and override via config.
type Thresholds struct {
	HardBrakeMS2     float64 // acceleration below this is a hard brake
	HardAccelMS2     float64 // acceleration above this is a hard acceleration
	SpeedingMS       float64 // sustained speed above this accrues speeding time
	SharpTurnDegPerS float64 // heading rate above this is a sharp turn
	SharpTurnMinMS   float64 // turns below this speed are ignored
	MaxGapSeconds    float64 // pairs with a larger time gap are skipped
	OutlierSpeedMS   float64 // speeds at or above this are sensor error
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HardBrakeMS2:     -3.5,
		HardAccelMS2:     3.0,
		SpeedingMS:       31.3, // ~70 mph
		SharpTurnDegPerS: 30,
		SharpTurnMinMS:   5,
		MaxGapSeconds:    10,
		OutlierSpeedMS:   100,
	}
}

// Metrics is the full computed bundle for one trip.
type Metrics struct {
	DistanceMeters  float64
	DurationSeconds int64
	AvgSpeedMS      float64
	MaxSpeedMS      float64
	SpeedStddev     float64
	Events          domain.EventCounts
	Score           int
	Breakdown       domain.ScoreBreakdown
	PointCount      int
}

// neutralDefault is returned when there is not enough telemetry to score.
// Insufficient data assumes an average driver rather than failing.
func neutralDefault(pointCount int) Metrics {
	return Metrics{
		Score: 70,
		Breakdown: domain.ScoreBreakdown{
			Speed:        70,
			Braking:      70,
			Acceleration: 70,
			Cornering:    70,
			PhoneUsage:   100,
		},
		DurationSeconds: 1,
		PointCount:      pointCount,
	}
}

// Compute sorts the points by offset and derives distance, duration, speed
// statistics, event counts, and the composite score.
func Compute(points []domain.TripPoint, th Thresholds) Metrics {
	if len(points) < 2 {
		return neutralDefault(len(points))
	}

	sorted := make([]domain.TripPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OffsetMs < sorted[j].OffsetMs })

	m := Metrics{PointCount: len(sorted)}

	// Distance: sum of great-circle hops between consecutive points.
	for i := 1; i < len(sorted); i++ {
		m.DistanceMeters += geo.DistanceMeters(
			sorted[i-1].Latitude, sorted[i-1].Longitude,
			sorted[i].Latitude, sorted[i].Longitude,
		)
	}

	// Duration: floored at one second so rates never divide by zero.
	m.DurationSeconds = (sorted[len(sorted)-1].OffsetMs - sorted[0].OffsetMs) / 1000
	if m.DurationSeconds < 1 {
		m.DurationSeconds = 1
	}

	m.AvgSpeedMS, m.MaxSpeedMS, m.SpeedStddev = speedStats(sorted, th.OutlierSpeedMS)
	m.Events = detectEvents(sorted, th)
	m.Breakdown, m.Score = score(m, th)

	return m
}

// speedStats returns mean, max, and sample standard deviation of per-point
// speed, discarding outlier readings.
func speedStats(points []domain.TripPoint, outlierMS float64) (mean, max, stddev float64) {
	var speeds []float64
	for _, p := range points {
		if p.SpeedMS >= outlierMS {
			continue // sensor error
		}
		speeds = append(speeds, p.SpeedMS)
		if p.SpeedMS > max {
			max = p.SpeedMS
		}
	}
	if len(speeds) == 0 {
		return 0, 0, 0
	}

	var sum float64
	for _, s := range speeds {
		sum += s
	}
	mean = sum / float64(len(speeds))

	if len(speeds) < 2 {
		return mean, max, 0
	}

	var sq float64
	for _, s := range speeds {
		sq += (s - mean) * (s - mean)
	}
	stddev = math.Sqrt(sq / float64(len(speeds)-1))

	return mean, max, stddev
}

// detectEvents scans consecutive pairs for hard braking, hard acceleration,
// speeding time, and sharp turns. Pairs with a gap over MaxGapSeconds are
// skipped, not interpolated.
func detectEvents(points []domain.TripPoint, th Thresholds) domain.EventCounts {
	var ev domain.EventCounts

	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]

		dt := float64(cur.OffsetMs-prev.OffsetMs) / 1000
		if dt <= 0 || dt > th.MaxGapSeconds {
			continue
		}

		if prev.SpeedMS >= th.OutlierSpeedMS || cur.SpeedMS >= th.OutlierSpeedMS {
			continue
		}

		accel := geo.Acceleration(prev.SpeedMS, cur.SpeedMS, dt)
		if accel < th.HardBrakeMS2 {
			ev.HardBrakes++
		} else if accel > th.HardAccelMS2 {
			ev.HardAccels++
		}

		if cur.SpeedMS > th.SpeedingMS {
			ev.SpeedingSeconds += int(math.Round(dt))
		}

		headingRate := math.Abs(geo.HeadingDelta(prev.Heading, cur.Heading)) / dt
		if headingRate > th.SharpTurnDegPerS && cur.SpeedMS > th.SharpTurnMinMS {
			ev.SharpTurns++
		}
	}

	return ev
}

// score normalizes event counts per mile and combines the five factors.
func score(m Metrics, th Thresholds) (domain.ScoreBreakdown, int) {
	miles := m.DistanceMeters / metersPerMile
	if miles < 0.1 {
		miles = 0.1 // avoid division blow-up on very short trips
	}

	speedingRatio := float64(m.Events.SpeedingSeconds) / float64(m.DurationSeconds)

	b := domain.ScoreBreakdown{
		Speed:        clampScore(100 - math.Min(30, speedingRatio*100) - math.Min(20, 2*m.SpeedStddev)),
		Braking:      clampScore(100 - math.Min(50, 10*float64(m.Events.HardBrakes)/miles)),
		Acceleration: clampScore(100 - math.Min(50, 8*float64(m.Events.HardAccels)/miles)),
		Cornering:    clampScore(100 - math.Min(50, 6*float64(m.Events.SharpTurns)/miles)),
		PhoneUsage:   100, // no phone-usage sensor signal in this pipeline
	}

	composite := clampScore(math.Round(
		0.25*float64(b.Speed) +
			0.25*float64(b.Braking) +
			0.20*float64(b.Acceleration) +
			0.20*float64(b.Cornering) +
			0.10*float64(b.PhoneUsage),
	))

	return b, composite
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
