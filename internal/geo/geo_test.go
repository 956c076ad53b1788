package geo

import (
	"math"
	"testing"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	t.Parallel()

	if d := DistanceMeters(51.5074, -0.1278, 51.5074, -0.1278); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	t.Parallel()

	ab := DistanceMeters(51.5074, -0.1278, 52.4862, -1.8904)
	ba := DistanceMeters(52.4862, -1.8904, 51.5074, -0.1278)

	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistance_LondonBirmingham(t *testing.T) {
	t.Parallel()

	// Roughly 163 km great-circle.
	d := DistanceMeters(51.5074, -0.1278, 52.4862, -1.8904)
	if d < 155000 || d > 170000 {
		t.Errorf("expected 155000-170000 m, got %f", d)
	}
}

func TestHeadingDelta_Normalization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		h1, h2, want float64
	}{
		{0, 90, 90},
		{90, 0, -90},
		{350, 10, 20},   // wraps forward through north
		{10, 350, -20},  // wraps backward through north
		{0, 180, 180},
		{45, 45, 0},
	}

	for _, tc := range cases {
		got := HeadingDelta(tc.h1, tc.h2)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("HeadingDelta(%f, %f) = %f, want %f", tc.h1, tc.h2, got, tc.want)
		}
	}
}

func TestAcceleration(t *testing.T) {
	t.Parallel()

	if a := Acceleration(10, 20, 2); a != 5 {
		t.Errorf("expected 5, got %f", a)
	}

	if a := Acceleration(20, 10, 2); a != -5 {
		t.Errorf("expected -5, got %f", a)
	}

	// Zero or negative dt must not divide.
	if a := Acceleration(10, 20, 0); a != 0 {
		t.Errorf("expected 0 for zero dt, got %f", a)
	}
}
