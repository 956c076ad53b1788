package service

import (
	"errors"
	"testing"
	"time"

	"drivepool/internal/domain"
)

func TestTransition_LegalPaths(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from domain.TripStatus
		to   domain.TripStatus
	}{
		{domain.TripStatusRecording, domain.TripStatusProcessing},
		{domain.TripStatusRecording, domain.TripStatusFailed},
		{domain.TripStatusProcessing, domain.TripStatusCompleted},
		{domain.TripStatusProcessing, domain.TripStatusFailed},
		{domain.TripStatusCompleted, domain.TripStatusDisputed},
	}

	for _, tc := range testCases {
		trip := &domain.Trip{Status: tc.from}
		changed, err := transition(trip, tc.to)
		if err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !changed {
			t.Errorf("%s -> %s: expected status change", tc.from, tc.to)
		}
		if trip.Status != tc.to {
			t.Errorf("%s -> %s: trip left in %s", tc.from, tc.to, trip.Status)
		}
	}
}

func TestTransition_IllegalPaths(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from domain.TripStatus
		to   domain.TripStatus
	}{
		{domain.TripStatusRecording, domain.TripStatusCompleted},
		{domain.TripStatusRecording, domain.TripStatusDisputed},
		{domain.TripStatusProcessing, domain.TripStatusRecording},
		{domain.TripStatusProcessing, domain.TripStatusDisputed},
		{domain.TripStatusCompleted, domain.TripStatusRecording},
		{domain.TripStatusCompleted, domain.TripStatusFailed},
		{domain.TripStatusFailed, domain.TripStatusRecording},
		{domain.TripStatusFailed, domain.TripStatusCompleted},
		{domain.TripStatusDisputed, domain.TripStatusCompleted},
	}

	for _, tc := range testCases {
		trip := &domain.Trip{Status: tc.from}
		changed, err := transition(trip, tc.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: expected ErrIllegalTransition, got %v", tc.from, tc.to, err)
		}
		if changed {
			t.Errorf("%s -> %s: status must not change on illegal transition", tc.from, tc.to)
		}
		if trip.Status != tc.from {
			t.Errorf("%s -> %s: trip mutated to %s", tc.from, tc.to, trip.Status)
		}
	}
}

func TestTransition_SameStatusIsNoOp(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.TripStatus{
		domain.TripStatusRecording,
		domain.TripStatusProcessing,
		domain.TripStatusCompleted,
		domain.TripStatusFailed,
		domain.TripStatusDisputed,
	} {
		trip := &domain.Trip{Status: status}
		changed, err := transition(trip, status)
		if err != nil {
			t.Errorf("%s -> %s: duplicate trigger must not error, got %v", status, status, err)
		}
		if changed {
			t.Errorf("%s -> %s: duplicate trigger must be a no-op", status, status)
		}
	}
}

func TestIsNight(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		hour int
		want bool
	}{
		{22, true},
		{23, true},
		{0, true},
		{4, true},
		{5, false},
		{12, false},
		{21, false},
	}

	for _, tc := range testCases {
		ts := time.Date(2026, 3, 10, tc.hour, 30, 0, 0, time.UTC)
		if got := isNight(ts); got != tc.want {
			t.Errorf("isNight(hour %d) = %v, want %v", tc.hour, got, tc.want)
		}
	}
}

func TestIsRushHour(t *testing.T) {
	t.Parallel()

	// 2026-03-10 is a Tuesday; 2026-03-14 is a Saturday.
	weekdayMorning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	weekdayEvening := time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)
	weekdayMidday := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	saturdayMorning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	if !isRushHour(weekdayMorning) {
		t.Error("weekday 08:00 should be rush hour")
	}
	if !isRushHour(weekdayEvening) {
		t.Error("weekday 17:30 should be rush hour")
	}
	if isRushHour(weekdayMidday) {
		t.Error("weekday midday should not be rush hour")
	}
	if isRushHour(saturdayMorning) {
		t.Error("weekend morning should not be rush hour")
	}
}
