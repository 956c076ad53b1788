package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusRecording  TripStatus = "RECORDING"
	TripStatusProcessing TripStatus = "PROCESSING"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusFailed     TripStatus = "FAILED"
	TripStatusDisputed   TripStatus = "DISPUTED"
)

// TripPoint is a single GPS/sensor sample within a trip. Points are
// immutable once written and are ordered by OffsetMs from trip start.
type TripPoint struct {
	TripID     string
	BatchIndex int
	OffsetMs   int64
	Latitude   float64
	Longitude  float64
	SpeedMS    float64 // meters per second
	Heading    float64 // degrees, 0-360
	AccuracyM  float64
	AccelX     float64
	AccelY     float64
	AccelZ     float64
	GyroX      float64
	GyroY      float64
	GyroZ      float64
}

// ScoreBreakdown is the five-factor decomposition of a trip score.
// Each component is clamped to [0,100].
type ScoreBreakdown struct {
	Speed        int `json:"speed"`
	Braking      int `json:"braking"`
	Acceleration int `json:"acceleration"`
	Cornering    int `json:"cornering"`
	PhoneUsage   int `json:"phone_usage"`
}

// EventCounts holds detected driving events for a trip.
type EventCounts struct {
	HardBrakes      int `json:"hard_brakes"`
	HardAccels      int `json:"hard_accels"`
	SharpTurns      int `json:"sharp_turns"`
	SpeedingSeconds int `json:"speeding_seconds"`
}

// AnomalyFlags marks conditions that make a trip's telemetry untrustworthy.
type AnomalyFlags struct {
	HasImpossibleSpeed bool `json:"has_impossible_speed"`
	HasGpsJumps        bool `json:"has_gps_jumps"`
	FlaggedForReview   bool `json:"flagged_for_review"`
}

// Trip represents one recorded journey with its computed score and status.
type Trip struct {
	ID              string
	UserID          string
	Status          TripStatus
	StartedAt       time.Time
	EndedAt         time.Time
	ProcessedAt     time.Time
	DurationSeconds int64
	DistanceMeters  float64
	Score           int // 0-100
	Breakdown       ScoreBreakdown
	Events          EventCounts
	Anomalies       AnomalyFlags
	AvgSpeedMS      float64
	MaxSpeedMS      float64
	PointCount      int
	NightDriving    bool
	RushHour        bool
}

// Completed reports whether the trip reached a terminal scored state.
func (t *Trip) Completed() bool {
	return t.Status == TripStatusCompleted
}
