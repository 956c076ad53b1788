package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drivepool/internal/domain"
	"drivepool/internal/service"
)

// TripHandler handles HTTP requests for trip lifecycle operations.
type TripHandler struct {
	lifecycle *service.LifecycleService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(lifecycle *service.LifecycleService) *TripHandler {
	return &TripHandler{lifecycle: lifecycle}
}

// StartTripRequest is the request body for starting a trip.
type StartTripRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// PointInput is one telemetry sample in a batch upload.
type PointInput struct {
	OffsetMs  int64   `json:"offset_ms"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedMS   float64 `json:"speed_ms"`
	Heading   float64 `json:"heading"`
	AccuracyM float64 `json:"accuracy_m"`
	AccelX    float64 `json:"accel_x"`
	AccelY    float64 `json:"accel_y"`
	AccelZ    float64 `json:"accel_z"`
	GyroX     float64 `json:"gyro_x"`
	GyroY     float64 `json:"gyro_y"`
	GyroZ     float64 `json:"gyro_z"`
}

// AppendPointsRequest is the request body for a point batch upload.
type AppendPointsRequest struct {
	UserID     string       `json:"user_id" binding:"required"`
	BatchIndex int          `json:"batch_index"`
	Points     []PointInput `json:"points"`
}

// TripActionRequest identifies the caller for trip mutations.
type TripActionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ResolveReviewRequest is the request body for resolving a flagged trip.
type ResolveReviewRequest struct {
	Approve bool `json:"approve"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID          string         `json:"trip_id"`
	UserID          string         `json:"user_id"`
	Status          string         `json:"status"`
	StartedAt       string         `json:"started_at"`
	EndedAt         string         `json:"ended_at,omitempty"`
	ProcessedAt     string         `json:"processed_at,omitempty"`
	DurationSeconds int64          `json:"duration_seconds,omitempty"`
	DistanceMeters  float64        `json:"distance_meters,omitempty"`
	Score           int            `json:"score,omitempty"`
	Breakdown       *BreakdownInfo `json:"breakdown,omitempty"`
	Events          *EventsInfo    `json:"events,omitempty"`
	Anomalies       *AnomaliesInfo `json:"anomalies,omitempty"`
	AvgSpeedMS      float64        `json:"avg_speed_ms,omitempty"`
	MaxSpeedMS      float64        `json:"max_speed_ms,omitempty"`
	PointCount      int            `json:"point_count,omitempty"`
	NightDriving    bool           `json:"night_driving,omitempty"`
	RushHour        bool           `json:"rush_hour,omitempty"`
}

// BreakdownInfo contains the per-factor score breakdown.
type BreakdownInfo struct {
	Speed        int `json:"speed"`
	Braking      int `json:"braking"`
	Acceleration int `json:"acceleration"`
	Cornering    int `json:"cornering"`
	PhoneUsage   int `json:"phone_usage"`
}

// EventsInfo contains detected driving event counts.
type EventsInfo struct {
	HardBrakes      int `json:"hard_brakes"`
	HardAccels      int `json:"hard_accels"`
	SharpTurns      int `json:"sharp_turns"`
	SpeedingSeconds int `json:"speeding_seconds"`
}

// AnomaliesInfo contains data-quality flags.
type AnomaliesInfo struct {
	HasImpossibleSpeed bool `json:"has_impossible_speed"`
	HasGpsJumps        bool `json:"has_gps_jumps"`
	FlaggedForReview   bool `json:"flagged_for_review"`
}

// AppendPointsResponse reports the point count after a batch upload.
type AppendPointsResponse struct {
	TripID     string `json:"trip_id"`
	PointCount int    `json:"point_count"`
}

// StartTrip handles POST /v1/trips
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	trip, err := h.lifecycle.StartTrip(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(trip))
}

// AppendPoints handles POST /v1/trips/:id/points
func (h *TripHandler) AppendPoints(c *gin.Context) {
	tripID := c.Param("id")

	var req AppendPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrEmptyBatch)
		return
	}

	points := make([]domain.TripPoint, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, domain.TripPoint{
			TripID:    tripID,
			OffsetMs:  p.OffsetMs,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			SpeedMS:   p.SpeedMS,
			Heading:   p.Heading,
			AccuracyM: p.AccuracyM,
			AccelX:    p.AccelX,
			AccelY:    p.AccelY,
			AccelZ:    p.AccelZ,
			GyroX:     p.GyroX,
			GyroY:     p.GyroY,
			GyroZ:     p.GyroZ,
		})
	}

	count, err := h.lifecycle.AppendPoints(c.Request.Context(), req.UserID, tripID, req.BatchIndex, points)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AppendPointsResponse{TripID: tripID, PointCount: count})
}

// EndTrip handles POST /v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	tripID := c.Param("id")

	var req TripActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	trip, err := h.lifecycle.EndTrip(c.Request.Context(), req.UserID, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	tripID := c.Param("id")

	var req TripActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	trip, err := h.lifecycle.CancelTrip(c.Request.Context(), req.UserID, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// DisputeTrip handles POST /v1/trips/:id/dispute
func (h *TripHandler) DisputeTrip(c *gin.Context) {
	tripID := c.Param("id")

	var req TripActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	trip, err := h.lifecycle.DisputeTrip(c.Request.Context(), req.UserID, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// ResolveReview handles POST /v1/trips/:id/resolve
func (h *TripHandler) ResolveReview(c *gin.Context) {
	tripID := c.Param("id")

	var req ResolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidTripID)
		return
	}

	trip, err := h.lifecycle.ResolveReview(c.Request.Context(), tripID, req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")
	userID := c.Query("user_id")

	trip, err := h.lifecycle.GetTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// GetUserTrips handles GET /v1/users/:id/trips
func (h *TripHandler) GetUserTrips(c *gin.Context) {
	userID := c.Param("id")
	limit, _ := strconv.Atoi(c.Query("limit"))

	trips, err := h.lifecycle.GetUserTrips(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, tripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

func tripResponse(trip *domain.Trip) *TripResponse {
	resp := &TripResponse{
		TripID:          trip.ID,
		UserID:          trip.UserID,
		Status:          string(trip.Status),
		StartedAt:       trip.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		DurationSeconds: trip.DurationSeconds,
		DistanceMeters:  trip.DistanceMeters,
		Score:           trip.Score,
		AvgSpeedMS:      trip.AvgSpeedMS,
		MaxSpeedMS:      trip.MaxSpeedMS,
		PointCount:      trip.PointCount,
		NightDriving:    trip.NightDriving,
		RushHour:        trip.RushHour,
	}

	if !trip.EndedAt.IsZero() {
		resp.EndedAt = trip.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if !trip.ProcessedAt.IsZero() {
		resp.ProcessedAt = trip.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	if trip.Completed() || trip.Status == domain.TripStatusProcessing {
		resp.Breakdown = &BreakdownInfo{
			Speed:        trip.Breakdown.Speed,
			Braking:      trip.Breakdown.Braking,
			Acceleration: trip.Breakdown.Acceleration,
			Cornering:    trip.Breakdown.Cornering,
			PhoneUsage:   trip.Breakdown.PhoneUsage,
		}
		resp.Events = &EventsInfo{
			HardBrakes:      trip.Events.HardBrakes,
			HardAccels:      trip.Events.HardAccels,
			SharpTurns:      trip.Events.SharpTurns,
			SpeedingSeconds: trip.Events.SpeedingSeconds,
		}
		resp.Anomalies = &AnomaliesInfo{
			HasImpossibleSpeed: trip.Anomalies.HasImpossibleSpeed,
			HasGpsJumps:        trip.Anomalies.HasGpsJumps,
			FlaggedForReview:   trip.Anomalies.FlaggedForReview,
		}
	}

	return resp
}
