package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivepool/internal/domain"
	"drivepool/internal/service"
)

// UserHandler handles HTTP requests for registration and profiles.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// UserResponse is the HTTP representation of a user.
type UserResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

// ProfileResponse is the HTTP representation of a driving profile.
type ProfileResponse struct {
	UserID              string              `json:"user_id"`
	Score               int                 `json:"score"`
	Breakdown           BreakdownInfo       `json:"breakdown"`
	TotalTrips          int                 `json:"total_trips"`
	TotalMiles          float64             `json:"total_miles"`
	TotalDrivingMinutes float64             `json:"total_driving_minutes"`
	LastTripAt          string              `json:"last_trip_at,omitempty"`
	StreakDays          int                 `json:"streak_days"`
	RiskTier            string              `json:"risk_tier"`
	RecentTrips         []RecentTripInfo    `json:"recent_trips"`
}

// RecentTripInfo is one entry in the profile's recent trip list.
type RecentTripInfo struct {
	TripID         string  `json:"trip_id"`
	Score          int     `json:"score"`
	DistanceMeters float64 `json:"distance_meters"`
	EndedAt        string  `json:"ended_at"`
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidName)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, UserResponse{
		UserID:    user.ID,
		Name:      user.Name,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetProfile handles GET /v1/users/:id/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("id")

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, profileResponse(profile))
}

func profileResponse(p *domain.DrivingProfile) ProfileResponse {
	resp := ProfileResponse{
		UserID: p.UserID,
		Score:  p.Score,
		Breakdown: BreakdownInfo{
			Speed:        p.Breakdown.Speed,
			Braking:      p.Breakdown.Braking,
			Acceleration: p.Breakdown.Acceleration,
			Cornering:    p.Breakdown.Cornering,
			PhoneUsage:   p.Breakdown.PhoneUsage,
		},
		TotalTrips:          p.TotalTrips,
		TotalMiles:          p.TotalMiles,
		TotalDrivingMinutes: p.TotalDrivingMinutes,
		StreakDays:          p.StreakDays,
		RiskTier:            string(p.Tier),
		RecentTrips:         make([]RecentTripInfo, 0, len(p.RecentTrips)),
	}

	if !p.LastTripAt.IsZero() {
		resp.LastTripAt = p.LastTripAt.Format("2006-01-02T15:04:05Z07:00")
	}

	for _, rt := range p.RecentTrips {
		resp.RecentTrips = append(resp.RecentTrips, RecentTripInfo{
			TripID:         rt.TripID,
			Score:          rt.Score,
			DistanceMeters: rt.DistanceMeters,
			EndedAt:        rt.EndedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return resp
}
