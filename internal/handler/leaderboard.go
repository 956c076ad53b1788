package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivepool/internal/domain"
	"drivepool/internal/service"
)

// LeaderboardHandler handles HTTP requests for ranking snapshots.
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Get handles GET /v1/leaderboard/:period
func (h *LeaderboardHandler) Get(c *gin.Context) {
	period, ok := parsePeriod(c.Param("period"))
	if !ok {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "unknown leaderboard period"})
		return
	}

	snapshot, err := h.leaderboardService.Get(c.Request.Context(), period)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snapshot)
}

// Rebuild handles POST /v1/leaderboard/:period/rebuild
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	period, ok := parsePeriod(c.Param("period"))
	if !ok {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "unknown leaderboard period"})
		return
	}

	snapshot, err := h.leaderboardService.Rebuild(c.Request.Context(), period)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snapshot)
}

func parsePeriod(raw string) (domain.LeaderboardPeriod, bool) {
	switch domain.LeaderboardPeriod(raw) {
	case domain.LeaderboardPeriodWeekly, domain.LeaderboardPeriodMonthly, domain.LeaderboardPeriodAllTime:
		return domain.LeaderboardPeriod(raw), true
	default:
		return "", false
	}
}
