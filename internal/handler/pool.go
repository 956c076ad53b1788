package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivepool/internal/domain"
	"drivepool/internal/service"
)

// PoolHandler handles HTTP requests for the community pool.
type PoolHandler struct {
	poolService *service.PoolService
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(poolService *service.PoolService) *PoolHandler {
	return &PoolHandler{poolService: poolService}
}

// ContributeRequest is the request body for a pool contribution.
type ContributeRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
}

// ClaimRequest is the request body for recording a claim.
type ClaimRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// SafetyFactorRequest is the request body for updating the payout damping
// factor. A pointer so an omitted field is rejected rather than read as 0.
type SafetyFactorRequest struct {
	SafetyFactor *float64 `json:"safety_factor" binding:"required"`
}

// PoolResponse is the HTTP representation of the community pool.
type PoolResponse struct {
	TotalPoolCents        int64   `json:"total_pool_cents"`
	TotalContributedCents int64   `json:"total_contributed_cents"`
	TotalPaidOutCents     int64   `json:"total_paid_out_cents"`
	ReserveCents          int64   `json:"reserve_cents"`
	ActiveParticipants    int     `json:"active_participants"`
	EverParticipants      int     `json:"ever_participants"`
	AvgPoolScore          float64 `json:"avg_pool_score"`
	SafetyFactor          float64 `json:"safety_factor"`
	ClaimsThisPeriod      int     `json:"claims_this_period"`
	PeriodStart           string  `json:"period_start"`
	PeriodEnd             string  `json:"period_end"`
	ProjectedRefundRate   float64 `json:"projected_refund_rate"`
}

// ShareResponse is the HTTP representation of a user's pool share.
type ShareResponse struct {
	ShareID              string  `json:"share_id"`
	UserID               string  `json:"user_id"`
	PeriodStart          string  `json:"period_start"`
	PeriodEnd            string  `json:"period_end"`
	ContributionCents    int64   `json:"contribution_cents"`
	ContributionCount    int     `json:"contribution_count"`
	SharePercentage      float64 `json:"share_percentage"`
	BaseRefundCents      int64   `json:"base_refund_cents"`
	ProjectedRefundCents int64   `json:"projected_refund_cents"`
	FinalRefundCents     int64   `json:"final_refund_cents"`
	Status               string  `json:"status"`
	Eligible             bool    `json:"eligible"`
	TripsIncluded        int     `json:"trips_included"`
	MilesIncluded        float64 `json:"miles_included"`
	AvgScore             int     `json:"avg_score"`
}

// Contribute handles POST /v1/pool/contributions
func (h *PoolHandler) Contribute(c *gin.Context) {
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidAmount)
		return
	}

	result, err := h.poolService.Contribute(c.Request.Context(), req.UserID, req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, result)
}

// GetPool handles GET /v1/pool
func (h *PoolHandler) GetPool(c *gin.Context) {
	pool, err := h.poolService.GetPool(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PoolResponse{
		TotalPoolCents:        pool.TotalPoolCents,
		TotalContributedCents: pool.TotalContributedCents,
		TotalPaidOutCents:     pool.TotalPaidOutCents,
		ReserveCents:          pool.ReserveCents,
		ActiveParticipants:    pool.ActiveParticipants,
		EverParticipants:      pool.EverParticipants,
		AvgPoolScore:          pool.AvgPoolScore,
		SafetyFactor:          pool.SafetyFactor,
		ClaimsThisPeriod:      pool.ClaimsThisPeriod,
		PeriodStart:           pool.PeriodStart.Format("2006-01-02"),
		PeriodEnd:             pool.PeriodEnd.Format("2006-01-02"),
		ProjectedRefundRate:   pool.ProjectedRefundRate,
	})
}

// GetShare handles GET /v1/pool/shares/:userId
func (h *PoolHandler) GetShare(c *gin.Context) {
	userID := c.Param("userId")

	share, err := h.poolService.GetShare(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, shareResponse(share))
}

// RecordClaim handles POST /v1/pool/claims
func (h *PoolHandler) RecordClaim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	if err := h.poolService.RecordClaim(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetSafetyFactor handles POST /v1/pool/safety-factor
func (h *PoolHandler) SetSafetyFactor(c *gin.Context) {
	var req SafetyFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidSafetyFactor)
		return
	}

	pool, err := h.poolService.SetSafetyFactor(c.Request.Context(), *req.SafetyFactor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"safety_factor": pool.SafetyFactor})
}

func shareResponse(share *domain.PoolShare) ShareResponse {
	return ShareResponse{
		ShareID:              share.ID,
		UserID:               share.UserID,
		PeriodStart:          share.PeriodStart.Format("2006-01-02"),
		PeriodEnd:            share.PeriodEnd.Format("2006-01-02"),
		ContributionCents:    share.ContributionCents,
		ContributionCount:    share.ContributionCount,
		SharePercentage:      share.SharePercentage,
		BaseRefundCents:      share.BaseRefundCents,
		ProjectedRefundCents: share.ProjectedRefundCents,
		FinalRefundCents:     share.FinalRefundCents,
		Status:               string(share.Status),
		Eligible:             share.Eligible,
		TripsIncluded:        share.TripsIncluded,
		MilesIncluded:        share.MilesIncluded,
		AvgScore:             share.AvgScore,
	}
}
