package domain

import "time"

// ShareStatus represents the settlement state of a pool share.
type ShareStatus string

const (
	ShareStatusActive    ShareStatus = "ACTIVE"
	ShareStatusFinalized ShareStatus = "FINALIZED"
	ShareStatusPaidOut   ShareStatus = "PAID_OUT"
)

// PoolShare is one user's stake in one settlement period. Percentages and
// refunds are recomputed from ledger state, never set independently.
type PoolShare struct {
	ID                   string
	UserID               string
	PeriodStart          time.Time
	PeriodEnd            time.Time
	ContributionCents    int64
	ContributionCount    int
	SharePercentage      float64 // of period contribution total, 4 dp
	WeightedScore        float64 // contribution x score/100
	BaseRefundCents      int64
	ProjectedRefundCents int64
	FinalRefundCents     int64
	Status               ShareStatus
	Eligible             bool
	TripsIncluded        int
	MilesIncluded        float64
	AvgScore             int
}

// CommunityPool is the single shared pool document for the current period.
type CommunityPool struct {
	ID                    string
	TotalPoolCents        int64
	TotalContributedCents int64
	TotalPaidOutCents     int64
	ReserveCents          int64
	ActiveParticipants    int
	EverParticipants      int
	AvgPoolScore          float64
	SafetyFactor          float64 // 0-1, damped by claim load
	ClaimsThisPeriod      int
	PeriodStart           time.Time
	PeriodEnd             time.Time
	ProjectedRefundRate   float64 // configured target, e.g. 0.15
}
