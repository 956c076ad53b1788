package service

import (
	"context"
	"database/sql"
	"math"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
	"drivepool/internal/repository/postgres"
)

const (
	// reserveRatio is the fraction of the pool held back from payouts.
	reserveRatio = 0.10

	// minRefundRate is the rate floor every eligible contributor earns
	// regardless of score.
	minRefundRate = 0.05

	// shareBatchLimit caps how many share rows commit per transaction during
	// recalculation and finalization, keeping transactions short. Both jobs
	// are resumable: shares still ACTIVE simply get picked up by the next run.
	shareBatchLimit = 500
)

// SettlementService recalculates projected refunds and settles periods.
type SettlementService struct {
	db        *sql.DB
	poolRepo  repository.PoolRepository
	shareRepo repository.ShareRepository
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(db *sql.DB, poolRepo repository.PoolRepository, shareRepo repository.ShareRepository) *SettlementService {
	return &SettlementService{db: db, poolRepo: poolRepo, shareRepo: shareRepo}
}

// refundCents computes the refund for one contribution. A score of 50 or
// below earns the floor rate; a perfect 100 earns the full refund rate. The
// safety factor scales the result down when claims have strained the pool.
func refundCents(contributionCents int64, score int, refundRate, safetyFactor float64) int64 {
	scoreMultiplier := (float64(score) - 50) / 50
	if scoreMultiplier < 0 {
		scoreMultiplier = 0
	}
	if scoreMultiplier > 1 {
		scoreMultiplier = 1
	}
	adjustedRate := minRefundRate + (refundRate-minRefundRate)*scoreMultiplier
	refund := float64(contributionCents) * adjustedRate * safetyFactor
	if refund < 0 {
		return 0
	}
	return int64(math.Round(refund))
}

// Recalculate refreshes every active share's percentage and projected refund
// and the pool's contribution-weighted average score. Run daily and after
// claim activity changes the safety factor.
func (s *SettlementService) Recalculate(ctx context.Context) error {
	pool, err := s.poolRepo.Get(ctx)
	if err != nil {
		return err
	}

	shares, err := s.shareRepo.ListActiveByPeriod(ctx, pool.PeriodStart)
	if err != nil {
		return err
	}
	if len(shares) == 0 {
		return nil
	}

	recalculateShares(pool, shares)

	if err := s.writeSharesChunked(ctx, shares); err != nil {
		return err
	}

	return s.poolRepo.Update(ctx, pool)
}

// recalculateShares refreshes percentages, weighted scores, and refund
// projections in place, and updates the pool's contribution-weighted average
// score. Percentages always use the period contribution subtotal as the
// denominator, so active shares sum to 100 whenever contributions exist.
func recalculateShares(pool *domain.CommunityPool, shares []*domain.PoolShare) {
	var periodTotal int64
	var weightedScoreSum float64
	for _, share := range shares {
		periodTotal += share.ContributionCents
		weightedScoreSum += float64(share.ContributionCents) * float64(share.AvgScore)
	}

	for _, share := range shares {
		share.SharePercentage = sharePercentage(share.ContributionCents, periodTotal)
		share.WeightedScore = float64(share.ContributionCents) * float64(share.AvgScore) / 100
		share.BaseRefundCents = refundCents(share.ContributionCents, share.AvgScore, pool.ProjectedRefundRate, 1.0)
		share.ProjectedRefundCents = refundCents(share.ContributionCents, share.AvgScore, pool.ProjectedRefundRate, pool.SafetyFactor)
	}

	if periodTotal > 0 {
		pool.AvgPoolScore = weightedScoreSum / float64(periodTotal)
	}
}

// FinalizePeriod settles the current period: computes final refunds for all
// active shares, freezes them, and rolls the pool forward one month. Safe to
// re-run after a crash; already finalized shares are never revisited.
func (s *SettlementService) FinalizePeriod(ctx context.Context) error {
	pool, err := s.poolRepo.Get(ctx)
	if err != nil {
		return err
	}

	// All shares of the period, frozen ones included. A rerun after a crash
	// must allocate from the same weighted total as the original run, or the
	// still-active stragglers would claim inflated slices of the refund pool.
	shares, err := s.shareRepo.ListByPeriod(ctx, pool.PeriodStart)
	if err != nil {
		return err
	}

	totalRefunds := assignFinalRefunds(pool, shares)

	if err := s.writeSharesChunked(ctx, shares); err != nil {
		return err
	}

	pool.TotalPaidOutCents += totalRefunds
	pool.TotalPoolCents -= totalRefunds
	pool.ReserveCents = int64(math.Round(float64(pool.TotalPoolCents) * reserveRatio))
	pool.ClaimsThisPeriod = 0
	pool.ActiveParticipants = 0
	// The safety factor is supplied externally and carries into the new
	// period until the next update.
	pool.PeriodStart, pool.PeriodEnd = currentPeriod(pool.PeriodEnd)

	return s.poolRepo.Update(ctx, pool)
}

// assignFinalRefunds sets each share's final refund and freezes it. An
// eligible share gets the smaller of its proportional slice of the refund
// pool and its score-formula refund; ineligible shares get nothing. Shares
// frozen by an earlier partial run keep their refund untouched but
// still count toward the weighted total, so a rerun reproduces the original
// allocation. Returns the total paid out across the whole period.
func assignFinalRefunds(pool *domain.CommunityPool, shares []*domain.PoolShare) int64 {
	availablePool := float64(pool.TotalPoolCents) * (1 - reserveRatio)
	refundPool := availablePool * pool.ProjectedRefundRate

	var totalWeighted float64
	for _, share := range shares {
		if share.Eligible {
			totalWeighted += share.WeightedScore
		}
	}

	var totalRefunds int64
	for _, share := range shares {
		if share.Status == domain.ShareStatusActive {
			share.FinalRefundCents = 0
			if share.Eligible && totalWeighted > 0 {
				proportional := int64(math.Round(refundPool * share.WeightedScore / totalWeighted))
				formula := refundCents(share.ContributionCents, share.AvgScore, pool.ProjectedRefundRate, pool.SafetyFactor)
				share.FinalRefundCents = proportional
				if formula < proportional {
					share.FinalRefundCents = formula
				}
			}
			share.Status = domain.ShareStatusFinalized
		}
		totalRefunds += share.FinalRefundCents
	}
	return totalRefunds
}

// writeSharesChunked persists share updates in bounded transactions.
func (s *SettlementService) writeSharesChunked(ctx context.Context, shares []*domain.PoolShare) error {
	for start := 0; start < len(shares); start += shareBatchLimit {
		end := start + shareBatchLimit
		if end > len(shares) {
			end = len(shares)
		}
		chunk := shares[start:end]

		err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
			txShareRepo := postgres.NewShareRepositoryWithTx(tx)
			for _, share := range chunk {
				if err := txShareRepo.Update(ctx, share); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

