package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
	"drivepool/internal/repository/postgres"
)

// ContributionResult summarizes a user's position after a contribution.
type ContributionResult struct {
	ShareID              string  `json:"shareId"`
	NewContributionCents int64   `json:"newContributionCents"`
	ContributionCount    int     `json:"contributionCount"`
	SharePercentage      float64 `json:"sharePercentage"`
}

// PoolService manages the community pool and per-user shares.
type PoolService struct {
	db                   *sql.DB
	poolRepo             repository.PoolRepository
	shareRepo            repository.ShareRepository
	userRepo             repository.UserRepository
	maxContributionCents int64
	projectedRefundRate  float64
}

// NewPoolService creates a new PoolService.
func NewPoolService(
	db *sql.DB,
	poolRepo repository.PoolRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	maxContributionCents int64,
	projectedRefundRate float64,
) *PoolService {
	return &PoolService{
		db:                   db,
		poolRepo:             poolRepo,
		shareRepo:            shareRepo,
		userRepo:             userRepo,
		maxContributionCents: maxContributionCents,
		projectedRefundRate:  projectedRefundRate,
	}
}

// EnsurePool creates the community pool row on first boot. Subsequent boots
// find the existing row and leave it untouched.
func (s *PoolService) EnsurePool(ctx context.Context) (*domain.CommunityPool, error) {
	pool, err := s.poolRepo.Get(ctx)
	if err == nil {
		return pool, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	periodStart, periodEnd := currentPeriod(time.Now())
	pool = &domain.CommunityPool{
		ID:                  uuid.New().String(),
		SafetyFactor:        1.0,
		ProjectedRefundRate: s.projectedRefundRate,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
	}
	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// GetPool retrieves the community pool.
func (s *PoolService) GetPool(ctx context.Context) (*domain.CommunityPool, error) {
	return s.poolRepo.Get(ctx)
}

// GetShare retrieves the user's share for the current period. Returns
// repository.ErrNotFound when the user has not contributed this period.
func (s *PoolService) GetShare(ctx context.Context, userID string) (*domain.PoolShare, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	pool, err := s.poolRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	share, err := s.shareRepo.GetByUserAndPeriod(ctx, userID, pool.PeriodStart)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, repository.ErrNotFound
	}
	return share, nil
}

// Contribute records a payment into the pool and updates the contributor's
// share for the current period. Pool totals, the share upsert, and the
// percentage recalculation commit atomically.
func (s *PoolService) Contribute(ctx context.Context, userID string, amountCents int64) (*ContributionResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if amountCents > s.maxContributionCents {
		return nil, ErrAmountTooLarge
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	var result ContributionResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		txPoolRepo := postgres.NewPoolRepositoryWithTx(tx)
		txShareRepo := postgres.NewShareRepositoryWithTx(tx)
		txUserRepo := postgres.NewUserRepositoryWithTx(tx)

		pool, err := txPoolRepo.Get(ctx)
		if err != nil {
			return err
		}

		share, err := txShareRepo.GetByUserAndPeriod(ctx, userID, pool.PeriodStart)
		if err != nil {
			return err
		}
		if share != nil && share.Status != domain.ShareStatusActive {
			return ErrShareFinalized
		}

		isFirst := share == nil
		profileScore := 0
		if isFirst {
			profile, err := txUserRepo.GetProfile(ctx, userID)
			if err != nil {
				return err
			}
			profileScore = profile.Score
		}

		share = applyContribution(pool, share, userID, profileScore, amountCents)

		if isFirst {
			if err := txShareRepo.Create(ctx, share); err != nil {
				return err
			}
		} else {
			if err := txShareRepo.Update(ctx, share); err != nil {
				return err
			}
		}

		periodTotal, err := txShareRepo.SumContributionsByPeriod(ctx, pool.PeriodStart)
		if err != nil {
			return err
		}
		share.SharePercentage = sharePercentage(share.ContributionCents, periodTotal)
		if err := txShareRepo.Update(ctx, share); err != nil {
			return err
		}

		if err := txPoolRepo.Update(ctx, pool); err != nil {
			return err
		}

		result = ContributionResult{
			ShareID:              share.ID,
			NewContributionCents: share.ContributionCents,
			ContributionCount:    share.ContributionCount,
			SharePercentage:      share.SharePercentage,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetSafetyFactor stores an externally supplied payout damping factor. The
// factor comes from the claims experience of the underwriting side, not from
// anything this service can derive; 0 zeroes every refund at settlement.
func (s *PoolService) SetSafetyFactor(ctx context.Context, factor float64) (*domain.CommunityPool, error) {
	if factor < 0 || factor > 1 {
		return nil, ErrInvalidSafetyFactor
	}

	pool, err := s.poolRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	pool.SafetyFactor = factor
	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// RecordClaim marks a user's share ineligible for refunds this period and
// counts the claim against the pool.
func (s *PoolService) RecordClaim(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		txPoolRepo := postgres.NewPoolRepositoryWithTx(tx)
		txShareRepo := postgres.NewShareRepositoryWithTx(tx)

		pool, err := txPoolRepo.Get(ctx)
		if err != nil {
			return err
		}

		share, err := txShareRepo.GetByUserAndPeriod(ctx, userID, pool.PeriodStart)
		if err != nil {
			return err
		}
		if share == nil {
			return repository.ErrNotFound
		}
		if share.Status != domain.ShareStatusActive {
			return ErrShareFinalized
		}

		share.Eligible = false
		if err := txShareRepo.Update(ctx, share); err != nil {
			return err
		}

		pool.ClaimsThisPeriod++
		return txPoolRepo.Update(ctx, pool)
	})
}

// applyContribution folds one payment into the pool totals and the user's
// share for the current period. A nil share means this is the user's first
// contribution of the period; the caller persists the returned share.
func applyContribution(pool *domain.CommunityPool, share *domain.PoolShare, userID string, profileScore int, amountCents int64) *domain.PoolShare {
	pool.TotalPoolCents += amountCents
	pool.TotalContributedCents += amountCents

	if share == nil {
		pool.ActiveParticipants++
		pool.EverParticipants++
		return &domain.PoolShare{
			ID:                uuid.New().String(),
			UserID:            userID,
			PeriodStart:       pool.PeriodStart,
			PeriodEnd:         pool.PeriodEnd,
			ContributionCents: amountCents,
			ContributionCount: 1,
			AvgScore:          profileScore,
			WeightedScore:     float64(amountCents) * float64(profileScore) / 100,
			Status:            domain.ShareStatusActive,
			Eligible:          true,
		}
	}

	share.ContributionCents += amountCents
	share.ContributionCount++
	share.WeightedScore = float64(share.ContributionCents) * float64(share.AvgScore) / 100
	return share
}

// sharePercentage computes a contribution's share of the period total,
// rounded to four decimal places.
func sharePercentage(contributionCents, periodTotalCents int64) float64 {
	if periodTotalCents <= 0 {
		return 0
	}
	pct := float64(contributionCents) / float64(periodTotalCents) * 100
	return math.Round(pct*10000) / 10000
}

// currentPeriod returns the calendar-month bounds containing t.
func currentPeriod(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
