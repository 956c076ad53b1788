package repository

import (
	"context"
	"time"

	"drivepool/internal/domain"
)

// PoolRepository defines persistence for the single community pool row.
type PoolRepository interface {
	// Get retrieves the pool.
	Get(ctx context.Context) (*domain.CommunityPool, error)

	// Create persists the initial pool document.
	Create(ctx context.Context, pool *domain.CommunityPool) error

	// Update overwrites the pool totals and period bounds.
	Update(ctx context.Context, pool *domain.CommunityPool) error
}

// ShareRepository defines persistence for per-(user, period) pool shares.
type ShareRepository interface {
	// Create persists a new share.
	Create(ctx context.Context, share *domain.PoolShare) error

	// Update overwrites an existing share.
	Update(ctx context.Context, share *domain.PoolShare) error

	// GetByUserAndPeriod retrieves the share for a user in the period
	// starting at periodStart. Returns nil if none exists.
	GetByUserAndPeriod(ctx context.Context, userID string, periodStart time.Time) (*domain.PoolShare, error)

	// ListActiveByPeriod retrieves all ACTIVE shares for a period.
	ListActiveByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error)

	// ListByPeriod retrieves all shares for a period regardless of status.
	ListByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error)

	// SumContributionsByPeriod returns the total contributed cents across
	// all shares in a period.
	SumContributionsByPeriod(ctx context.Context, periodStart time.Time) (int64, error)
}
