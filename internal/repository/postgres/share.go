package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

// ShareRepository implements repository.ShareRepository using PostgreSQL.
type ShareRepository struct {
	q Querier
}

// NewShareRepository creates a new ShareRepository.
func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{q: db}
}

// NewShareRepositoryWithTx creates a share repository using a transaction.
func NewShareRepositoryWithTx(tx *sql.Tx) *ShareRepository {
	return &ShareRepository{q: tx}
}

const shareColumns = `
	id, user_id, period_start, period_end,
	contribution_cents, contribution_count, share_percentage, weighted_score,
	base_refund_cents, projected_refund_cents, final_refund_cents,
	status, eligible, trips_included, miles_included, avg_score
`

// Create persists a new share.
func (r *ShareRepository) Create(ctx context.Context, share *domain.PoolShare) error {
	query := `
		INSERT INTO pool_shares (` + shareColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		share.ID,
		share.UserID,
		share.PeriodStart,
		share.PeriodEnd,
		share.ContributionCents,
		share.ContributionCount,
		share.SharePercentage,
		share.WeightedScore,
		share.BaseRefundCents,
		share.ProjectedRefundCents,
		share.FinalRefundCents,
		share.Status,
		share.Eligible,
		share.TripsIncluded,
		share.MilesIncluded,
		share.AvgScore,
	)

	return err
}

// Update overwrites an existing share.
func (r *ShareRepository) Update(ctx context.Context, share *domain.PoolShare) error {
	query := `
		UPDATE pool_shares SET
			contribution_cents = $1, contribution_count = $2,
			share_percentage = $3, weighted_score = $4,
			base_refund_cents = $5, projected_refund_cents = $6,
			final_refund_cents = $7, status = $8, eligible = $9,
			trips_included = $10, miles_included = $11, avg_score = $12
		WHERE id = $13
	`

	result, err := r.q.ExecContext(ctx, query,
		share.ContributionCents,
		share.ContributionCount,
		share.SharePercentage,
		share.WeightedScore,
		share.BaseRefundCents,
		share.ProjectedRefundCents,
		share.FinalRefundCents,
		share.Status,
		share.Eligible,
		share.TripsIncluded,
		share.MilesIncluded,
		share.AvgScore,
		share.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByUserAndPeriod retrieves the share for a user in the period starting
// at periodStart. Returns nil if none exists.
func (r *ShareRepository) GetByUserAndPeriod(ctx context.Context, userID string, periodStart time.Time) (*domain.PoolShare, error) {
	query := `
		SELECT ` + shareColumns + `
		FROM pool_shares
		WHERE user_id = $1 AND period_start = $2
	`

	share, err := scanShare(r.q.QueryRowContext(ctx, query, userID, periodStart))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return share, nil
}

// ListActiveByPeriod retrieves all ACTIVE shares for a period.
func (r *ShareRepository) ListActiveByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error) {
	query := `
		SELECT ` + shareColumns + `
		FROM pool_shares
		WHERE period_start = $1 AND status = $2
		ORDER BY user_id
	`

	rows, err := r.q.QueryContext(ctx, query, periodStart, domain.ShareStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.PoolShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	return shares, rows.Err()
}

// ListByPeriod retrieves all shares for a period regardless of status.
func (r *ShareRepository) ListByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error) {
	query := `
		SELECT ` + shareColumns + `
		FROM pool_shares
		WHERE period_start = $1
		ORDER BY user_id
	`

	rows, err := r.q.QueryContext(ctx, query, periodStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.PoolShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	return shares, rows.Err()
}

// SumContributionsByPeriod returns the total contributed cents across all
// shares in a period.
func (r *ShareRepository) SumContributionsByPeriod(ctx context.Context, periodStart time.Time) (int64, error) {
	var total int64
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(contribution_cents), 0)
		FROM pool_shares WHERE period_start = $1
	`, periodStart).Scan(&total)
	return total, err
}

func scanShare(row rowScanner) (*domain.PoolShare, error) {
	var s domain.PoolShare

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PeriodStart,
		&s.PeriodEnd,
		&s.ContributionCents,
		&s.ContributionCount,
		&s.SharePercentage,
		&s.WeightedScore,
		&s.BaseRefundCents,
		&s.ProjectedRefundCents,
		&s.FinalRefundCents,
		&s.Status,
		&s.Eligible,
		&s.TripsIncluded,
		&s.MilesIncluded,
		&s.AvgScore,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Ensure ShareRepository implements repository.ShareRepository.
var _ repository.ShareRepository = (*ShareRepository)(nil)
