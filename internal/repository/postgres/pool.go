package postgres

import (
	"context"
	"database/sql"
	"errors"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

// poolID is the fixed key of the single community pool row.
const poolID = "community"

// PoolRepository implements repository.PoolRepository using PostgreSQL.
type PoolRepository struct {
	q Querier
}

// NewPoolRepository creates a new PoolRepository.
func NewPoolRepository(db *sql.DB) *PoolRepository {
	return &PoolRepository{q: db}
}

// NewPoolRepositoryWithTx creates a pool repository using a transaction.
func NewPoolRepositoryWithTx(tx *sql.Tx) *PoolRepository {
	return &PoolRepository{q: tx}
}

const poolColumns = `
	id, total_pool_cents, total_contributed_cents, total_paid_out_cents,
	reserve_cents, active_participants, ever_participants, avg_pool_score,
	safety_factor, claims_this_period, period_start, period_end,
	projected_refund_rate
`

// Get retrieves the pool.
func (r *PoolRepository) Get(ctx context.Context) (*domain.CommunityPool, error) {
	query := `SELECT ` + poolColumns + ` FROM community_pool WHERE id = $1`

	var p domain.CommunityPool
	err := r.q.QueryRowContext(ctx, query, poolID).Scan(
		&p.ID,
		&p.TotalPoolCents,
		&p.TotalContributedCents,
		&p.TotalPaidOutCents,
		&p.ReserveCents,
		&p.ActiveParticipants,
		&p.EverParticipants,
		&p.AvgPoolScore,
		&p.SafetyFactor,
		&p.ClaimsThisPeriod,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.ProjectedRefundRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Create persists the initial pool document.
func (r *PoolRepository) Create(ctx context.Context, pool *domain.CommunityPool) error {
	pool.ID = poolID

	query := `
		INSERT INTO community_pool (` + poolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		pool.ID,
		pool.TotalPoolCents,
		pool.TotalContributedCents,
		pool.TotalPaidOutCents,
		pool.ReserveCents,
		pool.ActiveParticipants,
		pool.EverParticipants,
		pool.AvgPoolScore,
		pool.SafetyFactor,
		pool.ClaimsThisPeriod,
		pool.PeriodStart,
		pool.PeriodEnd,
		pool.ProjectedRefundRate,
	)

	return err
}

// Update overwrites the pool totals and period bounds.
func (r *PoolRepository) Update(ctx context.Context, pool *domain.CommunityPool) error {
	query := `
		UPDATE community_pool SET
			total_pool_cents = $1, total_contributed_cents = $2,
			total_paid_out_cents = $3, reserve_cents = $4,
			active_participants = $5, ever_participants = $6,
			avg_pool_score = $7, safety_factor = $8, claims_this_period = $9,
			period_start = $10, period_end = $11, projected_refund_rate = $12
		WHERE id = $13
	`

	result, err := r.q.ExecContext(ctx, query,
		pool.TotalPoolCents,
		pool.TotalContributedCents,
		pool.TotalPaidOutCents,
		pool.ReserveCents,
		pool.ActiveParticipants,
		pool.EverParticipants,
		pool.AvgPoolScore,
		pool.SafetyFactor,
		pool.ClaimsThisPeriod,
		pool.PeriodStart,
		pool.PeriodEnd,
		pool.ProjectedRefundRate,
		poolID,
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

// Ensure PoolRepository implements repository.PoolRepository.
var _ repository.PoolRepository = (*PoolRepository)(nil)
