package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
// The driving profile lives in its own row keyed by user so profile
// aggregation can read-modify-write it inside a transaction.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user with an empty driving profile.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, name, phone) VALUES ($1, $2, $3)`,
		user.ID, user.Name, user.Phone,
	)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO driving_profiles (user_id, risk_tier, recent_trips)
		VALUES ($1, $2, '[]')
	`, user.ID, domain.RiskTierMedium)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, phone, created_at FROM users WHERE id = $1`, id)

	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, phone, created_at FROM users WHERE phone = $1`, phone)

	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile retrieves a user's driving profile.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*domain.DrivingProfile, error) {
	query := `
		SELECT user_id, score,
		       speed_score, braking_score, accel_score, cornering_score, phone_score,
		       total_trips, total_miles, total_minutes,
		       last_trip_at, streak_days, risk_tier, recent_trips
		FROM driving_profiles WHERE user_id = $1
	`

	var p domain.DrivingProfile
	var lastTripAt sql.NullTime
	var recentTrips []byte

	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Score,
		&p.Breakdown.Speed,
		&p.Breakdown.Braking,
		&p.Breakdown.Acceleration,
		&p.Breakdown.Cornering,
		&p.Breakdown.PhoneUsage,
		&p.TotalTrips,
		&p.TotalMiles,
		&p.TotalDrivingMinutes,
		&lastTripAt,
		&p.StreakDays,
		&p.Tier,
		&recentTrips,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastTripAt.Valid {
		p.LastTripAt = lastTripAt.Time
	}
	if len(recentTrips) > 0 {
		if err := json.Unmarshal(recentTrips, &p.RecentTrips); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// SaveProfile overwrites a user's driving profile.
func (r *UserRepository) SaveProfile(ctx context.Context, profile *domain.DrivingProfile) error {
	recentTrips, err := json.Marshal(profile.RecentTrips)
	if err != nil {
		return err
	}

	query := `
		UPDATE driving_profiles SET
			score = $1,
			speed_score = $2, braking_score = $3, accel_score = $4,
			cornering_score = $5, phone_score = $6,
			total_trips = $7, total_miles = $8, total_minutes = $9,
			last_trip_at = $10, streak_days = $11, risk_tier = $12,
			recent_trips = $13
		WHERE user_id = $14
	`

	result, err := r.q.ExecContext(ctx, query,
		profile.Score,
		profile.Breakdown.Speed,
		profile.Breakdown.Braking,
		profile.Breakdown.Acceleration,
		profile.Breakdown.Cornering,
		profile.Breakdown.PhoneUsage,
		profile.TotalTrips,
		profile.TotalMiles,
		profile.TotalDrivingMinutes,
		nullTime(profile.LastTripAt),
		profile.StreakDays,
		profile.Tier,
		recentTrips,
		profile.UserID,
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

// ListRankable returns all users with at least minTrips completed trips.
func (r *UserRepository) ListRankable(ctx context.Context, minTrips int) ([]repository.RankedDriver, error) {
	query := `
		SELECT p.user_id, u.name, p.score, p.total_miles, p.total_trips
		FROM driving_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.total_trips >= $1
	`

	rows, err := r.q.QueryContext(ctx, query, minTrips)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []repository.RankedDriver
	for rows.Next() {
		var d repository.RankedDriver
		if err := rows.Scan(&d.UserID, &d.Name, &d.Score, &d.TotalMiles, &d.TotalTrips); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
