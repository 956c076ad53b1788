package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, user_id, status, started_at, ended_at, processed_at,
	duration_seconds, distance_meters, score,
	speed_score, braking_score, accel_score, cornering_score, phone_score,
	hard_brakes, hard_accels, sharp_turns, speeding_seconds,
	has_impossible_speed, has_gps_jumps, flagged_for_review,
	avg_speed_ms, max_speed_ms, point_count, night_driving, rush_hour
`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.UserID,
		trip.Status,
		trip.StartedAt,
		nullTime(trip.EndedAt),
		nullTime(trip.ProcessedAt),
		trip.DurationSeconds,
		trip.DistanceMeters,
		trip.Score,
		trip.Breakdown.Speed,
		trip.Breakdown.Braking,
		trip.Breakdown.Acceleration,
		trip.Breakdown.Cornering,
		trip.Breakdown.PhoneUsage,
		trip.Events.HardBrakes,
		trip.Events.HardAccels,
		trip.Events.SharpTurns,
		trip.Events.SpeedingSeconds,
		trip.Anomalies.HasImpossibleSpeed,
		trip.Anomalies.HasGpsJumps,
		trip.Anomalies.FlaggedForReview,
		trip.AvgSpeedMS,
		trip.MaxSpeedMS,
		trip.PointCount,
		trip.NightDriving,
		trip.RushHour,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetByUserID retrieves a user's most recent trips.
func (r *TripRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips WHERE user_id = $1
		ORDER BY started_at DESC LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			status = $1, ended_at = $2, processed_at = $3,
			duration_seconds = $4, distance_meters = $5, score = $6,
			speed_score = $7, braking_score = $8, accel_score = $9,
			cornering_score = $10, phone_score = $11,
			hard_brakes = $12, hard_accels = $13, sharp_turns = $14, speeding_seconds = $15,
			has_impossible_speed = $16, has_gps_jumps = $17, flagged_for_review = $18,
			avg_speed_ms = $19, max_speed_ms = $20, point_count = $21,
			night_driving = $22, rush_hour = $23
		WHERE id = $24
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.EndedAt),
		nullTime(trip.ProcessedAt),
		trip.DurationSeconds,
		trip.DistanceMeters,
		trip.Score,
		trip.Breakdown.Speed,
		trip.Breakdown.Braking,
		trip.Breakdown.Acceleration,
		trip.Breakdown.Cornering,
		trip.Breakdown.PhoneUsage,
		trip.Events.HardBrakes,
		trip.Events.HardAccels,
		trip.Events.SharpTurns,
		trip.Events.SpeedingSeconds,
		trip.Anomalies.HasImpossibleSpeed,
		trip.Anomalies.HasGpsJumps,
		trip.Anomalies.FlaggedForReview,
		trip.AvgSpeedMS,
		trip.MaxSpeedMS,
		trip.PointCount,
		trip.NightDriving,
		trip.RushHour,
		trip.ID,
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

// GetActiveByUserID retrieves the user's trip still in RECORDING or
// PROCESSING status. Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = $1 AND status IN ($2, $3)
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, userID,
		domain.TripStatusRecording, domain.TripStatusProcessing))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var endedAt, processedAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.UserID,
		&trip.Status,
		&trip.StartedAt,
		&endedAt,
		&processedAt,
		&trip.DurationSeconds,
		&trip.DistanceMeters,
		&trip.Score,
		&trip.Breakdown.Speed,
		&trip.Breakdown.Braking,
		&trip.Breakdown.Acceleration,
		&trip.Breakdown.Cornering,
		&trip.Breakdown.PhoneUsage,
		&trip.Events.HardBrakes,
		&trip.Events.HardAccels,
		&trip.Events.SharpTurns,
		&trip.Events.SpeedingSeconds,
		&trip.Anomalies.HasImpossibleSpeed,
		&trip.Anomalies.HasGpsJumps,
		&trip.Anomalies.FlaggedForReview,
		&trip.AvgSpeedMS,
		&trip.MaxSpeedMS,
		&trip.PointCount,
		&trip.NightDriving,
		&trip.RushHour,
	)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		trip.EndedAt = endedAt.Time
	}
	if processedAt.Valid {
		trip.ProcessedAt = processedAt.Time
	}

	return &trip, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
