package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"drivepool/internal/domain"
	"drivepool/internal/repository"
)

// PointRepository is a PostgreSQL implementation of repository.PointRepository.
type PointRepository struct {
	q Querier
}

// NewPointRepository creates a new PostgreSQL point repository.
func NewPointRepository(db *sql.DB) *PointRepository {
	return &PointRepository{q: db}
}

// NewPointRepositoryWithTx creates a point repository using a transaction.
func NewPointRepositoryWithTx(tx *sql.Tx) *PointRepository {
	return &PointRepository{q: tx}
}

// AppendBatch stores one batch of points for a trip in a single multi-row
// insert. Points are append-only.
func (r *PointRepository) AppendBatch(ctx context.Context, tripID string, batchIndex int, points []domain.TripPoint) error {
	if len(points) == 0 {
		return nil
	}

	const cols = 14
	placeholders := make([]string, 0, len(points))
	args := make([]any, 0, len(points)*cols)

	for i, p := range points {
		base := i * cols
		marks := make([]string, cols)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		args = append(args,
			tripID, batchIndex, p.OffsetMs, p.Latitude, p.Longitude,
			p.SpeedMS, p.Heading, p.AccuracyM,
			p.AccelX, p.AccelY, p.AccelZ,
			p.GyroX, p.GyroY, p.GyroZ,
		)
	}

	query := `
		INSERT INTO trip_points (
			trip_id, batch_index, offset_ms, latitude, longitude,
			speed_ms, heading, accuracy_m,
			accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z
		) VALUES ` + strings.Join(placeholders, ", ")

	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByTripID retrieves all points for a trip ordered by offset.
func (r *PointRepository) GetByTripID(ctx context.Context, tripID string) ([]domain.TripPoint, error) {
	query := `
		SELECT trip_id, batch_index, offset_ms, latitude, longitude,
		       speed_ms, heading, accuracy_m,
		       accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z
		FROM trip_points
		WHERE trip_id = $1
		ORDER BY offset_ms ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TripPoint
	for rows.Next() {
		var p domain.TripPoint
		if err := rows.Scan(
			&p.TripID, &p.BatchIndex, &p.OffsetMs, &p.Latitude, &p.Longitude,
			&p.SpeedMS, &p.Heading, &p.AccuracyM,
			&p.AccelX, &p.AccelY, &p.AccelZ,
			&p.GyroX, &p.GyroY, &p.GyroZ,
		); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// CountByTripID returns the number of stored points for a trip.
func (r *PointRepository) CountByTripID(ctx context.Context, tripID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trip_points WHERE trip_id = $1`, tripID,
	).Scan(&count)
	return count, err
}

// Ensure PointRepository implements repository.PointRepository.
var _ repository.PointRepository = (*PointRepository)(nil)
