package repository

import (
	"context"

	"drivepool/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByUserID retrieves a user's most recent trips.
	GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetActiveByUserID retrieves the user's trip still in RECORDING or
	// PROCESSING status. Returns nil if no active trip exists.
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Trip, error)
}

// PointRepository defines the persistence operations for trip points.
// Points are append-only; batches may arrive out of order.
type PointRepository interface {
	// AppendBatch stores one batch of points for a trip.
	AppendBatch(ctx context.Context, tripID string, batchIndex int, points []domain.TripPoint) error

	// GetByTripID retrieves all points for a trip ordered by offset.
	GetByTripID(ctx context.Context, tripID string) ([]domain.TripPoint, error)

	// CountByTripID returns the number of stored points for a trip.
	CountByTripID(ctx context.Context, tripID string) (int, error)
}
