package repository

import (
	"context"

	"drivepool/internal/domain"
)

// RankedDriver is the read model the leaderboard ranks: one row per user
// meeting the minimum-trips requirement.
type RankedDriver struct {
	UserID     string
	Name       string
	Score      int
	TotalMiles float64
	TotalTrips int
}

// UserRepository defines the persistence operations for users and their
// embedded driving profiles.
type UserRepository interface {
	// Create adds a new user with an empty driving profile.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// GetProfile retrieves a user's driving profile.
	GetProfile(ctx context.Context, userID string) (*domain.DrivingProfile, error)

	// SaveProfile overwrites a user's driving profile. Callers are expected
	// to have read the profile in the same transaction.
	SaveProfile(ctx context.Context, profile *domain.DrivingProfile) error

	// ListRankable returns all users with at least minTrips completed trips,
	// for leaderboard ranking.
	ListRankable(ctx context.Context, minTrips int) ([]RankedDriver, error)
}
