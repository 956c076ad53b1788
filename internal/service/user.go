package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"drivepool/internal/domain"
	internalRedis "drivepool/internal/redis"
	"drivepool/internal/repository"
)

// ErrInvalidName is returned when a registration name is empty.
var ErrInvalidName = errors.New("invalid name")

// ErrInvalidPhone is returned when a registration phone is empty.
var ErrInvalidPhone = errors.New("invalid phone number")

// ErrPhoneTaken is returned when a phone number is already registered.
var ErrPhoneTaken = errors.New("phone number already registered")

// UserService handles registration and profile reads.
type UserService struct {
	userRepo   repository.UserRepository
	cacheStore internalRedis.CacheStoreInterface
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, cacheStore internalRedis.CacheStoreInterface) *UserService {
	return &UserService{userRepo: userRepo, cacheStore: cacheStore}
}

// Register creates a user with an empty driving profile.
func (s *UserService) Register(ctx context.Context, name, phone string) (*domain.User, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile retrieves a user's driving profile, served from cache when the
// cached summary is fresh. Cache failures fall through to the database.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.DrivingProfile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetProfile(ctx, profileSummary(profile)); err != nil {
			log.Printf("profile cache write failed for user %s: %v", userID, err)
		}
	}
	return profile, nil
}

// GetProfileSummary returns the lightweight cached view of a profile,
// falling back to the database on a miss.
func (s *UserService) GetProfileSummary(ctx context.Context, userID string) (*internalRedis.CachedProfile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetProfile(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := profileSummary(profile)
	if s.cacheStore != nil {
		if err := s.cacheStore.SetProfile(ctx, summary); err != nil {
			log.Printf("profile cache write failed for user %s: %v", userID, err)
		}
	}
	return summary, nil
}

func profileSummary(p *domain.DrivingProfile) *internalRedis.CachedProfile {
	return &internalRedis.CachedProfile{
		UserID:     p.UserID,
		Score:      p.Score,
		RiskTier:   string(p.Tier),
		TotalTrips: p.TotalTrips,
		TotalMiles: p.TotalMiles,
		StreakDays: p.StreakDays,
	}
}
