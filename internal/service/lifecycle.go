package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"drivepool/internal/domain"
	"drivepool/internal/outbox"
	internalRedis "drivepool/internal/redis"
	"drivepool/internal/repository"
	"drivepool/internal/repository/postgres"
	"drivepool/internal/scoring"
)

// minTripSeconds rejects trips too short to be meaningful telemetry.
const minTripSeconds = 60

// minTripPoints is the smallest point count that can be scored.
const minTripPoints = 2

// legalTransitions is the trip lifecycle state machine. Any pair not listed
// here is an illegal transition; a pair with equal states is a no-op.
var legalTransitions = map[domain.TripStatus][]domain.TripStatus{
	domain.TripStatusRecording:  {domain.TripStatusProcessing, domain.TripStatusFailed},
	domain.TripStatusProcessing: {domain.TripStatusCompleted, domain.TripStatusFailed},
	domain.TripStatusCompleted:  {domain.TripStatusDisputed},
}

// transition validates and applies a status change on the trip. Returns
// false with no error when the status did not actually change, guarding
// against duplicate trigger delivery.
func transition(trip *domain.Trip, to domain.TripStatus) (bool, error) {
	if trip.Status == to {
		return false, nil
	}
	for _, allowed := range legalTransitions[trip.Status] {
		if allowed == to {
			trip.Status = to
			return true, nil
		}
	}
	return false, ErrIllegalTransition
}

// LifecycleService drives trips through recording, processing, and
// completion, orchestrating scoring, anomaly detection, and aggregation.
type LifecycleService struct {
	db         *sql.DB
	tripRepo   repository.TripRepository
	pointRepo  repository.PointRepository
	userRepo   repository.UserRepository
	poolRepo   repository.PoolRepository
	shareRepo  repository.ShareRepository
	publisher  outbox.Publisher
	cacheStore internalRedis.CacheStoreInterface
	thresholds scoring.Thresholds
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	pointRepo repository.PointRepository,
	userRepo repository.UserRepository,
	poolRepo repository.PoolRepository,
	shareRepo repository.ShareRepository,
	publisher outbox.Publisher,
	cacheStore internalRedis.CacheStoreInterface,
	thresholds scoring.Thresholds,
) *LifecycleService {
	return &LifecycleService{
		db:         db,
		tripRepo:   tripRepo,
		pointRepo:  pointRepo,
		userRepo:   userRepo,
		poolRepo:   poolRepo,
		shareRepo:  shareRepo,
		publisher:  publisher,
		cacheStore: cacheStore,
		thresholds: thresholds,
	}
}

// StartTrip opens a new trip in RECORDING status.
func (s *LifecycleService) StartTrip(ctx context.Context, userID string) (*domain.Trip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.tripRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserHasActiveTrip
	}

	trip := &domain.Trip{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    domain.TripStatusRecording,
		StartedAt: time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// AppendPoints stores one batch of points for a recording trip. Batches may
// arrive out of order; they are concatenated and re-sorted at scoring time.
func (s *LifecycleService) AppendPoints(ctx context.Context, userID, tripID string, batchIndex int, points []domain.TripPoint) (int, error) {
	if tripID == "" {
		return 0, ErrInvalidTripID
	}
	if len(points) == 0 {
		return 0, ErrEmptyBatch
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return 0, err
	}
	if trip.UserID != userID {
		return 0, ErrTripNotOwned
	}
	if trip.Status != domain.TripStatusRecording {
		return 0, ErrTripNotRecording
	}

	if err := s.pointRepo.AppendBatch(ctx, tripID, batchIndex, points); err != nil {
		return 0, err
	}

	return s.pointRepo.CountByTripID(ctx, tripID)
}

// EndTrip moves a trip out of RECORDING, computes its metrics, and either
// completes it, holds it for review, or fails it.
func (s *LifecycleService) EndTrip(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripNotOwned
	}

	endedAt := time.Now()

	// Too short to be meaningful telemetry: direct RECORDING -> FAILED.
	if endedAt.Sub(trip.StartedAt) < minTripSeconds*time.Second {
		return s.failTrip(ctx, trip, endedAt)
	}

	changed, err := transition(trip, domain.TripStatusProcessing)
	if err != nil {
		return nil, ErrTripNotRecording
	}
	if !changed {
		return trip, nil // duplicate end delivery
	}
	trip.EndedAt = endedAt

	// Persist PROCESSING before scoring so a crash mid-computation leaves a
	// resumable trip rather than a phantom recording.
	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	points, err := s.pointRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(points) < minTripPoints {
		return s.failTrip(ctx, trip, endedAt)
	}

	metrics := scoring.Compute(points, s.thresholds)
	anomalies := scoring.DetectAnomalies(points, metrics)
	applyMetrics(trip, metrics, anomalies)

	if anomalies.FlaggedForReview {
		// Held in PROCESSING for manual resolution; metrics are persisted
		// so a reviewer can see what tripped the flags.
		if err := s.tripRepo.Update(ctx, trip); err != nil {
			return nil, err
		}
		return trip, nil
	}

	if err := s.finalize(ctx, trip.ID); err != nil {
		return s.failTrip(ctx, trip, endedAt)
	}

	return s.afterFinalize(ctx, tripID)
}

// ResolveReview resolves a trip held for manual review. Approval finalizes
// the trip; rejection fails it. Only legal from PROCESSING.
func (s *LifecycleService) ResolveReview(ctx context.Context, tripID string, approve bool) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusProcessing {
		return nil, ErrTripNotProcessing
	}

	if !approve {
		return s.failTrip(ctx, trip, time.Now())
	}

	if err := s.finalize(ctx, trip.ID); err != nil {
		return s.failTrip(ctx, trip, time.Now())
	}

	return s.afterFinalize(ctx, tripID)
}

// CancelTrip aborts a trip held in PROCESSING. Rejected once the trip has
// left PROCESSING, and for callers who do not own the trip.
func (s *LifecycleService) CancelTrip(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripNotOwned
	}
	if trip.Status != domain.TripStatusProcessing {
		return nil, ErrTripNotProcessing
	}

	return s.failTrip(ctx, trip, time.Now())
}

// DisputeTrip marks a completed trip as disputed.
func (s *LifecycleService) DisputeTrip(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripNotOwned
	}

	changed, err := transition(trip, domain.TripStatusDisputed)
	if err != nil {
		return nil, ErrTripNotCompleted
	}
	if !changed {
		return trip, nil
	}

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetTrip retrieves a trip by ID for its owner.
func (s *LifecycleService) GetTrip(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripNotOwned
	}
	return trip, nil
}

// GetUserTrips retrieves a user's recent trips.
func (s *LifecycleService) GetUserTrips(ctx context.Context, userID string, limit int) ([]*domain.Trip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.tripRepo.GetByUserID(ctx, userID, limit)
}

// failTrip moves the trip to FAILED. This status write is the only write on
// the failure path; no profile or pool state is touched.
func (s *LifecycleService) failTrip(ctx context.Context, trip *domain.Trip, endedAt time.Time) (*domain.Trip, error) {
	changed, err := transition(trip, domain.TripStatusFailed)
	if err != nil {
		return nil, err
	}
	if !changed {
		return trip, nil
	}

	if trip.EndedAt.IsZero() {
		trip.EndedAt = endedAt
	}
	trip.Score = 0

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// finalize marks the trip completed and folds it into the user profile and
// the current pool share, all in one serializable transaction retried on
// conflict. Re-running against an already completed trip is a no-op, which
// makes review resolution idempotent.
func (s *LifecycleService) finalize(ctx context.Context, tripID string) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txUserRepo := postgres.NewUserRepositoryWithTx(tx)
		txPoolRepo := postgres.NewPoolRepositoryWithTx(tx)
		txShareRepo := postgres.NewShareRepositoryWithTx(tx)

		trip, err := txTripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}

		changed, err := transition(trip, domain.TripStatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return nil // already finalized
		}

		if trip.ProcessedAt.IsZero() {
			trip.ProcessedAt = time.Now()
		}

		if err := txTripRepo.Update(ctx, trip); err != nil {
			return err
		}

		profile, err := txUserRepo.GetProfile(ctx, trip.UserID)
		if err != nil {
			return err
		}
		mergeTripIntoProfile(profile, trip)
		if err := txUserRepo.SaveProfile(ctx, profile); err != nil {
			return err
		}

		return applyTripToCurrentShare(ctx, txPoolRepo, txShareRepo, trip)
	})
}

// afterFinalize re-reads the committed trip and performs the post-commit
// side effects: cache invalidation and the enrichment publish. Both are
// best-effort and never affect the committed state.
func (s *LifecycleService) afterFinalize(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.InvalidateProfile(ctx, trip.UserID); err != nil {
			log.Printf("profile cache invalidation failed for user %s: %v", trip.UserID, err)
		}
	}

	profileScore, totalTrips := 0, 0
	if profile, err := s.userRepo.GetProfile(ctx, trip.UserID); err == nil {
		profileScore, totalTrips = profile.Score, profile.TotalTrips
	}

	if err := s.publisher.PublishEnrichment(ctx, outbox.EnrichmentMessage{
		TripID:          trip.ID,
		UserID:          trip.UserID,
		Score:           trip.Score,
		DistanceMeters:  trip.DistanceMeters,
		DurationSeconds: trip.DurationSeconds,
		HardBrakes:      trip.Events.HardBrakes,
		HardAccels:      trip.Events.HardAccels,
		SharpTurns:      trip.Events.SharpTurns,
		SpeedingSeconds: trip.Events.SpeedingSeconds,
		ProfileScore:    profileScore,
		TotalTrips:      totalTrips,
	}); err != nil {
		log.Printf("enrichment publish failed for trip %s: %v", trip.ID, err)
	}

	return trip, nil
}

// applyTripToCurrentShare folds a completed trip's score into the user's
// pool share for the current period, if one exists.
func applyTripToCurrentShare(ctx context.Context, poolRepo repository.PoolRepository, shareRepo repository.ShareRepository, trip *domain.Trip) error {
	pool, err := poolRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // pool not initialized; nothing to aggregate into
		}
		return err
	}

	share, err := shareRepo.GetByUserAndPeriod(ctx, trip.UserID, pool.PeriodStart)
	if err != nil {
		return err
	}
	if share == nil || share.Status != domain.ShareStatusActive {
		return nil
	}

	oldWeight := share.TripsIncluded
	share.TripsIncluded++
	share.MilesIncluded += trip.DistanceMeters / metersPerMile
	share.AvgScore = weightedAverage(share.AvgScore, trip.Score, oldWeight)
	share.WeightedScore = float64(share.ContributionCents) * float64(share.AvgScore) / 100

	return shareRepo.Update(ctx, share)
}

// applyMetrics copies a computed metrics bundle onto the trip document.
func applyMetrics(trip *domain.Trip, m scoring.Metrics, anomalies domain.AnomalyFlags) {
	trip.DistanceMeters = m.DistanceMeters
	trip.DurationSeconds = m.DurationSeconds
	trip.Score = m.Score
	trip.Breakdown = m.Breakdown
	trip.Events = m.Events
	trip.Anomalies = anomalies
	trip.AvgSpeedMS = m.AvgSpeedMS
	trip.MaxSpeedMS = m.MaxSpeedMS
	trip.PointCount = m.PointCount
	trip.NightDriving = isNight(trip.StartedAt)
	trip.RushHour = isRushHour(trip.StartedAt)
}

func isNight(t time.Time) bool {
	h := t.Hour()
	return h >= 22 || h < 5
}

func isRushHour(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	h := t.Hour()
	return (h >= 7 && h < 9) || (h >= 16 && h < 19)
}
