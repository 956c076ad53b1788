package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"drivepool/internal/domain"
	"drivepool/internal/scoring"
	"drivepool/internal/service"
)

// newLifecycleService wires a LifecycleService onto mocks. The database is
// nil, so only paths that stop before the completion transaction can run;
// the completion math itself is covered by the scoring and service package
// tests.
func newLifecycleService(
	tripRepo *MockTripRepository,
	pointRepo *MockPointRepository,
	userRepo *MockUserRepository,
	poolRepo *MockPoolRepository,
	shareRepo *MockShareRepository,
	publisher *MockPublisher,
	cache *MockCacheStore,
) *service.LifecycleService {
	return service.NewLifecycleService(
		nil, tripRepo, pointRepo, userRepo, poolRepo, shareRepo,
		publisher, cache, scoring.DefaultThresholds(),
	)
}

func TestStartTrip_CreatesRecordingTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1", Name: "Ann"})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), userRepo,
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	trip, err := svc.StartTrip(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusRecording {
		t.Errorf("expected RECORDING, got %s", trip.Status)
	}
	if trip.UserID != "user-1" {
		t.Errorf("expected owner user-1, got %s", trip.UserID)
	}
	if tripRepo.CountTrips() != 1 {
		t.Errorf("expected 1 trip stored, got %d", tripRepo.CountTrips())
	}
}

func TestStartTrip_RejectsSecondActiveTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1"})
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		UserID:    "user-1",
		Status:    domain.TripStatusRecording,
		StartedAt: time.Now(),
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), userRepo,
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	_, err := svc.StartTrip(context.Background(), "user-1")
	if !errors.Is(err, service.ErrUserHasActiveTrip) {
		t.Errorf("expected ErrUserHasActiveTrip, got %v", err)
	}
}

func TestStartTrip_UnknownUserRejected(t *testing.T) {
	t.Parallel()

	svc := newLifecycleService(NewMockTripRepository(), NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	_, err := svc.StartTrip(context.Background(), "ghost")
	if err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestAppendPoints_OnlyWhileRecording(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	pointRepo := NewMockPointRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusProcessing,
	})

	svc := newLifecycleService(tripRepo, pointRepo, NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	_, err := svc.AppendPoints(context.Background(), "user-1", "trip-1", 0,
		[]domain.TripPoint{{OffsetMs: 0}})
	if !errors.Is(err, service.ErrTripNotRecording) {
		t.Errorf("expected ErrTripNotRecording, got %v", err)
	}
	if pointRepo.AppendCallCount != 0 {
		t.Error("no points should be written for a non-recording trip")
	}
}

func TestAppendPoints_RejectsEmptyBatchAndWrongOwner(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusRecording,
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	_, err := svc.AppendPoints(context.Background(), "user-1", "trip-1", 0, nil)
	if !errors.Is(err, service.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}

	_, err = svc.AppendPoints(context.Background(), "intruder", "trip-1", 0,
		[]domain.TripPoint{{OffsetMs: 0}})
	if !errors.Is(err, service.ErrTripNotOwned) {
		t.Errorf("expected ErrTripNotOwned, got %v", err)
	}
}

func TestAppendPoints_ReportsRunningCount(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	pointRepo := NewMockPointRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusRecording,
	})

	svc := newLifecycleService(tripRepo, pointRepo, NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	ctx := context.Background()
	count, err := svc.AppendPoints(ctx, "user-1", "trip-1", 0,
		[]domain.TripPoint{{OffsetMs: 0}, {OffsetMs: 1000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 points after first batch, got %d", count)
	}

	// Out-of-order batch delivery is accepted.
	count, err = svc.AppendPoints(ctx, "user-1", "trip-1", 2,
		[]domain.TripPoint{{OffsetMs: 3000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 points after second batch, got %d", count)
	}
}

func TestEndTrip_ShortTripFails_NoProfileMutation(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1"})
	publisher := NewMockPublisher()

	// Started 45 seconds ago: under the minimum duration.
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		UserID:    "user-1",
		Status:    domain.TripStatusRecording,
		StartedAt: time.Now().Add(-45 * time.Second),
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), userRepo,
		NewMockPoolRepository(), NewMockShareRepository(), publisher, NewMockCacheStore())

	trip, err := svc.EndTrip(context.Background(), "user-1", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusFailed {
		t.Errorf("expected FAILED for 45s trip, got %s", trip.Status)
	}
	if trip.Score != 0 {
		t.Errorf("failed trip must carry no score, got %d", trip.Score)
	}
	if userRepo.SaveProfileCallCount != 0 {
		t.Error("failed trip must not touch the driving profile")
	}
	if publisher.Count() != 0 {
		t.Error("failed trip must not publish enrichment")
	}
}

func TestEndTrip_TooFewPointsFails(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	pointRepo := NewMockPointRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		UserID:    "user-1",
		Status:    domain.TripStatusRecording,
		StartedAt: time.Now().Add(-5 * time.Minute),
	})
	pointRepo.AppendBatch(context.Background(), "trip-1", 0,
		[]domain.TripPoint{{OffsetMs: 0, Latitude: 51.5, Longitude: -0.1}})

	svc := newLifecycleService(tripRepo, pointRepo, NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	trip, err := svc.EndTrip(context.Background(), "user-1", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusFailed {
		t.Errorf("expected FAILED with a single point, got %s", trip.Status)
	}
}

func TestEndTrip_FlaggedTripHeldForReview(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	pointRepo := NewMockPointRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1"})

	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		UserID:    "user-1",
		Status:    domain.TripStatusRecording,
		StartedAt: time.Now().Add(-10 * time.Minute),
	})

	// London to Birmingham in two minutes of telemetry: a physically
	// impossible average speed that must trip the review flag.
	pointRepo.AppendBatch(context.Background(), "trip-1", 0, []domain.TripPoint{
		{OffsetMs: 0, Latitude: 51.5074, Longitude: -0.1278, SpeedMS: 20},
		{OffsetMs: 120000, Latitude: 52.4862, Longitude: -1.8904, SpeedMS: 20},
	})

	svc := newLifecycleService(tripRepo, pointRepo, userRepo,
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	trip, err := svc.EndTrip(context.Background(), "user-1", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusProcessing {
		t.Errorf("flagged trip should be held in PROCESSING, got %s", trip.Status)
	}
	if !trip.Anomalies.FlaggedForReview {
		t.Error("expected review flag on impossible-speed trip")
	}
	if userRepo.SaveProfileCallCount != 0 {
		t.Error("held trip must not touch the driving profile")
	}

	// Metrics were persisted for the reviewer.
	stored := tripRepo.GetTrip("trip-1")
	if stored.DistanceMeters == 0 || stored.PointCount != 2 {
		t.Error("expected metrics persisted with the held trip")
	}
}

func TestCancelTrip_OnlyFromProcessing(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusRecording,
	})
	tripRepo.AddTrip(&domain.Trip{
		ID:      "trip-2",
		UserID:  "user-1",
		Status:  domain.TripStatusProcessing,
		EndedAt: time.Now(),
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	ctx := context.Background()

	_, err := svc.CancelTrip(ctx, "user-1", "trip-1")
	if !errors.Is(err, service.ErrTripNotProcessing) {
		t.Errorf("expected ErrTripNotProcessing for recording trip, got %v", err)
	}

	trip, err := svc.CancelTrip(ctx, "user-1", "trip-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusFailed {
		t.Errorf("cancelled trip should be FAILED, got %s", trip.Status)
	}

	_, err = svc.CancelTrip(ctx, "other-user", "trip-2")
	if !errors.Is(err, service.ErrTripNotOwned) {
		t.Errorf("expected ErrTripNotOwned, got %v", err)
	}
}

func TestDisputeTrip_OnlyCompletedTrips(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusCompleted,
		Score:  82,
	})
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-2",
		UserID: "user-1",
		Status: domain.TripStatusFailed,
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	ctx := context.Background()

	trip, err := svc.DisputeTrip(ctx, "user-1", "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusDisputed {
		t.Errorf("expected DISPUTED, got %s", trip.Status)
	}
	// The computed score survives the dispute.
	if trip.Score != 82 {
		t.Errorf("dispute must not erase the score, got %d", trip.Score)
	}

	_, err = svc.DisputeTrip(ctx, "user-1", "trip-2")
	if !errors.Is(err, service.ErrTripNotCompleted) {
		t.Errorf("expected ErrTripNotCompleted for failed trip, got %v", err)
	}

	// Disputing twice is a no-op, not an error.
	again, err := svc.DisputeTrip(ctx, "user-1", "trip-1")
	if err != nil {
		t.Fatalf("duplicate dispute errored: %v", err)
	}
	if again.Status != domain.TripStatusDisputed {
		t.Errorf("expected DISPUTED after duplicate dispute, got %s", again.Status)
	}
}

func TestResolveReview_RejectFailsTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1"})
	tripRepo.AddTrip(&domain.Trip{
		ID:      "trip-1",
		UserID:  "user-1",
		Status:  domain.TripStatusProcessing,
		EndedAt: time.Now(),
		Anomalies: domain.AnomalyFlags{
			HasImpossibleSpeed: true,
			FlaggedForReview:   true,
		},
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), userRepo,
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	trip, err := svc.ResolveReview(context.Background(), "trip-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusFailed {
		t.Errorf("rejected review should fail the trip, got %s", trip.Status)
	}
	if userRepo.SaveProfileCallCount != 0 {
		t.Error("rejected trip must not touch the driving profile")
	}
}

func TestResolveReview_RequiresProcessing(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusCompleted,
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	_, err := svc.ResolveReview(context.Background(), "trip-1", true)
	if !errors.Is(err, service.ErrTripNotProcessing) {
		t.Errorf("expected ErrTripNotProcessing, got %v", err)
	}
}

func TestGetTrip_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Status: domain.TripStatusCompleted,
	})

	svc := newLifecycleService(tripRepo, NewMockPointRepository(), NewMockUserRepository(),
		NewMockPoolRepository(), NewMockShareRepository(), NewMockPublisher(), NewMockCacheStore())

	if _, err := svc.GetTrip(context.Background(), "user-1", "trip-1"); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetTrip(context.Background(), "other", "trip-1"); !errors.Is(err, service.ErrTripNotOwned) {
		t.Errorf("expected ErrTripNotOwned, got %v", err)
	}
}
