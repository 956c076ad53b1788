package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"drivepool/internal/domain"
	"drivepool/internal/outbox"
	"drivepool/internal/redis"
	"drivepool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.UserID == userID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.UserID == userID &&
			(t.Status == domain.TripStatusRecording || t.Status == domain.TripStatusProcessing) {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

// GetTrip returns a trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK POINT REPOSITORY
// ──────────────────────────────────────────────

// MockPointRepository is a mock implementation of PointRepository.
type MockPointRepository struct {
	mu     sync.RWMutex
	points map[string][]domain.TripPoint

	// Counters for verification
	AppendCallCount int32

	// Error injection
	AppendError error
}

// NewMockPointRepository creates a new mock point repository.
func NewMockPointRepository() *MockPointRepository {
	return &MockPointRepository{
		points: make(map[string][]domain.TripPoint),
	}
}

func (m *MockPointRepository) AppendBatch(ctx context.Context, tripID string, batchIndex int, points []domain.TripPoint) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		p.TripID = tripID
		p.BatchIndex = batchIndex
		m.points[tripID] = append(m.points[tripID], p)
	}
	return nil
}

func (m *MockPointRepository) GetByTripID(ctx context.Context, tripID string) ([]domain.TripPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := append([]domain.TripPoint(nil), m.points[tripID]...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].OffsetMs < result[j].OffsetMs
	})
	return result, nil
}

func (m *MockPointRepository) CountByTripID(ctx context.Context, tripID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points[tripID]), nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	profiles map[string]*domain.DrivingProfile
	rankable []repository.RankedDriver

	// Counters for verification
	CreateCallCount      int32
	SaveProfileCallCount int32

	// Error injection
	CreateError      error
	SaveProfileError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:    make(map[string]*domain.User),
		profiles: make(map[string]*domain.DrivingProfile),
	}
}

// AddUser adds a user with an empty profile.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	if _, ok := m.profiles[user.ID]; !ok {
		m.profiles[user.ID] = &domain.DrivingProfile{
			UserID: user.ID,
			Tier:   domain.RiskTierMedium,
		}
	}
}

// SetProfile seeds a driving profile.
func (m *MockUserRepository) SetProfile(profile *domain.DrivingProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
}

// SetRankable seeds the leaderboard read model.
func (m *MockUserRepository) SetRankable(drivers []repository.RankedDriver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankable = drivers
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.profiles[user.ID] = &domain.DrivingProfile{
		UserID: user.ID,
		Tier:   domain.RiskTierMedium,
	}
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID string) (*domain.DrivingProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *profile
	copy.RecentTrips = append([]domain.RecentTrip(nil), profile.RecentTrips...)
	return &copy, nil
}

func (m *MockUserRepository) SaveProfile(ctx context.Context, profile *domain.DrivingProfile) error {
	atomic.AddInt32(&m.SaveProfileCallCount, 1)
	if m.SaveProfileError != nil {
		return m.SaveProfileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *profile
	m.profiles[profile.UserID] = &copy
	return nil
}

func (m *MockUserRepository) ListRankable(ctx context.Context, minTrips int) ([]repository.RankedDriver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []repository.RankedDriver
	for _, d := range m.rankable {
		if d.TotalTrips >= minTrips {
			result = append(result, d)
		}
	}
	return result, nil
}

// Profile returns a stored profile for test assertions.
func (m *MockUserRepository) Profile(userID string) *domain.DrivingProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID]
}

// ──────────────────────────────────────────────
// MOCK POOL & SHARE REPOSITORIES
// ──────────────────────────────────────────────

// MockPoolRepository is a mock implementation of PoolRepository.
type MockPoolRepository struct {
	mu   sync.RWMutex
	pool *domain.CommunityPool

	UpdateCallCount int32
	UpdateError     error
}

// NewMockPoolRepository creates a new mock pool repository.
func NewMockPoolRepository() *MockPoolRepository {
	return &MockPoolRepository{}
}

func (m *MockPoolRepository) Get(ctx context.Context) (*domain.CommunityPool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pool == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.pool
	return &copy, nil
}

func (m *MockPoolRepository) Create(ctx context.Context, pool *domain.CommunityPool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *pool
	m.pool = &copy
	return nil
}

func (m *MockPoolRepository) Update(ctx context.Context, pool *domain.CommunityPool) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *pool
	m.pool = &copy
	return nil
}

// Pool returns the stored pool for test assertions.
func (m *MockPoolRepository) Pool() *domain.CommunityPool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

// MockShareRepository is a mock implementation of ShareRepository.
type MockShareRepository struct {
	mu     sync.RWMutex
	shares map[string]*domain.PoolShare

	UpdateCallCount int32
	UpdateError     error
}

// NewMockShareRepository creates a new mock share repository.
func NewMockShareRepository() *MockShareRepository {
	return &MockShareRepository{
		shares: make(map[string]*domain.PoolShare),
	}
}

// AddShare adds a share to the mock repository.
func (m *MockShareRepository) AddShare(share *domain.PoolShare) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares[share.ID] = share
}

func (m *MockShareRepository) Create(ctx context.Context, share *domain.PoolShare) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *share
	m.shares[share.ID] = &copy
	return nil
}

func (m *MockShareRepository) Update(ctx context.Context, share *domain.PoolShare) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[share.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *share
	m.shares[share.ID] = &copy
	return nil
}

func (m *MockShareRepository) GetByUserAndPeriod(ctx context.Context, userID string, periodStart time.Time) (*domain.PoolShare, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shares {
		if s.UserID == userID && s.PeriodStart.Equal(periodStart) {
			copy := *s
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockShareRepository) ListActiveByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PoolShare
	for _, s := range m.shares {
		if s.Status == domain.ShareStatusActive && s.PeriodStart.Equal(periodStart) {
			copy := *s
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *MockShareRepository) ListByPeriod(ctx context.Context, periodStart time.Time) ([]*domain.PoolShare, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PoolShare
	for _, s := range m.shares {
		if s.PeriodStart.Equal(periodStart) {
			copy := *s
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *MockShareRepository) SumContributionsByPeriod(ctx context.Context, periodStart time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, s := range m.shares {
		if s.PeriodStart.Equal(periodStart) {
			total += s.ContributionCents
		}
	}
	return total, nil
}

// Share returns a stored share for test assertions.
func (m *MockShareRepository) Share(id string) *domain.PoolShare {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shares[id]
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES & PUBLISHER
// ──────────────────────────────────────────────

// MockLeaderboardStore is an in-memory snapshot store.
type MockLeaderboardStore struct {
	mu        sync.RWMutex
	snapshots map[domain.LeaderboardPeriod]*domain.LeaderboardSnapshot

	ReplaceCallCount int32
	ReplaceError     error
}

// NewMockLeaderboardStore creates a new mock leaderboard store.
func NewMockLeaderboardStore() *MockLeaderboardStore {
	return &MockLeaderboardStore{
		snapshots: make(map[domain.LeaderboardPeriod]*domain.LeaderboardSnapshot),
	}
}

func (m *MockLeaderboardStore) Get(ctx context.Context, period domain.LeaderboardPeriod) (*domain.LeaderboardSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[period], nil
}

func (m *MockLeaderboardStore) Replace(ctx context.Context, snapshot *domain.LeaderboardSnapshot) error {
	atomic.AddInt32(&m.ReplaceCallCount, 1)
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.Period] = snapshot
	return nil
}

// MockCacheStore is an in-memory profile summary cache.
type MockCacheStore struct {
	mu       sync.RWMutex
	profiles map[string]*redis.CachedProfile

	InvalidateCallCount int32
	SetCallCount        int32
	GetError            error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		profiles: make(map[string]*redis.CachedProfile),
	}
}

func (m *MockCacheStore) GetProfile(ctx context.Context, userID string) (*redis.CachedProfile, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID], nil
}

func (m *MockCacheStore) SetProfile(ctx context.Context, profile *redis.CachedProfile) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *MockCacheStore) InvalidateProfile(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	return nil
}

// MockPublisher records published enrichment messages.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []outbox.EnrichmentMessage

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishEnrichment(ctx context.Context, msg outbox.EnrichmentMessage) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
	return nil
}

// Count returns the number of published messages.
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

// Interface conformance checks.
var (
	_ repository.TripRepository       = (*MockTripRepository)(nil)
	_ repository.PointRepository      = (*MockPointRepository)(nil)
	_ repository.UserRepository       = (*MockUserRepository)(nil)
	_ repository.PoolRepository       = (*MockPoolRepository)(nil)
	_ repository.ShareRepository      = (*MockShareRepository)(nil)
	_ redis.LeaderboardStoreInterface = (*MockLeaderboardStore)(nil)
	_ redis.CacheStoreInterface       = (*MockCacheStore)(nil)
	_ outbox.Publisher                = (*MockPublisher)(nil)
)
