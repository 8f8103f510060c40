package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/scoring"
)

var errInsertFailed = errors.New("insert failed")

// MockProfileRepository implements repository.ProfileRepository for testing
type MockProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]scoring.IdealTargetProfile
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[uuid.UUID]scoring.IdealTargetProfile)}
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*scoring.IdealTargetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperrors.NotFound("ideal target profile not found", nil)
	}
	return &p, nil
}

func (m *MockProfileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.ListFilters) ([]scoring.IdealTargetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scoring.IdealTargetProfile
	for _, p := range m.profiles {
		if p.OwnerID == ownerID && (!filters.ActiveOnly || p.IsActive) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockProfileRepository) Create(ctx context.Context, p *scoring.IdealTargetProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.profiles[p.ID] = *p
	return nil
}

func (m *MockProfileRepository) Update(ctx context.Context, p *scoring.IdealTargetProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return apperrors.NotFound("ideal target profile not found", nil)
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *MockProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

// MockAnalysisRepository implements repository.AnalysisRepository. Competitor
// names listed in failNames fail to insert.
type MockAnalysisRepository struct {
	mu          sync.Mutex
	analyses    map[uuid.UUID]models.CompetitiveAnalysis
	competitors []models.Competitor
	snapshots   []models.MoatScoreSnapshot
	failNames   map[string]bool
	since       time.Time
}

func NewMockAnalysisRepository() *MockAnalysisRepository {
	return &MockAnalysisRepository{
		analyses:  make(map[uuid.UUID]models.CompetitiveAnalysis),
		failNames: make(map[string]bool),
	}
}

func (m *MockAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CompetitiveAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return nil, apperrors.NotFound("competitive analysis not found", nil)
	}
	return &a, nil
}

func (m *MockAnalysisRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.ListFilters) ([]models.CompetitiveAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CompetitiveAnalysis
	for _, a := range m.analyses {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAnalysisRepository) Create(ctx context.Context, a *models.CompetitiveAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	m.analyses[a.ID] = *a
	return nil
}

func (m *MockAnalysisRepository) ListCompetitors(ctx context.Context, analysisID uuid.UUID) ([]models.Competitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Competitor
	for _, c := range m.competitors {
		if c.AnalysisID == analysisID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockAnalysisRepository) CreateCompetitor(ctx context.Context, c *models.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.analyses[c.AnalysisID]; !ok {
		return apperrors.NotFound("competitive analysis not found", nil)
	}
	if m.failNames[c.Name] {
		return apperrors.DatabaseError("failed to create competitor", errInsertFailed)
	}
	c.ID = uuid.New()
	m.competitors = append(m.competitors, *c)
	return nil
}

func (m *MockAnalysisRepository) ListSnapshots(ctx context.Context, analysisID uuid.UUID, since time.Time) ([]models.MoatScoreSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = since
	var out []models.MoatScoreSnapshot
	for _, s := range m.snapshots {
		if s.AnalysisID == analysisID && !s.CapturedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockAnalysisRepository) CreateSnapshot(ctx context.Context, s *models.MoatScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	m.snapshots = append(m.snapshots, *s)
	return nil
}

// MockShareRepository implements repository.ShareRepository
type MockShareRepository struct {
	mu     sync.Mutex
	shares []models.AnalysisShare
}

func (m *MockShareRepository) Create(ctx context.Context, s *models.AnalysisShare) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	m.shares = append(m.shares, *s)
	return nil
}

func (m *MockShareRepository) ListByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.AnalysisShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalysisShare
	for _, s := range m.shares {
		if s.AnalysisID == analysisID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockShareRepository) GetByToken(ctx context.Context, token string) (*models.AnalysisShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.Token == token {
			s := s
			return &s, nil
		}
	}
	return nil, apperrors.NotFound("share link not found", nil)
}

// MockStreamRepository implements repository.StreamRepository
type MockStreamRepository struct {
	mu        sync.Mutex
	streams   map[uuid.UUID]models.Stream
	goals     []models.StreamGoal
	items     []models.StreamItem
	failGoal  bool
	failItems map[string]bool
}

func NewMockStreamRepository() *MockStreamRepository {
	return &MockStreamRepository{streams: make(map[uuid.UUID]models.Stream), failItems: make(map[string]bool)}
}

func (m *MockStreamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[id]
	if !ok {
		return nil, apperrors.NotFound("stream not found", nil)
	}
	return &s, nil
}

func (m *MockStreamRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.ListFilters) ([]models.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Stream
	for _, s := range m.streams {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockStreamRepository) Create(ctx context.Context, s *models.Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	m.streams[s.ID] = *s
	return nil
}

func (m *MockStreamRepository) CreateGoal(ctx context.Context, g *models.StreamGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGoal {
		return apperrors.DatabaseError("failed to create stream goal", errInsertFailed)
	}
	g.ID = uuid.New()
	m.goals = append(m.goals, *g)
	return nil
}

func (m *MockStreamRepository) CreateItem(ctx context.Context, item *models.StreamItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failItems[item.Name] {
		return apperrors.DatabaseError("failed to create stream item", errInsertFailed)
	}
	item.ID = uuid.New()
	m.items = append(m.items, *item)
	return nil
}

func (m *MockStreamRepository) ListItems(ctx context.Context, streamID uuid.UUID) ([]models.StreamItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StreamItem
	for _, item := range m.items {
		if item.StreamID == streamID {
			out = append(out, item)
		}
	}
	return out, nil
}

// MockDataRoomRepository implements repository.DataRoomRepository
type MockDataRoomRepository struct {
	uploads []models.DataRoomUpload
}

func (m *MockDataRoomRepository) Create(ctx context.Context, u *models.DataRoomUpload) error {
	u.ID = uuid.New()
	m.uploads = append(m.uploads, *u)
	return nil
}

func (m *MockDataRoomRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.ListFilters) ([]models.DataRoomUpload, error) {
	var out []models.DataRoomUpload
	for _, u := range m.uploads {
		if u.OwnerID == ownerID {
			out = append(out, u)
		}
	}
	return out, nil
}

// recordingPublisher remembers every change notification
type recordingPublisher struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPublisher) Notify(ctx context.Context, topic realtime.Topic, parentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, realtime.Channel(topic, parentID))
	return nil
}

func (p *recordingPublisher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// MockTransactionManager runs fn against the same repositories and counts calls
type MockTransactionManager struct {
	mu    sync.Mutex
	repos *repository.Repositories
	calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(m.repos)
}

type testEnv struct {
	services  *Services
	tx        *MockTransactionManager
	profiles  *MockProfileRepository
	analyses  *MockAnalysisRepository
	shares    *MockShareRepository
	streams   *MockStreamRepository
	dataRoom  *MockDataRoomRepository
	publisher *recordingPublisher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		profiles:  NewMockProfileRepository(),
		analyses:  NewMockAnalysisRepository(),
		shares:    &MockShareRepository{},
		streams:   NewMockStreamRepository(),
		dataRoom:  &MockDataRoomRepository{},
		publisher: &recordingPublisher{},
	}
	repos := &repository.Repositories{
		Profiles: env.profiles,
		Analyses: env.analyses,
		Shares:   env.shares,
		Streams:  env.streams,
		DataRoom: env.dataRoom,
	}
	env.tx = &MockTransactionManager{repos: repos}
	repos.Tx = env.tx
	env.services = NewServices(repos, env.publisher, logger.NewNop())
	return env
}

func newUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "analyst@example.com", Role: string(models.RoleAuthenticated)}
}
