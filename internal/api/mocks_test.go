package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/enrichment"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/scoring"
	"github.com/ajharbinger/dealscope/internal/services"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

var errMock = errors.New("mock error")

// Mock profile service for testing
type mockProfileService struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]scoring.IdealTargetProfile
	shouldError bool
}

func newMockProfileService() *mockProfileService {
	return &mockProfileService{profiles: make(map[uuid.UUID]scoring.IdealTargetProfile)}
}

func (m *mockProfileService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]scoring.IdealTargetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return nil, errMock
	}
	var out []scoring.IdealTargetProfile
	for _, p := range m.profiles {
		if p.OwnerID == user.ID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfileService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*scoring.IdealTargetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return nil, errMock
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperrors.NotFound("ideal target profile not found", nil)
	}
	if !user.CanAccess(p.OwnerID) {
		return nil, apperrors.Forbidden("you do not have access to this resource", nil)
	}
	return &p, nil
}

func (m *mockProfileService) Create(ctx context.Context, user *models.User, p scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return nil, errMock
	}
	if p.ScoringWeights == nil {
		p.ScoringWeights = scoring.DefaultWeights()
	}
	if !p.IsValid() {
		return nil, apperrors.ValidationError("invalid ideal target profile", nil).
			WithFields([]apperrors.FieldError{{Field: "criteria", Message: "at least one filter is required"}})
	}
	p.ID = uuid.New()
	p.OwnerID = user.ID
	m.profiles[p.ID] = p
	return &p, nil
}

func (m *mockProfileService) Update(ctx context.Context, user *models.User, id uuid.UUID, p scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error) {
	existing, err := m.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = existing.ID
	p.OwnerID = existing.OwnerID
	m.profiles[id] = p
	return &p, nil
}

func (m *mockProfileService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := m.Get(ctx, user, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *mockProfileService) Match(ctx context.Context, user *models.User, id uuid.UUID, candidates []scoring.Candidate) ([]scoring.MatchResult, error) {
	p, err := m.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return scoring.NewMatchEngine().Rank(*p, candidates), nil
}

// Mock analysis service for testing
type mockAnalysisService struct {
	mu          sync.Mutex
	analyses    map[uuid.UUID]models.CompetitiveAnalysis
	competitors map[uuid.UUID][]models.Competitor
	lastWindow  time.Duration
	shares      []models.AnalysisShare
	shouldError bool
}

func newMockAnalysisService() *mockAnalysisService {
	return &mockAnalysisService{
		analyses:    make(map[uuid.UUID]models.CompetitiveAnalysis),
		competitors: make(map[uuid.UUID][]models.Competitor),
	}
}

func (m *mockAnalysisService) add(owner uuid.UUID, name string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.analyses[id] = models.CompetitiveAnalysis{ID: id, OwnerID: owner, Name: name, Status: models.AnalysisActive}
	return id
}

func (m *mockAnalysisService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.CompetitiveAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return nil, errMock
	}
	out := []models.CompetitiveAnalysis{}
	for _, a := range m.analyses {
		if a.OwnerID == user.ID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAnalysisService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.CompetitiveAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return nil, errMock
	}
	a, ok := m.analyses[id]
	if !ok {
		return nil, apperrors.NotFound("competitive analysis not found", nil)
	}
	if !user.CanAccess(a.OwnerID) {
		return nil, apperrors.Forbidden("you do not have access to this resource", nil)
	}
	a.Competitors = append([]models.Competitor(nil), m.competitors[id]...)
	return &a, nil
}

func (m *mockAnalysisService) Create(ctx context.Context, user *models.User, req models.CreateAnalysisRequest) (*models.SubmissionResult, error) {
	if m.shouldError {
		return nil, errMock
	}
	id := m.add(user.ID, req.Name)
	return &models.SubmissionResult{ID: id, Created: len(req.Competitors)}, nil
}

func (m *mockAnalysisService) AddCompetitor(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CompetitorRequest) (*models.Competitor, error) {
	if _, err := m.Get(ctx, user, analysisID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := models.Competitor{ID: uuid.New(), AnalysisID: analysisID, Name: req.Name, Website: req.Website}
	m.competitors[analysisID] = append(m.competitors[analysisID], c)
	return &c, nil
}

func (m *mockAnalysisService) Competitors(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.Competitor, error) {
	a, err := m.Get(ctx, user, analysisID)
	if err != nil {
		return nil, err
	}
	return a.Competitors, nil
}

func (m *mockAnalysisService) Trends(ctx context.Context, user *models.User, analysisID uuid.UUID, window time.Duration) (*services.TrendReport, error) {
	if _, err := m.Get(ctx, user, analysisID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWindow = window
	return &services.TrendReport{AnalysisID: analysisID, Window: window.String(), Competitors: []services.CompetitorTrend{}}, nil
}

func (m *mockAnalysisService) CreateShare(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CreateShareRequest) (*models.AnalysisShare, error) {
	if _, err := m.Get(ctx, user, analysisID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	share := models.AnalysisShare{ID: uuid.New(), AnalysisID: analysisID, Token: fmt.Sprintf("tok-%d", len(m.shares)+1), CreatedBy: user.ID}
	if req.Password != "" {
		share.PasswordHash = "hashed:" + req.Password
	}
	m.shares = append(m.shares, share)
	return &share, nil
}

func (m *mockAnalysisService) ListShares(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.AnalysisShare, error) {
	if _, err := m.Get(ctx, user, analysisID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AnalysisShare(nil), m.shares...), nil
}

func (m *mockAnalysisService) OpenShare(ctx context.Context, token, password string) (*models.CompetitiveAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, share := range m.shares {
		if share.Token != token {
			continue
		}
		if share.HasPassword() && share.PasswordHash != "hashed:"+password {
			return nil, apperrors.Unauthenticated("invalid share password", nil)
		}
		a := m.analyses[share.AnalysisID]
		a.Competitors = m.competitors[share.AnalysisID]
		return &a, nil
	}
	return nil, apperrors.NotFound("share link not found", nil)
}

// Mock stream service for testing
type mockStreamService struct {
	mu    sync.Mutex
	last  *wizard.StreamData
	owner map[uuid.UUID]uuid.UUID
	items map[uuid.UUID][]models.StreamItem
}

func newMockStreamService() *mockStreamService {
	return &mockStreamService{
		owner: make(map[uuid.UUID]uuid.UUID),
		items: make(map[uuid.UUID][]models.StreamItem),
	}
}

func (m *mockStreamService) Create(ctx context.Context, user *models.User, data wizard.StreamData) (*models.SubmissionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &data
	if data.Name == "" {
		return nil, apperrors.ValidationError("stream is incomplete", nil).
			WithFields([]apperrors.FieldError{{Field: "basics", Message: "step is incomplete"}})
	}
	id := uuid.New()
	m.owner[id] = user.ID
	return &models.SubmissionResult{ID: id, Created: len(data.Competitors)}, nil
}

func (m *mockStreamService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.Stream, error) {
	return []models.Stream{{ID: uuid.New(), OwnerID: user.ID, Name: "Growth"}}, nil
}

func (m *mockStreamService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Stream, error) {
	items, err := m.Items(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return &models.Stream{ID: id, OwnerID: user.ID, Name: "Growth", Items: items}, nil
}

func (m *mockStreamService) Items(ctx context.Context, user *models.User, streamID uuid.UUID) ([]models.StreamItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owner[streamID]
	if !ok {
		return nil, apperrors.NotFound("stream not found", nil)
	}
	if !user.CanAccess(owner) {
		return nil, apperrors.Forbidden("you do not have access to this resource", nil)
	}
	return append([]models.StreamItem(nil), m.items[streamID]...), nil
}

func (m *mockStreamService) AddItem(ctx context.Context, user *models.User, streamID uuid.UUID, input wizard.CompetitorInput) (*models.StreamItem, error) {
	if _, err := m.Items(ctx, user, streamID); err != nil {
		return nil, err
	}
	if !input.Valid() {
		return nil, apperrors.ValidationError("invalid company", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item := models.StreamItem{ID: uuid.New(), StreamID: streamID, Name: input.Name, Website: input.Website}
	m.items[streamID] = append(m.items[streamID], item)
	return &item, nil
}

// Mock data room service for testing
type mockDataRoomService struct {
	received map[string]string
}

func (m *mockDataRoomService) Upload(ctx context.Context, user *models.User, parts map[string]io.Reader) (*models.UploadResponse, error) {
	m.received = make(map[string]string, len(parts))
	for name, r := range parts {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		m.received[name] = string(b)
	}
	return &models.UploadResponse{UploadID: uuid.New(), RowCounts: models.RowCounts{"subscriptions": 1}}, nil
}

func (m *mockDataRoomService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.DataRoomUpload, error) {
	return []models.DataRoomUpload{}, nil
}

// Mock enrichment runner for testing
type mockEnrichmentService struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.EnrichmentJob
	cancelErr error
}

func newMockEnrichmentService() *mockEnrichmentService {
	return &mockEnrichmentService{jobs: make(map[uuid.UUID]*models.EnrichmentJob)}
}

func (m *mockEnrichmentService) Start(ctx context.Context, user *models.User, domains []string) (*models.EnrichmentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &models.EnrichmentJob{ID: uuid.New(), OwnerID: user.ID, Domains: domains, Total: len(domains), Status: string(models.EnrichmentPending)}
	m.jobs[job.ID] = job
	copied := *job
	return &copied, nil
}

func (m *mockEnrichmentService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.EnrichmentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("enrichment job not found", nil)
	}
	copied := *job
	return &copied, nil
}

func (m *mockEnrichmentService) update(id uuid.UUID, mutate func(*models.EnrichmentJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(m.jobs[id])
}

func (m *mockEnrichmentService) Cancel(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := m.Get(ctx, user, id); err != nil {
		return err
	}
	return m.cancelErr
}

func (m *mockEnrichmentService) Health() enrichment.HealthStatus {
	return enrichment.HealthStatus{IsHealthy: true, TotalRequests: 3, SuccessfulRequests: 3, SuccessRate: 100}
}

func (m *mockEnrichmentService) Running() int { return 0 }
