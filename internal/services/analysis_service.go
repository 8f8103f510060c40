package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/auth"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// analysisService implements AnalysisService
type analysisService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	logger    logger.Logger
	now       func() time.Time
}

func newAnalysisService(repos *repository.Repositories, publisher realtime.Publisher, log logger.Logger) AnalysisService {
	return &analysisService{
		repos:     repos,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (s *analysisService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.CompetitiveAnalysis, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.repos.Analyses.ListByOwner(ctx, user.ID, filters)
}

// load fetches the analysis row and checks ownership
func (s *analysisService) load(ctx context.Context, user *models.User, id uuid.UUID) (*models.CompetitiveAnalysis, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	a, err := s.repos.Analyses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(user, a.OwnerID); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the analysis with its competitors
func (s *analysisService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.CompetitiveAnalysis, error) {
	a, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	competitors, err := s.repos.Analyses.ListCompetitors(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Competitors = competitors
	return a, nil
}

// AnalysisWizardData maps a create request onto the analysis wizard's form
func AnalysisWizardData(req models.CreateAnalysisRequest) wizard.AnalysisData {
	data := wizard.AnalysisData{
		Name:          req.Name,
		Description:   req.Description,
		TargetName:    req.TargetCompanyName,
		TargetWebsite: req.TargetWebsite,
		Dimensions:    req.Dimensions,
		TermsAccepted: req.TermsAccepted,
	}
	for _, c := range req.Competitors {
		data.Competitors = append(data.Competitors, wizard.CompetitorInput{Name: c.Name, Website: c.Website})
	}
	return data
}

// Create checks the request against every analysis wizard step, then inserts
// the analysis first and its competitors concurrently. A competitor that
// fails to insert is logged and skipped.
func (s *analysisService) Create(ctx context.Context, user *models.User, req models.CreateAnalysisRequest) (*models.SubmissionResult, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	if err := wizard.AnalysisWizard.Validate(AnalysisWizardData(req)); err != nil {
		return nil, err
	}

	a := &models.CompetitiveAnalysis{
		OwnerID:           user.ID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		TargetCompanyName: strings.TrimSpace(req.TargetCompanyName),
		TargetWebsite:     req.TargetWebsite,
		Dimensions:        req.Dimensions,
		Status:            models.AnalysisActive,
	}
	if err := s.repos.Analyses.Create(ctx, a); err != nil {
		s.logger.Error("Failed to create competitive analysis", err, "owner_id", user.ID.String())
		return nil, err
	}

	created, failed := createDependents(ctx, len(req.Competitors), func(ctx context.Context, i int) error {
		c := req.Competitors[i]
		return s.repos.Analyses.CreateCompetitor(ctx, &models.Competitor{
			AnalysisID:  a.ID,
			Name:        strings.TrimSpace(c.Name),
			Website:     c.Website,
			Description: c.Description,
		})
	}, s.logger.With("analysis_id", a.ID.String()), "competitor")

	if created > 0 {
		s.notify(ctx, realtime.TopicCompetitors, a.ID)
	}

	s.logger.Info("Created competitive analysis", "analysis_id", a.ID.String(), "competitors", created, "failed", failed)
	return &models.SubmissionResult{ID: a.ID, Created: created, Failed: failed}, nil
}

func (s *analysisService) AddCompetitor(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CompetitorRequest) (*models.Competitor, error) {
	if _, err := s.load(ctx, user, analysisID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.ValidationError("competitor name is required", nil)
	}

	if req.Moat != nil && !req.Moat.InRange() {
		return nil, apperrors.ValidationError("moat dimensions must be between 0 and 100", nil)
	}

	c := &models.Competitor{
		AnalysisID:  analysisID,
		Name:        strings.TrimSpace(req.Name),
		Website:     req.Website,
		Description: req.Description,
	}
	if req.Moat == nil {
		if err := s.repos.Analyses.CreateCompetitor(ctx, c); err != nil {
			return nil, err
		}
		s.notify(ctx, realtime.TopicCompetitors, analysisID)
		return c, nil
	}

	// a scored competitor and its first snapshot land together
	score := req.Moat.Score()
	c.MoatScore = &score
	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Analyses.CreateCompetitor(ctx, c); err != nil {
			return err
		}
		return repos.Analyses.CreateSnapshot(ctx, &models.MoatScoreSnapshot{
			AnalysisID:   analysisID,
			CompetitorID: c.ID,
			Score:        score,
			Dimensions:   *req.Moat,
			CapturedAt:   s.now(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to create scored competitor", err, "analysis_id", analysisID.String())
		return nil, err
	}

	s.notify(ctx, realtime.TopicCompetitors, analysisID)
	s.notify(ctx, realtime.TopicMoatSnapshots, analysisID)
	return c, nil
}

// Competitors is the refetch used by the live competitor feed
func (s *analysisService) Competitors(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.Competitor, error) {
	if _, err := s.load(ctx, user, analysisID); err != nil {
		return nil, err
	}
	return s.repos.Analyses.ListCompetitors(ctx, analysisID)
}

// Trends summarises moat-score history over the trailing window
func (s *analysisService) Trends(ctx context.Context, user *models.User, analysisID uuid.UUID, window time.Duration) (*TrendReport, error) {
	if _, err := s.load(ctx, user, analysisID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultTrendWindow
	}

	competitors, err := s.repos.Analyses.ListCompetitors(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.repos.Analyses.ListSnapshots(ctx, analysisID, s.now().Add(-window))
	if err != nil {
		return nil, err
	}

	report := BuildTrendReport(analysisID, competitors, snapshots)
	report.Window = window.String()
	return report, nil
}

// CreateShare issues a public link. A password, when given, is stored as a
// bcrypt hash.
func (s *analysisService) CreateShare(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CreateShareRequest) (*models.AnalysisShare, error) {
	if _, err := s.load(ctx, user, analysisID); err != nil {
		return nil, err
	}

	token, err := auth.GenerateShareToken()
	if err != nil {
		return nil, apperrors.InternalError("failed to create share link", err)
	}

	share := &models.AnalysisShare{
		AnalysisID: analysisID,
		Token:      token,
		CreatedBy:  user.ID,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, apperrors.InternalError("failed to create share link", err)
		}
		share.PasswordHash = hash
	}
	if req.ExpiresInHours > 0 {
		expires := s.now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		share.ExpiresAt = &expires
	}

	if err := s.repos.Shares.Create(ctx, share); err != nil {
		return nil, err
	}
	s.logger.Info("Created analysis share", "analysis_id", analysisID.String(), "protected", share.HasPassword())
	return share, nil
}

func (s *analysisService) ListShares(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.AnalysisShare, error) {
	if _, err := s.load(ctx, user, analysisID); err != nil {
		return nil, err
	}
	return s.repos.Shares.ListByAnalysis(ctx, analysisID)
}

// OpenShare resolves a public share link to a read-only analysis. Unknown
// and expired links are indistinguishable to the caller.
func (s *analysisService) OpenShare(ctx context.Context, token, password string) (*models.CompetitiveAnalysis, error) {
	share, err := s.repos.Shares.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.IsExpired(s.now()) {
		return nil, apperrors.NotFound("share link not found", nil)
	}
	if share.HasPassword() && !auth.CheckPassword(password, share.PasswordHash) {
		return nil, apperrors.Unauthenticated("invalid share password", nil)
	}

	a, err := s.repos.Analyses.GetByID(ctx, share.AnalysisID)
	if err != nil {
		return nil, err
	}
	competitors, err := s.repos.Analyses.ListCompetitors(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Competitors = competitors
	return a, nil
}

func (s *analysisService) notify(ctx context.Context, topic realtime.Topic, parentID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Notify(ctx, topic, parentID.String()); err != nil {
		s.logger.Warn("change notification not published", "topic", string(topic), "parent_id", parentID.String(), "error", err.Error())
	}
}
