package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/scoring"
)

// maxMatchCandidates caps one ranking request
const maxMatchCandidates = 1000

// profileService implements ProfileService
type profileService struct {
	repos  *repository.Repositories
	engine *scoring.MatchEngine
	logger logger.Logger
}

func newProfileService(repos *repository.Repositories, log logger.Logger) ProfileService {
	return &profileService{
		repos:  repos,
		engine: scoring.NewMatchEngine(),
		logger: log,
	}
}

// profileValidationError converts a failed report into a 400 with field issues
func profileValidationError(report scoring.ProfileReport) error {
	fields := make([]apperrors.FieldError, len(report.Issues))
	msgs := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		fields[i] = apperrors.FieldError{Field: issue.Field, Message: issue.Message}
		msgs[i] = issue.Message
	}
	return apperrors.ValidationError("invalid ideal target profile", nil).
		WithDetails(strings.Join(msgs, "; ")).
		WithFields(fields)
}

func (s *profileService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]scoring.IdealTargetProfile, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.repos.Profiles.ListByOwner(ctx, user.ID, filters)
}

func (s *profileService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*scoring.IdealTargetProfile, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	p, err := s.repos.Profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(user, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

// Create saves a new profile. Weights that drift from a sum of 1 are
// accepted as-is; only out-of-range weights are rejected.
func (s *profileService) Create(ctx context.Context, user *models.User, p scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if p.ScoringWeights == nil {
		p.ScoringWeights = scoring.DefaultWeights()
	}
	p.Name = strings.TrimSpace(p.Name)

	report := p.Check()
	if !report.Valid {
		return nil, profileValidationError(report)
	}

	p.ID = uuid.Nil
	p.OwnerID = user.ID
	p.IsActive = true
	if err := s.repos.Profiles.Create(ctx, &p); err != nil {
		s.logger.Error("Failed to create ideal target profile", err, "owner_id", user.ID.String())
		return nil, err
	}

	s.logger.Info("Created ideal target profile",
		"profile_id", p.ID.String(),
		"active_filters", report.ActiveFilters,
		"needs_normalization", report.Weights.NeedsNormalization,
	)
	return &p, nil
}

func (s *profileService) Update(ctx context.Context, user *models.User, id uuid.UUID, p scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error) {
	existing, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if p.ScoringWeights == nil {
		p.ScoringWeights = existing.ScoringWeights
	}
	p.Name = strings.TrimSpace(p.Name)
	report := p.Check()
	if !report.Valid {
		return nil, profileValidationError(report)
	}

	p.ID = existing.ID
	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	p.IsActive = existing.IsActive
	if err := s.repos.Profiles.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *profileService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	return s.repos.Profiles.Delete(ctx, id)
}

// Match ranks candidates against a saved profile
func (s *profileService) Match(ctx context.Context, user *models.User, id uuid.UUID, candidates []scoring.Candidate) ([]scoring.MatchResult, error) {
	if len(candidates) > maxMatchCandidates {
		return nil, apperrors.InvalidInput("too many candidates", nil).
			WithDetails("at most 1000 candidates per request")
	}

	var fields []apperrors.FieldError
	for i, c := range candidates {
		for _, category := range scoring.OutOfRangeSubScores(c.SubScores) {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("candidates[%d].subScores.%s", i, category),
				Message: "must be between 0 and 1",
			})
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.ValidationError("sub-scores out of range", nil).WithFields(fields)
	}

	p, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperrors.Conflict("ideal target profile is inactive", nil)
	}

	results := s.engine.Rank(*p, candidates)
	s.logger.Debug("Ranked candidates", "profile_id", id.String(), "candidates", len(candidates), "qualified", len(results))
	return results, nil
}
