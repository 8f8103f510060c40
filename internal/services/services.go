package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/scoring"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// Services contains all application services
type Services struct {
	Profiles ProfileService
	Analyses AnalysisService
	Streams  StreamService
	DataRoom DataRoomService
}

// ProfileService defines the interface for ideal target profile business logic
type ProfileService interface {
	List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]scoring.IdealTargetProfile, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*scoring.IdealTargetProfile, error)
	Create(ctx context.Context, user *models.User, profile scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, profile scoring.IdealTargetProfile) (*scoring.IdealTargetProfile, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	Match(ctx context.Context, user *models.User, id uuid.UUID, candidates []scoring.Candidate) ([]scoring.MatchResult, error)
}

// AnalysisService defines the interface for competitive analysis business logic
type AnalysisService interface {
	List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.CompetitiveAnalysis, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.CompetitiveAnalysis, error)
	Create(ctx context.Context, user *models.User, req models.CreateAnalysisRequest) (*models.SubmissionResult, error)
	AddCompetitor(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CompetitorRequest) (*models.Competitor, error)
	Competitors(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.Competitor, error)
	Trends(ctx context.Context, user *models.User, analysisID uuid.UUID, window time.Duration) (*TrendReport, error)
	CreateShare(ctx context.Context, user *models.User, analysisID uuid.UUID, req models.CreateShareRequest) (*models.AnalysisShare, error)
	ListShares(ctx context.Context, user *models.User, analysisID uuid.UUID) ([]models.AnalysisShare, error)
	OpenShare(ctx context.Context, token, password string) (*models.CompetitiveAnalysis, error)
}

// StreamService defines the interface for stream business logic
type StreamService interface {
	Create(ctx context.Context, user *models.User, data wizard.StreamData) (*models.SubmissionResult, error)
	List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.Stream, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Stream, error)
	Items(ctx context.Context, user *models.User, streamID uuid.UUID) ([]models.StreamItem, error)
	AddItem(ctx context.Context, user *models.User, streamID uuid.UUID, input wizard.CompetitorInput) (*models.StreamItem, error)
}

// DataRoomService defines the interface for financial upload handling
type DataRoomService interface {
	Upload(ctx context.Context, user *models.User, parts map[string]io.Reader) (*models.UploadResponse, error)
	List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.DataRoomUpload, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(repos *repository.Repositories, publisher realtime.Publisher, log logger.Logger) *Services {
	if log == nil {
		log = logger.NewNop()
	}
	return &Services{
		Profiles: newProfileService(repos, log.With("service", "profiles")),
		Analyses: newAnalysisService(repos, publisher, log.With("service", "analyses")),
		Streams:  newStreamService(repos, publisher, log.With("service", "streams")),
		DataRoom: newDataRoomService(repos, log.With("service", "data_room")),
	}
}
