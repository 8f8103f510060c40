package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/scoring"
)

// ProfileRepository defines the interface for ideal target profile access
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*scoring.IdealTargetProfile, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]scoring.IdealTargetProfile, error)
	Create(ctx context.Context, profile *scoring.IdealTargetProfile) error
	Update(ctx context.Context, profile *scoring.IdealTargetProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalysisRepository defines the interface for competitive analysis access
type AnalysisRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CompetitiveAnalysis, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.CompetitiveAnalysis, error)
	Create(ctx context.Context, analysis *models.CompetitiveAnalysis) error

	// Competitors and moat history
	ListCompetitors(ctx context.Context, analysisID uuid.UUID) ([]models.Competitor, error)
	CreateCompetitor(ctx context.Context, competitor *models.Competitor) error
	ListSnapshots(ctx context.Context, analysisID uuid.UUID, since time.Time) ([]models.MoatScoreSnapshot, error)
	CreateSnapshot(ctx context.Context, snapshot *models.MoatScoreSnapshot) error
}

// ShareRepository defines the interface for analysis share links
type ShareRepository interface {
	Create(ctx context.Context, share *models.AnalysisShare) error
	ListByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.AnalysisShare, error)
	GetByToken(ctx context.Context, token string) (*models.AnalysisShare, error)
}

// StreamRepository defines the interface for stream access
type StreamRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.Stream, error)
	Create(ctx context.Context, stream *models.Stream) error
	CreateGoal(ctx context.Context, goal *models.StreamGoal) error
	CreateItem(ctx context.Context, item *models.StreamItem) error
	ListItems(ctx context.Context, streamID uuid.UUID) ([]models.StreamItem, error)
}

// EnrichmentRepository defines the interface for enrichment job access
type EnrichmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EnrichmentJob, error)
	Create(ctx context.Context, job *models.EnrichmentJob) error
	UpdateProgress(ctx context.Context, job *models.EnrichmentJob) error
}

// DataRoomRepository defines the interface for data room upload records
type DataRoomRepository interface {
	Create(ctx context.Context, upload *models.DataRoomUpload) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.DataRoomUpload, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Profiles   ProfileRepository
	Analyses   AnalysisRepository
	Shares     ShareRepository
	Streams    StreamRepository
	Enrichment EnrichmentRepository
	DataRoom   DataRoomRepository
	Tx         TransactionManager
}

// ListFilters pages owner-scoped listings
type ListFilters struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Normalize applies the default and maximum page size
func (f ListFilters) Normalize() ListFilters {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
