package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
)

// analysisRepository implements AnalysisRepository
type analysisRepository struct {
	db dbExecutor
}

// NewAnalysisRepository creates a new competitive analysis repository
func NewAnalysisRepository(db dbExecutor) AnalysisRepository {
	return &analysisRepository{db: db}
}

const analysisColumns = `id, owner_id, name, description, target_company_name, target_website,
		dimensions, status, created_at, updated_at`

func scanAnalysis(row rowScanner) (*models.CompetitiveAnalysis, error) {
	var a models.CompetitiveAnalysis
	var dimensions pq.StringArray
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.TargetCompanyName, &a.TargetWebsite,
		&dimensions, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Dimensions = []string(dimensions)
	if a.Dimensions == nil {
		a.Dimensions = []string{}
	}
	return &a, nil
}

// GetByID retrieves an analysis by ID without its competitors
func (r *analysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CompetitiveAnalysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM competitive_analyses WHERE id = $1`

	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("competitive analysis %s not found", id), err)
		}
		return nil, apperrors.DatabaseError("failed to get competitive analysis", err)
	}
	return a, nil
}

// ListByOwner lists analyses newest first
func (r *analysisRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.CompetitiveAnalysis, error) {
	filters = filters.Normalize()
	query := `SELECT ` + analysisColumns + `
		FROM competitive_analyses
		WHERE owner_id = $1 AND ($2 = false OR status = 'active')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, filters.ActiveOnly, filters.Limit, filters.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query competitive analyses", err)
	}
	defer rows.Close()

	analyses := []models.CompetitiveAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan competitive analysis", err)
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate competitive analyses", err)
	}
	return analyses, nil
}

// Create inserts a new analysis
func (r *analysisRepository) Create(ctx context.Context, a *models.CompetitiveAnalysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AnalysisActive
	}
	if a.Dimensions == nil {
		a.Dimensions = []string{}
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO competitive_analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Name, a.Description, a.TargetCompanyName, a.TargetWebsite,
		pq.Array(a.Dimensions), a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to create competitive analysis", err)
	}
	return nil
}

// ListCompetitors returns every competitor of an analysis in creation order
func (r *analysisRepository) ListCompetitors(ctx context.Context, analysisID uuid.UUID) ([]models.Competitor, error) {
	query := `
		SELECT id, analysis_id, name, website, description, moat_score, created_at
		FROM competitors
		WHERE analysis_id = $1
		ORDER BY created_at, name
	`

	rows, err := r.db.QueryContext(ctx, query, analysisID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query competitors", err)
	}
	defer rows.Close()

	competitors := []models.Competitor{}
	for rows.Next() {
		var c models.Competitor
		var moat sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.AnalysisID, &c.Name, &c.Website, &c.Description, &moat, &c.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan competitor", err)
		}
		if moat.Valid {
			score := moat.Float64
			c.MoatScore = &score
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate competitors", err)
	}
	return competitors, nil
}

// CreateCompetitor inserts a competitor under an existing analysis
func (r *analysisRepository) CreateCompetitor(ctx context.Context, c *models.Competitor) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO competitors (id, analysis_id, name, website, description, moat_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.AnalysisID, c.Name, c.Website, c.Description, c.MoatScore, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return apperrors.NotFound(fmt.Sprintf("competitive analysis %s not found", c.AnalysisID), err)
		}
		return apperrors.DatabaseError("failed to create competitor", err)
	}
	return nil
}

// ListSnapshots returns moat snapshots captured at or after since, oldest first
func (r *analysisRepository) ListSnapshots(ctx context.Context, analysisID uuid.UUID, since time.Time) ([]models.MoatScoreSnapshot, error) {
	query := `
		SELECT id, analysis_id, competitor_id, score, dimensions, captured_at
		FROM moat_score_snapshots
		WHERE analysis_id = $1 AND captured_at >= $2
		ORDER BY captured_at
	`

	rows, err := r.db.QueryContext(ctx, query, analysisID, since)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query moat snapshots", err)
	}
	defer rows.Close()

	snapshots := []models.MoatScoreSnapshot{}
	for rows.Next() {
		var s models.MoatScoreSnapshot
		if err := rows.Scan(&s.ID, &s.AnalysisID, &s.CompetitorID, &s.Score, &s.Dimensions, &s.CapturedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan moat snapshot", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate moat snapshots", err)
	}
	return snapshots, nil
}

// CreateSnapshot records a moat score
func (r *analysisRepository) CreateSnapshot(ctx context.Context, s *models.MoatScoreSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CapturedAt.IsZero() {
		s.CapturedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO moat_score_snapshots (id, analysis_id, competitor_id, score, dimensions, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.AnalysisID, s.CompetitorID, s.Score, s.Dimensions, s.CapturedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to create moat snapshot", err)
	}
	return nil
}
