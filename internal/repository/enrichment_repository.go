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

// enrichmentRepository implements EnrichmentRepository
type enrichmentRepository struct {
	db dbExecutor
}

// NewEnrichmentRepository creates a new enrichment job repository
func NewEnrichmentRepository(db dbExecutor) EnrichmentRepository {
	return &enrichmentRepository{db: db}
}

// GetByID retrieves a job with its results
func (r *enrichmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EnrichmentJob, error) {
	query := `
		SELECT id, owner_id, status, domains, total, completed, failed, results, created_at, updated_at, finished_at
		FROM enrichment_jobs WHERE id = $1
	`

	var j models.EnrichmentJob
	var domains pq.StringArray
	var finished sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.OwnerID, &j.Status, &domains, &j.Total, &j.Completed, &j.Failed,
		&j.Results, &j.CreatedAt, &j.UpdatedAt, &finished,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("enrichment job %s not found", id), err)
		}
		return nil, apperrors.DatabaseError("failed to get enrichment job", err)
	}

	j.Domains = []string(domains)
	if finished.Valid {
		t := finished.Time
		j.FinishedAt = &t
	}
	return &j, nil
}

// Create inserts a pending job
func (r *enrichmentRepository) Create(ctx context.Context, j *models.EnrichmentJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = string(models.EnrichmentPending)
	}
	if j.Results == nil {
		j.Results = models.EnrichmentResults{}
	}
	j.Total = len(j.Domains)
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now

	query := `
		INSERT INTO enrichment_jobs (id, owner_id, status, domains, total, completed, failed, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.OwnerID, j.Status, pq.Array(j.Domains), j.Total, j.Completed, j.Failed,
		j.Results, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to create enrichment job", err)
	}
	return nil
}

// UpdateProgress stores status, counters and results
func (r *enrichmentRepository) UpdateProgress(ctx context.Context, j *models.EnrichmentJob) error {
	j.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE enrichment_jobs
		SET status = $2, completed = $3, failed = $4, results = $5, updated_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, j.ID, j.Status, j.Completed, j.Failed, j.Results, j.UpdatedAt, j.FinishedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to update enrichment job", err)
	}
	return expectOne(result, apperrors.NotFound(fmt.Sprintf("enrichment job %s not found", j.ID), nil))
}
