package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
)

// shareRepository implements ShareRepository
type shareRepository struct {
	db dbExecutor
}

// NewShareRepository creates a new analysis share repository
func NewShareRepository(db dbExecutor) ShareRepository {
	return &shareRepository{db: db}
}

const shareColumns = `id, analysis_id, token, password_hash, expires_at, created_by, created_at`

func scanShare(row rowScanner) (*models.AnalysisShare, error) {
	var s models.AnalysisShare
	var expires sql.NullTime
	if err := row.Scan(&s.ID, &s.AnalysisID, &s.Token, &s.PasswordHash, &expires, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		s.ExpiresAt = &t
	}
	return &s, nil
}

func (r *shareRepository) Create(ctx context.Context, s *models.AnalysisShare) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()

	query := `INSERT INTO analysis_shares (` + shareColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.AnalysisID, s.Token, s.PasswordHash, s.ExpiresAt, s.CreatedBy, s.CreatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to create analysis share", err)
	}
	return nil
}

func (r *shareRepository) ListByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.AnalysisShare, error) {
	query := `SELECT ` + shareColumns + ` FROM analysis_shares WHERE analysis_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, analysisID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query analysis shares", err)
	}
	defer rows.Close()

	shares := []models.AnalysisShare{}
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan analysis share", err)
		}
		shares = append(shares, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate analysis shares", err)
	}
	return shares, nil
}

func (r *shareRepository) GetByToken(ctx context.Context, token string) (*models.AnalysisShare, error) {
	query := `SELECT ` + shareColumns + ` FROM analysis_shares WHERE token = $1`

	s, err := scanShare(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("share link not found", err)
		}
		return nil, apperrors.DatabaseError("failed to get analysis share", err)
	}
	return s, nil
}
