package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/scoring"
)

// profileRepository implements ProfileRepository
type profileRepository struct {
	db dbExecutor
}

// NewProfileRepository creates a new ideal target profile repository
func NewProfileRepository(db dbExecutor) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, owner_id, name, description, criteria, scoring_weights, min_match_score,
		auto_tag, auto_add_to_list_id, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*scoring.IdealTargetProfile, error) {
	var p scoring.IdealTargetProfile
	var criteriaJSON, weightsJSON []byte
	var listID uuid.NullUUID

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &criteriaJSON, &weightsJSON, &p.MinMatchScore,
		&p.AutoTag, &listID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(criteriaJSON, &p.Criteria); err != nil {
		return nil, fmt.Errorf("failed to decode criteria for profile %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(weightsJSON, &p.ScoringWeights); err != nil {
		return nil, fmt.Errorf("failed to decode scoring weights for profile %s: %w", p.ID, err)
	}
	if listID.Valid {
		id := listID.UUID
		p.AutoAddToListID = &id
	}
	return &p, nil
}

// GetByID retrieves a profile by ID
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*scoring.IdealTargetProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM ideal_target_profiles WHERE id = $1`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("ideal target profile %s not found", id), err)
		}
		return nil, apperrors.DatabaseError("failed to get ideal target profile", err)
	}
	return p, nil
}

// ListByOwner lists profiles newest first
func (r *profileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]scoring.IdealTargetProfile, error) {
	filters = filters.Normalize()
	query := `SELECT ` + profileColumns + `
		FROM ideal_target_profiles
		WHERE owner_id = $1 AND ($2 = false OR is_active = true)
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, filters.ActiveOnly, filters.Limit, filters.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query ideal target profiles", err)
	}
	defer rows.Close()

	profiles := []scoring.IdealTargetProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan ideal target profile", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate ideal target profiles", err)
	}

	return profiles, nil
}

func encodeProfile(p *scoring.IdealTargetProfile) (criteria, weights []byte, err error) {
	criteria, err = json.Marshal(p.Criteria)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal criteria: %w", err)
	}
	weights, err = json.Marshal(p.ScoringWeights)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal scoring weights: %w", err)
	}
	return criteria, weights, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// Create inserts a new profile
func (r *profileRepository) Create(ctx context.Context, p *scoring.IdealTargetProfile) error {
	criteriaJSON, weightsJSON, err := encodeProfile(p)
	if err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO ideal_target_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Name, p.Description, criteriaJSON, weightsJSON, p.MinMatchScore,
		p.AutoTag, nullableUUID(p.AutoAddToListID), p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to create ideal target profile", err)
	}

	return nil
}

// Update replaces the editable fields of a profile
func (r *profileRepository) Update(ctx context.Context, p *scoring.IdealTargetProfile) error {
	criteriaJSON, weightsJSON, err := encodeProfile(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE ideal_target_profiles
		SET name = $2, description = $3, criteria = $4, scoring_weights = $5, min_match_score = $6,
			auto_tag = $7, auto_add_to_list_id = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`

	p.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, criteriaJSON, weightsJSON, p.MinMatchScore,
		p.AutoTag, nullableUUID(p.AutoAddToListID), p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to update ideal target profile", err)
	}

	return expectOne(result, apperrors.NotFound(fmt.Sprintf("ideal target profile %s not found", p.ID), nil))
}

// Delete soft deletes a profile
func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE ideal_target_profiles
		SET is_active = false, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return apperrors.DatabaseError("failed to delete ideal target profile", err)
	}

	return expectOne(result, apperrors.NotFound(fmt.Sprintf("ideal target profile %s not found", id), nil))
}
