package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
)

// streamRepository implements StreamRepository
type streamRepository struct {
	db dbExecutor
}

// NewStreamRepository creates a new stream repository
func NewStreamRepository(db dbExecutor) StreamRepository {
	return &streamRepository{db: db}
}

const streamColumns = `id, owner_id, name, description, goal_oriented, status, created_at, updated_at`

func scanStream(row rowScanner) (*models.Stream, error) {
	var s models.Stream
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.GoalOriented, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a stream with its goal, if any
func (r *streamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams WHERE id = $1`

	s, err := scanStream(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("stream %s not found", id), err)
		}
		return nil, apperrors.DatabaseError("failed to get stream", err)
	}

	if !s.GoalOriented {
		return s, nil
	}

	goalQuery := `
		SELECT id, stream_id, template_id, metric, target_value, deadline, created_at
		FROM stream_goals WHERE stream_id = $1
	`
	var g models.StreamGoal
	var deadline sql.NullTime
	err = r.db.QueryRowContext(ctx, goalQuery, id).Scan(
		&g.ID, &g.StreamID, &g.TemplateID, &g.Metric, &g.TargetValue, &deadline, &g.CreatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, apperrors.DatabaseError("failed to get stream goal", err)
	default:
		if deadline.Valid {
			t := deadline.Time
			g.Deadline = &t
		}
		s.Goal = &g
	}
	return s, nil
}

// ListByOwner lists streams newest first
func (r *streamRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.Stream, error) {
	filters = filters.Normalize()
	query := `SELECT ` + streamColumns + `
		FROM streams
		WHERE owner_id = $1 AND ($2 = false OR status = 'active')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, filters.ActiveOnly, filters.Limit, filters.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query streams", err)
	}
	defer rows.Close()

	streams := []models.Stream{}
	for rows.Next() {
		s, err := scanStream(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan stream", err)
		}
		streams = append(streams, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate streams", err)
	}
	return streams, nil
}

// Create inserts the stream row only; goal and items are separate writes
func (r *streamRepository) Create(ctx context.Context, s *models.Stream) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = models.StreamActive
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO streams (` + streamColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.OwnerID, s.Name, s.Description, s.GoalOriented, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to create stream", err)
	}
	return nil
}

// CreateGoal attaches a goal to a stream
func (r *streamRepository) CreateGoal(ctx context.Context, g *models.StreamGoal) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stream_goals (id, stream_id, template_id, metric, target_value, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, g.ID, g.StreamID, g.TemplateID, g.Metric, g.TargetValue, g.Deadline, g.CreatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to create stream goal", err)
	}
	return nil
}

// CreateItem adds a tracked company to a stream
func (r *streamRepository) CreateItem(ctx context.Context, item *models.StreamItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now().UTC()

	query := `INSERT INTO stream_items (id, stream_id, name, website, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, item.ID, item.StreamID, item.Name, item.Website, item.CreatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to create stream item", err)
	}
	return nil
}

// ListItems returns the companies tracked by a stream
func (r *streamRepository) ListItems(ctx context.Context, streamID uuid.UUID) ([]models.StreamItem, error) {
	query := `SELECT id, stream_id, name, website, created_at FROM stream_items WHERE stream_id = $1 ORDER BY created_at, name`

	rows, err := r.db.QueryContext(ctx, query, streamID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query stream items", err)
	}
	defer rows.Close()

	items := []models.StreamItem{}
	for rows.Next() {
		var it models.StreamItem
		if err := rows.Scan(&it.ID, &it.StreamID, &it.Name, &it.Website, &it.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan stream item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate stream items", err)
	}
	return items, nil
}
