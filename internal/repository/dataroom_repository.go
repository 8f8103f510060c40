package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
)

// dataRoomRepository implements DataRoomRepository
type dataRoomRepository struct {
	db dbExecutor
}

// NewDataRoomRepository creates a new data room upload repository
func NewDataRoomRepository(db dbExecutor) DataRoomRepository {
	return &dataRoomRepository{db: db}
}

func (r *dataRoomRepository) Create(ctx context.Context, u *models.DataRoomUpload) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.RowCounts == nil {
		u.RowCounts = models.RowCounts{}
	}
	u.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO data_room_uploads (id, owner_id, row_counts, start_date, end_date, error_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.OwnerID, u.RowCounts, u.StartDate, u.EndDate, u.ErrorCount, u.CreatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to record data room upload", err)
	}
	return nil
}

func (r *dataRoomRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.DataRoomUpload, error) {
	filters = filters.Normalize()
	query := `
		SELECT id, owner_id, row_counts, start_date, end_date, error_count, created_at
		FROM data_room_uploads
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, filters.Limit, filters.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query data room uploads", err)
	}
	defer rows.Close()

	uploads := []models.DataRoomUpload{}
	for rows.Next() {
		var u models.DataRoomUpload
		var start, end sql.NullTime
		if err := rows.Scan(&u.ID, &u.OwnerID, &u.RowCounts, &start, &end, &u.ErrorCount, &u.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan data room upload", err)
		}
		if start.Valid {
			t := start.Time
			u.StartDate = &t
		}
		if end.Valid {
			t := end.Time
			u.EndDate = &t
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate data room uploads", err)
	}
	return uploads, nil
}
