package services

import (
	"context"
	"io"
	"sort"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/repository"
)

// dataRoomService implements DataRoomService
type dataRoomService struct {
	repos  *repository.Repositories
	logger logger.Logger
}

func newDataRoomService(repos *repository.Repositories, log logger.Logger) DataRoomService {
	return &dataRoomService{repos: repos, logger: log}
}

func isUploadCategory(name string) bool {
	for _, c := range models.UploadCategories {
		if c == name {
			return true
		}
	}
	return false
}

// Upload parses every recognised part, records the upload and reports row
// problems alongside the upload id. Rows with problems are skipped, not fatal.
func (s *dataRoomService) Upload(ctx context.Context, user *models.User, parts map[string]io.Reader) (*models.UploadResponse, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	resp := &models.UploadResponse{RowCounts: models.RowCounts{}, Errors: []models.UploadError{}}
	recognised := 0

	// fixed order keeps error output stable
	for _, category := range models.UploadCategories {
		r, ok := parts[category]
		if !ok {
			continue
		}
		recognised++

		parsed, err := ParseCategory(category, r)
		if err != nil {
			return nil, apperrors.ValidationError("could not read "+category+" file", err).
				WithFields([]apperrors.FieldError{{Field: category, Message: err.Error()}})
		}

		resp.RowCounts[category] = parsed.Accepted
		resp.Errors = append(resp.Errors, parsed.Errors...)
		if parsed.First != nil && (resp.DateRange.Start == nil || parsed.First.Before(*resp.DateRange.Start)) {
			resp.DateRange.Start = parsed.First
		}
		if parsed.Last != nil && (resp.DateRange.End == nil || parsed.Last.After(*resp.DateRange.End)) {
			resp.DateRange.End = parsed.Last
		}
		s.logger.Debug("Parsed data room file", "category", category, "rows", parsed.Accepted, "errors", len(parsed.Errors), "total", parsed.Total.String())
	}

	var unknown []string
	for name := range parts {
		if !isUploadCategory(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		resp.Errors = append(resp.Errors, models.UploadError{Row: 0, Field: name, Message: "unrecognized file category"})
	}

	if recognised == 0 {
		return nil, apperrors.ValidationError("no recognised files in upload", nil).
			WithDetails("expected one of subscriptions, invoices, payments, cogs, sales_marketing")
	}

	upload := &models.DataRoomUpload{
		OwnerID:    user.ID,
		RowCounts:  resp.RowCounts,
		StartDate:  resp.DateRange.Start,
		EndDate:    resp.DateRange.End,
		ErrorCount: len(resp.Errors),
	}
	if err := s.repos.DataRoom.Create(ctx, upload); err != nil {
		s.logger.Error("Failed to record data room upload", err, "owner_id", user.ID.String())
		return nil, err
	}

	resp.UploadID = upload.ID
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	s.logger.Info("Recorded data room upload", "upload_id", upload.ID.String(), "errors", upload.ErrorCount)
	return resp, nil
}

func (s *dataRoomService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.DataRoomUpload, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.repos.DataRoom.ListByOwner(ctx, user.ID, filters)
}
