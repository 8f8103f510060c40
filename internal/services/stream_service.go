package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// streamService implements StreamService
type streamService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	logger    logger.Logger
}

func newStreamService(repos *repository.Repositories, publisher realtime.Publisher, log logger.Logger) StreamService {
	return &streamService{repos: repos, publisher: publisher, logger: log}
}

// Create submits a completed stream wizard. The data is re-checked against
// the wizard's own gates; the stream row is written first, then the goal and
// tracked competitors concurrently.
func (s *streamService) Create(ctx context.Context, user *models.User, data wizard.StreamData) (*models.SubmissionResult, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	if err := wizard.StreamWizard.Validate(data); err != nil {
		return nil, err
	}

	stream := &models.Stream{
		OwnerID:      user.ID,
		Name:         strings.TrimSpace(data.Name),
		Description:  data.Description,
		GoalOriented: data.GoalOriented,
		Status:       models.StreamActive,
	}
	if err := s.repos.Streams.Create(ctx, stream); err != nil {
		s.logger.Error("Failed to create stream", err, "owner_id", user.ID.String())
		return nil, err
	}

	var jobs []func(context.Context) error
	if data.GoalOriented && data.TargetValue != nil {
		jobs = append(jobs, func(ctx context.Context) error {
			return s.repos.Streams.CreateGoal(ctx, &models.StreamGoal{
				StreamID:    stream.ID,
				TemplateID:  data.GoalTemplateID,
				Metric:      data.GoalMetric,
				TargetValue: *data.TargetValue,
				Deadline:    data.Deadline,
			})
		})
	}
	if data.GoalOriented {
		for _, c := range data.Competitors {
			c := c
			jobs = append(jobs, func(ctx context.Context) error {
				return s.repos.Streams.CreateItem(ctx, &models.StreamItem{
					StreamID: stream.ID,
					Name:     strings.TrimSpace(c.Name),
					Website:  c.Website,
				})
			})
		}
	}

	created, failed := createDependents(ctx, len(jobs), func(ctx context.Context, i int) error {
		return jobs[i](ctx)
	}, s.logger.With("stream_id", stream.ID.String()), "stream dependent")

	if created > 0 {
		s.notify(ctx, stream.ID)
	}

	s.logger.Info("Created stream", "stream_id", stream.ID.String(), "goal_oriented", stream.GoalOriented, "dependents", created, "failed", failed)
	return &models.SubmissionResult{ID: stream.ID, Created: created, Failed: failed}, nil
}

// load fetches the stream row and checks ownership
func (s *streamService) load(ctx context.Context, user *models.User, id uuid.UUID) (*models.Stream, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	stream, err := s.repos.Streams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(user, stream.OwnerID); err != nil {
		return nil, err
	}
	return stream, nil
}

// Get returns the stream with its tracked companies
func (s *streamService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Stream, error) {
	stream, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Streams.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	stream.Items = items
	return stream, nil
}

// Items is the refetch used by the live stream item feed
func (s *streamService) Items(ctx context.Context, user *models.User, streamID uuid.UUID) ([]models.StreamItem, error) {
	if _, err := s.load(ctx, user, streamID); err != nil {
		return nil, err
	}
	return s.repos.Streams.ListItems(ctx, streamID)
}

// AddItem starts tracking another company on an existing stream
func (s *streamService) AddItem(ctx context.Context, user *models.User, streamID uuid.UUID, input wizard.CompetitorInput) (*models.StreamItem, error) {
	if _, err := s.load(ctx, user, streamID); err != nil {
		return nil, err
	}
	if !input.Valid() {
		return nil, apperrors.ValidationError("invalid company", nil).
			WithFields([]apperrors.FieldError{{Field: "name", Message: "a name and an optional valid website are required"}})
	}

	items, err := s.repos.Streams.ListItems(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if len(items) >= wizard.MaxCompetitors {
		return nil, apperrors.Conflict(fmt.Sprintf("a stream tracks at most %d companies", wizard.MaxCompetitors), nil)
	}

	item := &models.StreamItem{
		StreamID: streamID,
		Name:     strings.TrimSpace(input.Name),
		Website:  input.Website,
	}
	if err := s.repos.Streams.CreateItem(ctx, item); err != nil {
		s.logger.Error("Failed to create stream item", err, "stream_id", streamID.String())
		return nil, err
	}
	s.notify(ctx, streamID)
	return item, nil
}

func (s *streamService) notify(ctx context.Context, streamID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Notify(ctx, realtime.TopicStreamItems, streamID.String()); err != nil {
		s.logger.Warn("change notification not published", "stream_id", streamID.String(), "error", err.Error())
	}
}

func (s *streamService) List(ctx context.Context, user *models.User, filters repository.ListFilters) ([]models.Stream, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.repos.Streams.ListByOwner(ctx, user.ID, filters)
}
