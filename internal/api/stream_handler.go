package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/dealscope/internal/drafts"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/services"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// StreamHandler handles stream submission and listing
type StreamHandler struct {
	streams    services.StreamService
	drafts     drafts.Store
	subscriber realtime.Subscriber
	logger     logger.Logger
}

// NewStreamHandler creates a new stream handler. store may be nil, in which
// case no draft is cleared on submit; subscriber may be nil, in which case
// the events route is not served.
func NewStreamHandler(streams services.StreamService, store drafts.Store, subscriber realtime.Subscriber, log logger.Logger) *StreamHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &StreamHandler{streams: streams, drafts: store, subscriber: subscriber, logger: log}
}

// Create submits a completed stream wizard and clears the caller's draft
func (h *StreamHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var data wizard.StreamData
	if !bindJSON(c, &data) {
		return
	}

	var result *models.SubmissionResult
	err := wizard.Submit(c.Request.Context(), wizard.StreamWizard, h.drafts, user.ID.String(), data, h.logger,
		func(ctx context.Context, data wizard.StreamData) error {
			var err error
			result, err = h.streams.Create(ctx, user, data)
			return err
		})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List returns the caller's streams
func (h *StreamHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	streams, err := h.streams.List(c.Request.Context(), user, listFilters(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streams": streams})
}

// Get returns one stream with its tracked companies
func (h *StreamHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stream, err := h.streams.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": stream})
}

// AddItem tracks another company on a stream
func (h *StreamHandler) AddItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input wizard.CompetitorInput
	if !bindJSON(c, &input) {
		return
	}

	item, err := h.streams.AddItem(c.Request.Context(), user, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Events streams the tracked company list as server-sent events
func (h *StreamHandler) Events(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if h.subscriber == nil {
		respondError(c, apperrors.ServiceError("Realtime updates are not available", nil))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.streams.Items(ctx, user, id); err != nil {
		respondError(c, err)
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	fetch := func(ctx context.Context) ([]models.StreamItem, error) {
		return h.streams.Items(ctx, user, id)
	}
	deliver := func(items []models.StreamItem) {
		if items == nil {
			items = []models.StreamItem{}
		}
		sseWrite(c.Writer, "items", items)
		c.Writer.Flush()
	}

	log := h.logger.With("stream_id", id.String())
	if err := realtime.Watch(ctx, h.subscriber, realtime.TopicStreamItems, id.String(), fetch, deliver, log); err != nil {
		log.Warn("stream item subscription failed", "error", err.Error())
		sseWrite(c.Writer, "error", gin.H{"error": "subscription failed"})
		c.Writer.Flush()
	}
}
