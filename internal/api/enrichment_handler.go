package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/enrichment"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
)

// EnrichmentService is the part of the enrichment runner the API needs
type EnrichmentService interface {
	Start(ctx context.Context, user *models.User, domains []string) (*models.EnrichmentJob, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.EnrichmentJob, error)
	Cancel(ctx context.Context, user *models.User, id uuid.UUID) error
	Health() enrichment.HealthStatus
	Running() int
}

// EnrichmentHandler handles website enrichment jobs
type EnrichmentHandler struct {
	service    EnrichmentService
	subscriber realtime.Subscriber
	logger     logger.Logger
}

// NewEnrichmentHandler creates a new enrichment handler. subscriber may be
// nil, in which case the events route is not served.
func NewEnrichmentHandler(service EnrichmentService, subscriber realtime.Subscriber, log logger.Logger) *EnrichmentHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &EnrichmentHandler{service: service, subscriber: subscriber, logger: log}
}

// Start queues a job for the given domains and returns 202 with the job
func (h *EnrichmentHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateEnrichmentRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := h.service.Start(c.Request.Context(), user, req.Domains)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Enrichment job queued",
		"job":     job,
	})
}

// Get returns a job with the results gathered so far
func (h *EnrichmentHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "jobId")
	if !ok {
		return
	}

	job, err := h.service.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// Events streams job progress as server-sent events. The job is sent on
// connect and after every result; the stream closes once the job finishes.
func (h *EnrichmentHandler) Events(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "jobId")
	if !ok {
		return
	}
	if h.subscriber == nil {
		respondError(c, apperrors.ServiceError("Realtime updates are not available", nil))
		return
	}

	job, err := h.service.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	if job.IsTerminal() {
		sseWrite(c.Writer, "job", job)
		c.Writer.Flush()
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	fetch := func(ctx context.Context) (*models.EnrichmentJob, error) {
		return h.service.Get(ctx, user, id)
	}
	deliver := func(job *models.EnrichmentJob) {
		sseWrite(c.Writer, "job", job)
		c.Writer.Flush()
		if job.IsTerminal() {
			cancel()
		}
	}

	log := h.logger.With("job_id", id.String())
	if err := realtime.Watch(ctx, h.subscriber, realtime.TopicEnrichment, id.String(), fetch, deliver, log); err != nil {
		log.Warn("enrichment subscription failed", "error", err.Error())
		sseWrite(c.Writer, "error", gin.H{"error": "subscription failed"})
		c.Writer.Flush()
	}
}

// Cancel stops a running job
func (h *EnrichmentHandler) Cancel(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "jobId")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Enrichment job cancelling"})
}

// Health reports fetch statistics across all jobs
func (h *EnrichmentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"health":      h.service.Health(),
		"runningJobs": h.service.Running(),
	})
}
