package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/dealscope/internal/drafts"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/services"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// AnalysisHandler handles competitive analysis operations
type AnalysisHandler struct {
	analyses   services.AnalysisService
	drafts     drafts.Store
	subscriber realtime.Subscriber
	logger     logger.Logger
}

// NewAnalysisHandler creates a new analysis handler. subscriber may be nil,
// in which case the events route is not served.
func NewAnalysisHandler(analyses services.AnalysisService, store drafts.Store, subscriber realtime.Subscriber, log logger.Logger) *AnalysisHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisHandler{
		analyses:   analyses,
		drafts:     store,
		subscriber: subscriber,
		logger:     log,
	}
}

// List returns the caller's analyses
func (h *AnalysisHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	analyses, err := h.analyses.List(c.Request.Context(), user, listFilters(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

// Create records an analysis and its initial competitors and clears the
// caller's analysis draft
func (h *AnalysisHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateAnalysisRequest
	if !bindJSON(c, &req) {
		return
	}

	var result *models.SubmissionResult
	err := wizard.Submit(c.Request.Context(), wizard.AnalysisWizard, h.drafts, user.ID.String(), services.AnalysisWizardData(req), h.logger,
		func(ctx context.Context, _ wizard.AnalysisData) error {
			var err error
			result, err = h.analyses.Create(ctx, user, req)
			return err
		})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Get returns one analysis with its competitors
func (h *AnalysisHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	analysis, err := h.analyses.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// AddCompetitor adds one competitor to an analysis
func (h *AnalysisHandler) AddCompetitor(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CompetitorRequest
	if !bindJSON(c, &req) {
		return
	}

	competitor, err := h.analyses.AddCompetitor(c.Request.Context(), user, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"competitor": competitor})
}

// Trends returns moat score statistics over ?window= (a Go duration such as
// 720h). The service default applies when the parameter is absent.
func (h *AnalysisHandler) Trends(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(c, apperrors.InvalidInput("Invalid window", err).WithDetails("use a positive duration such as 720h"))
			return
		}
		window = d
	}

	report, err := h.analyses.Trends(c.Request.Context(), user, id, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateShare issues a public read-only link
func (h *AnalysisHandler) CreateShare(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateShareRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	share, err := h.analyses.CreateShare(c.Request.Context(), user, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"share": share})
}

// ListShares returns the links issued for an analysis
func (h *AnalysisHandler) ListShares(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	shares, err := h.analyses.ListShares(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

// OpenShare serves the analysis behind a public share link
func (h *AnalysisHandler) OpenShare(c *gin.Context) {
	var req models.OpenShareRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	analysis, err := h.analyses.OpenShare(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// Events streams the competitor list and the moat trend report as
// server-sent events. Both are sent once on connect and again after every
// change to their table; the subscriptions end with the request.
func (h *AnalysisHandler) Events(c *gin.Context) {
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
	if _, err := h.analyses.Get(ctx, user, id); err != nil {
		respondError(c, err)
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	var mu sync.Mutex
	send := func(event string, data interface{}) {
		mu.Lock()
		defer mu.Unlock()
		sseWrite(c.Writer, event, data)
		c.Writer.Flush()
	}
	log := h.logger.With("analysis_id", id.String())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fetch := func(ctx context.Context) ([]models.Competitor, error) {
			return h.analyses.Competitors(ctx, user, id)
		}
		deliver := func(competitors []models.Competitor) {
			if competitors == nil {
				competitors = []models.Competitor{}
			}
			send("competitors", competitors)
		}
		if err := realtime.Watch(ctx, h.subscriber, realtime.TopicCompetitors, id.String(), fetch, deliver, log); err != nil {
			log.Warn("competitor subscription failed", "error", err.Error())
			send("error", gin.H{"error": "subscription failed"})
		}
	}()
	go func() {
		defer wg.Done()
		fetch := func(ctx context.Context) (*services.TrendReport, error) {
			return h.analyses.Trends(ctx, user, id, 0)
		}
		deliver := func(report *services.TrendReport) { send("trends", report) }
		if err := realtime.Watch(ctx, h.subscriber, realtime.TopicMoatSnapshots, id.String(), fetch, deliver, log); err != nil {
			log.Warn("moat snapshot subscription failed", "error", err.Error())
			send("error", gin.H{"error": "subscription failed"})
		}
	}()
	wg.Wait()
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte(`{"error":"unserializable event"}`)
	}
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}
