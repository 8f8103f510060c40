package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/dealscope/internal/drafts"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/wizard"
)

// WizardHandler serves wizard drafts and step evaluation. Drafts are scoped
// to the caller; store failures never fail the wizard.
type WizardHandler struct {
	registry *wizard.Registry
	store    drafts.Store
	logger   logger.Logger
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(registry *wizard.Registry, store drafts.Store, log logger.Logger) *WizardHandler {
	return &WizardHandler{
		registry: registry,
		store:    store,
		logger:   log,
	}
}

type evaluateRequest struct {
	Data    json.RawMessage `json:"data"`
	Current int             `json:"current"`
	Action  wizard.Action   `json:"action"`
}

// flow resolves the :wizard path parameter or writes a 404
func (h *WizardHandler) flow(c *gin.Context) (wizard.Flow, bool) {
	f, ok := h.registry.Get(c.Param("wizard"))
	if !ok {
		respondError(c, apperrors.NotFound("Unknown wizard", nil).WithDetails(c.Param("wizard")))
		return nil, false
	}
	return f, true
}

// List returns the registered wizard ids
func (h *WizardHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wizards": h.registry.IDs()})
}

// GetDraft returns the caller's saved draft. An unreadable store is treated
// as having no draft.
func (h *WizardHandler) GetDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, ok := h.flow(c)
	if !ok {
		return
	}

	key := wizard.DraftKey(f.ID(), user.ID.String())
	raw, err := h.store.Load(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, drafts.ErrNotFound) {
			h.logger.Warn("wizard draft not loaded", "key", key, "error", err.Error())
		}
		respondError(c, apperrors.NotFound("No draft saved", nil))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// SaveDraft stores the request body as the caller's draft. The body must
// decode as a draft for this wizard; a store failure is reported in the
// response but is not an error.
func (h *WizardHandler) SaveDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, ok := h.flow(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, apperrors.InvalidInput("Could not read request body", err))
		return
	}
	if err := f.ValidDraft(raw); err != nil {
		respondError(c, apperrors.ValidationError("Invalid draft", err).WithDetails(err.Error()))
		return
	}

	key := wizard.DraftKey(f.ID(), user.ID.String())
	if err := h.store.Save(c.Request.Context(), key, raw); err != nil {
		h.logger.Warn("wizard draft not saved", "key", key, "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"saved": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// DeleteDraft clears the caller's draft
func (h *WizardHandler) DeleteDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, ok := h.flow(c)
	if !ok {
		return
	}

	key := wizard.DraftKey(f.ID(), user.ID.String())
	if err := h.store.Delete(c.Request.Context(), key); err != nil {
		h.logger.Warn("wizard draft not cleared", "key", key, "error", err.Error())
	}
	c.Status(http.StatusNoContent)
}

// Evaluate replays one navigation action against posted wizard data and
// returns the resulting step state
func (h *WizardHandler) Evaluate(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}

	var req evaluateRequest
	if !bindJSON(c, &req) {
		return
	}

	ev, err := f.Evaluate(req.Data, req.Current, req.Action)
	if err != nil {
		respondError(c, apperrors.ValidationError("Invalid wizard state", err).WithDetails(err.Error()))
		return
	}
	c.JSON(http.StatusOK, ev)
}
