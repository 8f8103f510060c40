package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/dealscope/internal/scoring"
	"github.com/ajharbinger/dealscope/internal/services"
)

// ITPHandler handles ideal target profile operations
type ITPHandler struct {
	profiles services.ProfileService
}

// NewITPHandler creates a new ITP handler with service injection
func NewITPHandler(profiles services.ProfileService) *ITPHandler {
	return &ITPHandler{profiles: profiles}
}

type matchRequest struct {
	Candidates []scoring.Candidate `json:"candidates" binding:"required"`
}

// List returns the caller's profiles
func (h *ITPHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profiles, err := h.profiles.List(c.Request.Context(), user, listFilters(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// Get returns one profile
func (h *ITPHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Create saves a new profile. Missing weights get the defaults.
func (h *ITPHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile := scoring.RequestProfile()
	if !bindJSON(c, &profile) {
		return
	}

	created, err := h.profiles.Create(c.Request.Context(), user, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": created})
}

// Update replaces a profile's editable fields
func (h *ITPHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile := scoring.RequestProfile()
	if !bindJSON(c, &profile) {
		return
	}

	updated, err := h.profiles.Update(c.Request.Context(), user, id, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": updated})
}

// Delete removes a profile
func (h *ITPHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.profiles.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Validate checks an unsaved profile and returns the builder report. The
// report is returned with 200 whether or not the profile is valid.
func (h *ITPHandler) Validate(c *gin.Context) {
	profile := scoring.RequestProfile()
	if !bindJSON(c, &profile) {
		return
	}
	if profile.ScoringWeights == nil {
		profile.ScoringWeights = scoring.DefaultWeights()
	}
	c.JSON(http.StatusOK, profile.Check())
}

// Match scores candidates against a saved profile and returns the qualified
// ones in rank order
func (h *ITPHandler) Match(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req matchRequest
	if !bindJSON(c, &req) {
		return
	}

	results, err := h.profiles.Match(c.Request.Context(), user, id, req.Candidates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"evaluated": len(req.Candidates),
		"qualified": len(results),
	})
}
