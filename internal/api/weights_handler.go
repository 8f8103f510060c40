package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/scoring"
)

// WeightsHandler exposes the scoring weight model to the ITP builder. It is
// stateless; every route is a pure function of the request body.
type WeightsHandler struct{}

// NewWeightsHandler creates a new weights handler
func NewWeightsHandler() *WeightsHandler {
	return &WeightsHandler{}
}

type weightsRequest struct {
	Weights scoring.ScoringWeights `json:"weights" binding:"required"`
}

type scoreRequest struct {
	Weights   scoring.ScoringWeights       `json:"weights" binding:"required"`
	SubScores map[scoring.Category]float64 `json:"subScores" binding:"required"`
}

// unknownCategories lists keys outside the closed category set
func unknownCategories(w scoring.ScoringWeights) error {
	var fields []apperrors.FieldError
	for c := range w {
		if !scoring.IsKnownCategory(c) {
			fields = append(fields, apperrors.FieldError{Field: "weights." + string(c), Message: "unknown category"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return apperrors.ValidationError("unknown scoring category", nil).WithFields(fields)
}

// Default returns the default weight vector
func (h *WeightsHandler) Default(c *gin.Context) {
	w := scoring.DefaultWeights()
	c.JSON(http.StatusOK, gin.H{
		"weights": w,
		"report":  scoring.Report(w),
	})
}

// Validate reports the hard and soft checks for a weight vector. An invalid
// vector is a normal answer, not an error.
func (h *WeightsHandler) Validate(c *gin.Context) {
	var req weightsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := unknownCategories(req.Weights); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scoring.Report(req.Weights))
}

// Normalize rescales a weight vector to sum to one
func (h *WeightsHandler) Normalize(c *gin.Context) {
	var req weightsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := unknownCategories(req.Weights); err != nil {
		respondError(c, err)
		return
	}

	normalized := scoring.Normalize(req.Weights)
	c.JSON(http.StatusOK, gin.H{
		"weights": normalized,
		"report":  scoring.Report(normalized),
	})
}

// Score applies a weight vector to per-category sub-scores
func (h *WeightsHandler) Score(c *gin.Context) {
	var req scoreRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := unknownCategories(req.Weights); err != nil {
		respondError(c, err)
		return
	}
	if !scoring.Validate(req.Weights) {
		respondError(c, apperrors.ValidationError("weights must be between 0 and 1", nil))
		return
	}
	if bad := scoring.OutOfRangeSubScores(req.SubScores); len(bad) > 0 {
		fields := make([]apperrors.FieldError, len(bad))
		for i, category := range bad {
			fields[i] = apperrors.FieldError{Field: "subScores." + string(category), Message: "must be between 0 and 1"}
		}
		respondError(c, apperrors.ValidationError("sub-scores must be between 0 and 1", nil).WithFields(fields))
		return
	}

	_, percent := scoring.MatchPercent(req.Weights, req.SubScores)
	c.JSON(http.StatusOK, gin.H{
		"score":        scoring.WeightedScore(req.Weights, req.SubScores),
		"matchPercent": percent,
	})
}
