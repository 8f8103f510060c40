package scoring

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 2000
	DefaultMinMatchScore = 60
)

// IdealTargetProfile is a saved combination of filter criteria and scoring
// weights used to find and rank acquisition targets.
type IdealTargetProfile struct {
	ID              uuid.UUID      `json:"id"`
	OwnerID         uuid.UUID      `json:"ownerId"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Criteria        Criteria       `json:"criteria"`
	ScoringWeights  ScoringWeights `json:"scoringWeights"`
	MinMatchScore   int            `json:"minMatchScore"`
	AutoTag         string         `json:"autoTag,omitempty"`
	AutoAddToListID *uuid.UUID     `json:"autoAddToListId,omitempty"`
	IsActive        bool           `json:"isActive"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewProfile returns a profile carrying the builder defaults
func NewProfile(name string) IdealTargetProfile {
	return IdealTargetProfile{
		Name:           name,
		ScoringWeights: DefaultWeights(),
		MinMatchScore:  DefaultMinMatchScore,
		IsActive:       true,
	}
}

// RequestProfile is the value a request body is decoded into, so fields the
// client leaves out keep their defaults. Weights stay nil: decoding a partial
// weight object into the default map would merge the two.
func RequestProfile() IdealTargetProfile {
	p := NewProfile("")
	p.ScoringWeights = nil
	return p
}

// ProfileIssue is one reason a profile cannot be saved
type ProfileIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProfileReport is what the builder shows next to the save button
type ProfileReport struct {
	Valid         bool                 `json:"valid"`
	ActiveFilters int                  `json:"activeFilters"`
	FilterCounts  map[CriteriaKind]int `json:"filterCounts"`
	Weights       WeightsReport        `json:"weights"`
	Issues        []ProfileIssue       `json:"issues"`
}

// Check evaluates every validity rule for p. Weight sum drift is reported in
// Weights.NeedsNormalization but never produces an issue.
func (p IdealTargetProfile) Check() ProfileReport {
	report := ProfileReport{
		ActiveFilters: CountActive(p.Criteria),
		FilterCounts:  CountByCategory(p.Criteria),
		Weights:       Report(p.ScoringWeights),
		Issues:        []ProfileIssue{},
	}

	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		report.Issues = append(report.Issues, ProfileIssue{Field: "name", Message: "name is required"})
	case utf8.RuneCountInString(name) > MaxNameLength:
		report.Issues = append(report.Issues, ProfileIssue{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)})
	}

	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		report.Issues = append(report.Issues, ProfileIssue{Field: "description", Message: fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength)})
	}

	if report.ActiveFilters == 0 {
		report.Issues = append(report.Issues, ProfileIssue{Field: "criteria", Message: "at least one filter is required"})
	}

	if !report.Weights.Valid {
		report.Issues = append(report.Issues, ProfileIssue{Field: "scoringWeights", Message: "every weight must be between 0 and 1"})
	}
	for _, category := range p.ScoringWeights.keys() {
		if !IsKnownCategory(category) {
			report.Issues = append(report.Issues, ProfileIssue{Field: "scoringWeights." + string(category), Message: "unknown scoring category"})
		}
	}

	if p.MinMatchScore < 0 || p.MinMatchScore > 100 {
		report.Issues = append(report.Issues, ProfileIssue{Field: "minMatchScore", Message: "minimum match score must be between 0 and 100"})
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// IsValid is shorthand for Check().Valid
func (p IdealTargetProfile) IsValid() bool {
	return p.Check().Valid
}
