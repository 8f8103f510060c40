package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// CompetitiveAnalysis is a dashboard comparing a target company with its
// competitors
type CompetitiveAnalysis struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	OwnerID           uuid.UUID    `json:"ownerId" db:"owner_id"`
	Name              string       `json:"name" db:"name"`
	Description       string       `json:"description" db:"description"`
	TargetCompanyName string       `json:"targetCompanyName" db:"target_company_name"`
	TargetWebsite     string       `json:"targetWebsite" db:"target_website"`
	Dimensions        []string     `json:"dimensions" db:"dimensions"`
	Status            string       `json:"status" db:"status"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time    `json:"updatedAt" db:"updated_at"`
	Competitors       []Competitor `json:"competitors,omitempty" db:"-"`
}

const (
	AnalysisDraft    = "draft"
	AnalysisActive   = "active"
	AnalysisArchived = "archived"
)

// Competitor is one company tracked inside an analysis
type Competitor struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AnalysisID  uuid.UUID `json:"analysisId" db:"analysis_id"`
	Name        string    `json:"name" db:"name"`
	Website     string    `json:"website" db:"website"`
	Description string    `json:"description" db:"description"`
	MoatScore   *float64  `json:"moatScore" db:"moat_score"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// MoatDimensions are the sub-scores behind a moat score, each 0-100
type MoatDimensions struct {
	FeatureDifferentiation float64 `json:"featureDifferentiation" binding:"min=0,max=100"`
	PricingPower           float64 `json:"pricingPower" binding:"min=0,max=100"`
	Brand                  float64 `json:"brand" binding:"min=0,max=100"`
	LockIn                 float64 `json:"lockIn" binding:"min=0,max=100"`
	NetworkEffects         float64 `json:"networkEffects" binding:"min=0,max=100"`
}

func (m MoatDimensions) values() []float64 {
	return []float64{m.FeatureDifferentiation, m.PricingPower, m.Brand, m.LockIn, m.NetworkEffects}
}

// InRange reports whether every dimension is within 0-100
func (m MoatDimensions) InRange() bool {
	for _, v := range m.values() {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return false
		}
	}
	return true
}

// Score is the unweighted mean of the dimensions
func (m MoatDimensions) Score() float64 {
	var sum float64
	values := m.values()
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Value implements driver.Valuer for MoatDimensions
func (m MoatDimensions) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for MoatDimensions
func (m *MoatDimensions) Scan(value interface{}) error {
	if value == nil {
		*m = MoatDimensions{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into MoatDimensions", value)
	}

	return json.Unmarshal(bytes, m)
}

// MoatScoreSnapshot is a moat score captured at a point in time
type MoatScoreSnapshot struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	AnalysisID   uuid.UUID      `json:"analysisId" db:"analysis_id"`
	CompetitorID uuid.UUID      `json:"competitorId" db:"competitor_id"`
	Score        float64        `json:"score" db:"score"`
	Dimensions   MoatDimensions `json:"dimensions" db:"dimensions"`
	CapturedAt   time.Time      `json:"capturedAt" db:"captured_at"`
}

// AnalysisShare is a public link to a read-only analysis
type AnalysisShare struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AnalysisID   uuid.UUID  `json:"analysisId" db:"analysis_id"`
	Token        string     `json:"token" db:"token"`
	PasswordHash string     `json:"-" db:"password_hash"`
	ExpiresAt    *time.Time `json:"expiresAt" db:"expires_at"`
	CreatedBy    uuid.UUID  `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// HasPassword reports whether the link is password protected
func (s *AnalysisShare) HasPassword() bool {
	return s.PasswordHash != ""
}

// IsExpired reports whether the link has expired at now
func (s *AnalysisShare) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// MarshalJSON adds has_password without exposing the hash
func (s AnalysisShare) MarshalJSON() ([]byte, error) {
	type share AnalysisShare
	return json.Marshal(struct {
		share
		HasPassword bool `json:"hasPassword"`
	}{share(s), s.HasPassword()})
}

// CreateAnalysisRequest is the body of POST /api/competitive-analysis
type CreateAnalysisRequest struct {
	Name              string              `json:"name" binding:"required,max=100"`
	Description       string              `json:"description" binding:"max=2000"`
	TargetCompanyName string              `json:"targetCompanyName" binding:"required"`
	TargetWebsite     string              `json:"targetWebsite"`
	Dimensions        []string            `json:"dimensions"`
	Competitors       []CompetitorRequest `json:"competitors" binding:"max=10,dive"`
	TermsAccepted     bool                `json:"termsAccepted"`
}

// CompetitorRequest is the body of POST /api/competitive-analysis/:id/competitors
type CompetitorRequest struct {
	Name        string          `json:"name" binding:"required"`
	Website     string          `json:"website"`
	Description string          `json:"description"`
	Moat        *MoatDimensions `json:"moat,omitempty"`
}

// CreateShareRequest is the body of POST /api/competitive-analysis/:id/share
type CreateShareRequest struct {
	Password       string `json:"password" binding:"omitempty,min=6"`
	ExpiresInHours int    `json:"expiresInHours" binding:"min=0,max=8760"`
}

// OpenShareRequest is the body of POST /api/shares/:token
type OpenShareRequest struct {
	Password string `json:"password"`
}

// SubmissionResult reports a parent record and how many dependents were
// created alongside it
type SubmissionResult struct {
	ID      uuid.UUID `json:"id"`
	Created int       `json:"created"`
	Failed  int       `json:"failed"`
}
