package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnrichmentJob is a batch of domains whose websites are fetched for metadata
type EnrichmentJob struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	OwnerID    uuid.UUID         `json:"ownerId" db:"owner_id"`
	Status     string            `json:"status" db:"status"`
	Domains    []string          `json:"domains" db:"domains"`
	Total      int               `json:"total" db:"total"`
	Completed  int               `json:"completed" db:"completed"`
	Failed     int               `json:"failed" db:"failed"`
	Results    EnrichmentResults `json:"results" db:"results"`
	CreatedAt  time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time         `json:"updatedAt" db:"updated_at"`
	FinishedAt *time.Time        `json:"finishedAt" db:"finished_at"`
}

// EnrichmentJobStatus represents enrichment job status values
type EnrichmentJobStatus string

const (
	EnrichmentPending   EnrichmentJobStatus = "pending"
	EnrichmentRunning   EnrichmentJobStatus = "running"
	EnrichmentCompleted EnrichmentJobStatus = "completed"
	EnrichmentFailed    EnrichmentJobStatus = "failed"
	EnrichmentCancelled EnrichmentJobStatus = "cancelled"
)

// IsTerminal reports whether the job will not change again
func (j *EnrichmentJob) IsTerminal() bool {
	switch EnrichmentJobStatus(j.Status) {
	case EnrichmentCompleted, EnrichmentFailed, EnrichmentCancelled:
		return true
	}
	return false
}

// CompanyMetadata is what the enrichment worker extracts from a homepage
type CompanyMetadata struct {
	Domain      string            `json:"domain"`
	URL         string            `json:"url"`
	StatusCode  int               `json:"statusCode,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
	Emails      []string          `json:"emails,omitempty"`
	Error       string            `json:"error,omitempty"`
	FetchedAt   time.Time         `json:"fetchedAt"`
}

// EnrichmentResults are the per-domain outcomes stored as JSONB
type EnrichmentResults []CompanyMetadata

// Value implements driver.Valuer for EnrichmentResults
func (r EnrichmentResults) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for EnrichmentResults
func (r *EnrichmentResults) Scan(value interface{}) error {
	if value == nil {
		*r = EnrichmentResults{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into EnrichmentResults", value)
	}

	return json.Unmarshal(bytes, r)
}

// CreateEnrichmentRequest is the body of POST /api/enrichment
type CreateEnrichmentRequest struct {
	Domains []string `json:"domains" binding:"required,min=1,max=100,dive,required"`
}
