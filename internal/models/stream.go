package models

import (
	"time"

	"github.com/google/uuid"
)

// Stream is a goal-oriented deal-sourcing workflow
type Stream struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	OwnerID      uuid.UUID    `json:"ownerId" db:"owner_id"`
	Name         string       `json:"name" db:"name"`
	Description  string       `json:"description" db:"description"`
	GoalOriented bool         `json:"goalOriented" db:"goal_oriented"`
	Status       string       `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
	Goal         *StreamGoal  `json:"goal,omitempty" db:"-"`
	Items        []StreamItem `json:"items,omitempty" db:"-"`
}

const (
	StreamActive = "active"
	StreamPaused = "paused"
)

// StreamGoal is the measurable target attached to a goal-oriented stream
type StreamGoal struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	StreamID    uuid.UUID  `json:"streamId" db:"stream_id"`
	TemplateID  string     `json:"templateId" db:"template_id"`
	Metric      string     `json:"metric" db:"metric"`
	TargetValue float64    `json:"targetValue" db:"target_value"`
	Deadline    *time.Time `json:"deadline" db:"deadline"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// StreamItem is a company tracked by a stream
type StreamItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StreamID  uuid.UUID `json:"streamId" db:"stream_id"`
	Name      string    `json:"name" db:"name"`
	Website   string    `json:"website" db:"website"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
