package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Upload categories accepted by the data room, one multipart part each
const (
	CategorySubscriptions  = "subscriptions"
	CategoryInvoices       = "invoices"
	CategoryPayments       = "payments"
	CategoryCOGS           = "cogs"
	CategorySalesMarketing = "sales_marketing"
)

// UploadCategories lists the recognised multipart part names in order
var UploadCategories = []string{
	CategorySubscriptions,
	CategoryInvoices,
	CategoryPayments,
	CategoryCOGS,
	CategorySalesMarketing,
}

// RowCounts is the number of accepted rows per category
type RowCounts map[string]int

// Value implements driver.Valuer for RowCounts
func (r RowCounts) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for RowCounts
func (r *RowCounts) Scan(value interface{}) error {
	if value == nil {
		*r = RowCounts{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into RowCounts", value)
	}

	return json.Unmarshal(bytes, r)
}

// DataRoomUpload records one financial-metrics upload
type DataRoomUpload struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OwnerID    uuid.UUID  `json:"ownerId" db:"owner_id"`
	RowCounts  RowCounts  `json:"rowCounts" db:"row_counts"`
	StartDate  *time.Time `json:"startDate" db:"start_date"`
	EndDate    *time.Time `json:"endDate" db:"end_date"`
	ErrorCount int        `json:"errorCount" db:"error_count"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// DateRange is the span of dates covered by an upload
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// UploadError is a per-row validation problem
type UploadError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UploadResponse is returned by POST /api/data-room
type UploadResponse struct {
	UploadID  uuid.UUID     `json:"uploadId"`
	DateRange DateRange     `json:"dateRange"`
	RowCounts RowCounts     `json:"rowCounts"`
	Errors    []UploadError `json:"errors,omitempty"`
}
