package models

import (
	"time"

	"github.com/google/uuid"
)

// Search statuses visible to API consumers. There is no persisted status
// column: a request is completed once the agent has written at least one
// cluster for it. StatusFailed is never derived from stored data; it exists
// for the client-side progress presenter only.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DeriveStatus maps the number of clusters attached to a search request to
// its externally visible status.
func DeriveStatus(clusterCount int) string {
	if clusterCount > 0 {
		return StatusCompleted
	}
	return StatusProcessing
}

// SearchRequest is one user-submitted product search. The trend agent fills
// in criteria, metrics, and clusters asynchronously after submission.
type SearchRequest struct {
	ID        int64     `db:"id"         json:"requestId"`
	UserID    uuid.UUID `db:"user_id"    json:"-"`
	Query     string    `db:"query"      json:"query"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// SearchCriteria is the agent's structured interpretation of the free-text
// query. One row per request, written by the agent's parsing step.
type SearchCriteria struct {
	ID                 int64  `db:"id"                     json:"id"`
	RequestID          int64  `db:"request_id"             json:"-"`
	PrimaryKeywords    string `db:"primary_keywords"       json:"primaryKeywords"`
	NegativeKeywords   string `db:"negative_keywords"      json:"negativeKeywords"`
	TargetRegion       string `db:"target_region"          json:"targetRegion"`
	PriceMin           int    `db:"price_min"              json:"priceMin"`
	PriceMax           int    `db:"price_max"              json:"priceMax"`
	Currency           string `db:"currency"               json:"currency"`
	VerticalCategory   string `db:"vertical_category"      json:"verticalCategory"`
	TimeHorizonMonths  int    `db:"time_horizon_in_months" json:"timeHorizonInMonths"`
}
