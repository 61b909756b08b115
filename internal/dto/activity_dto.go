package dto

import (
	"time"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// ActivityFilter describes query filters for the audit trail listing.
type ActivityFilter struct {
	Page       int    `query:"page" validate:"omitempty,gte=0"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=0,lte=100"`
	ActorID    *uint  `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
}

// ActivityResponse serializes one audit trail entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps a page of audit entries with the total count.
type ActivityListResponse struct {
	Entries []ActivityResponse `json:"entries"`
	Total   int64              `json:"total"`
}

// NewActivityResponse maps an activity log model to its API shape.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// NewActivityResponseSlice maps a slice of audit entries.
func NewActivityResponseSlice(entries []models.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewActivityResponse(entry))
	}
	return responses
}
