package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
)

// RecordActivityRequest is a manual feed entry
type RecordActivityRequest struct {
	Type        string         `json:"type" binding:"omitempty,oneof=NOTE CUSTOM"`
	Title       string         `json:"title" binding:"required,max=300"`
	Description string         `json:"description" binding:"max=5000"`
	VentureID   *uuid.UUID     `json:"venture_id"`
	Metadata    map[string]any `json:"metadata"`
	UserID      *uuid.UUID     `json:"-"`
}

// ActivityListQuery holds list filters
type ActivityListQuery struct {
	VentureID *uuid.UUID `form:"venture_id"`
	UserID    *uuid.UUID `form:"user_id"`
	Type      string     `form:"type"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ActivityResponse is the API view of a feed entry
type ActivityResponse struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	UserID      *uuid.UUID     `json:"user_id,omitempty"`
	VentureID   *uuid.UUID     `json:"venture_id,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ToActivityResponse converts a domain activity
func ToActivityResponse(a *activity.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Type:        string(a.Type),
		Title:       a.Title,
		Description: a.Description,
		UserID:      a.UserID,
		VentureID:   a.VentureID,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}

// ToActivityResponses converts a slice of domain activities
func ToActivityResponses(items []*activity.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(items))
	for i, a := range items {
		out[i] = ToActivityResponse(a)
	}
	return out
}
