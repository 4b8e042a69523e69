package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
)

// Type classifies an activity feed entry
type Type string

const (
	TypeVentureCreated    Type = "VENTURE_CREATED"
	TypeVentureUpdated    Type = "VENTURE_UPDATED"
	TypeStageChanged      Type = "STAGE_CHANGED"
	TypeStatusChanged     Type = "STATUS_CHANGED"
	TypeDocumentUploaded  Type = "DOCUMENT_UPLOADED"
	TypeMetricVerified    Type = "METRIC_VERIFIED"
	TypeWorkflowCompleted Type = "WORKFLOW_COMPLETED"
	TypeWorkflowFailed    Type = "WORKFLOW_FAILED"
	TypeNote              Type = "NOTE"
	TypeCustom            Type = "CUSTOM"
)

// IsValid reports whether the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeVentureCreated, TypeVentureUpdated, TypeStageChanged, TypeStatusChanged,
		TypeDocumentUploaded, TypeMetricVerified, TypeWorkflowCompleted, TypeWorkflowFailed,
		TypeNote, TypeCustom:
		return true
	}
	return false
}

// Activity is an append-only feed entry
type Activity struct {
	shared.BaseEntity
	Type        Type
	Title       string
	Description string
	UserID      *uuid.UUID
	VentureID   *uuid.UUID
	Metadata    map[string]any
}

// NewActivity creates a feed entry
func NewActivity(t Type, title, description string, userID, ventureID *uuid.UUID, metadata map[string]any) (*Activity, error) {
	if !t.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Unknown activity type: "+string(t))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 300 {
		title = title[:300]
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Activity{
		BaseEntity:  shared.NewBaseEntity(),
		Type:        t,
		Title:       title,
		Description: description,
		UserID:      userID,
		VentureID:   ventureID,
		Metadata:    metadata,
	}, nil
}

// ActivityRepository defines the interface for activity persistence
type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	FindAll(ctx context.Context, filter Filter) ([]*Activity, int64, error)
	Recent(ctx context.Context, limit int, ventureID *uuid.UUID) ([]*Activity, error)
}

// Filter contains filter options for querying activities
type Filter struct {
	VentureID *uuid.UUID
	UserID    *uuid.UUID
	Type      *Type
	Page      int
	PageSize  int
}
