package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
)

// Type is the severity of a notification
type Type string

const (
	TypeInfo    Type = "INFO"
	TypeSuccess Type = "SUCCESS"
	TypeWarning Type = "WARNING"
	TypeError   Type = "ERROR"
)

// IsValid reports whether the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is an in-app message for a single user
type Notification struct {
	shared.BaseEntity
	UserID  uuid.UUID
	Title   string
	Message string
	Type    Type
	Link    string
	Read    bool
	ReadAt  *time.Time
}

// NewNotification creates an unread notification
func NewNotification(userID uuid.UUID, title, message string, t Type, link string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	if t == "" {
		t = TypeInfo
	}
	if !t.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Type must be one of INFO, SUCCESS, WARNING, ERROR")
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       t,
		Link:       strings.TrimSpace(link),
	}, nil
}

// MarkRead flags the notification as read; repeated calls keep the first ReadAt
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	n.UpdatedAt = now
}
