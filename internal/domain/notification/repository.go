package notification

import (
	"context"

	"github.com/google/uuid"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]*Notification, int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// EmailLogRepository defines the interface for email log persistence
type EmailLogRepository interface {
	Create(ctx context.Context, e *EmailLog) error
	Update(ctx context.Context, e *EmailLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*EmailLog, error)
	FindAll(ctx context.Context, filter EmailLogFilter) ([]*EmailLog, int64, error)
}

// EmailLogFilter contains filter options for querying email logs
type EmailLogFilter struct {
	Status        *EmailStatus
	WorkflowRunID *uuid.UUID
	VentureID     *uuid.UUID
	Page          int
	PageSize      int
}

// Mailer delivers an email; implementations live in infrastructure
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}
