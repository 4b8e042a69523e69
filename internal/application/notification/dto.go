package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/notification"
)

// CreateNotificationRequest represents a request to notify a user
type CreateNotificationRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Title   string    `json:"title" binding:"required,max=200"`
	Message string    `json:"message" binding:"max=2000"`
	Type    string    `json:"type" binding:"omitempty,oneof=INFO SUCCESS WARNING ERROR"`
	Link    string    `json:"link" binding:"max=500"`
}

// NotificationListQuery holds list filters for the caller's notifications
type NotificationListQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse is the API view of a notification
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Link      string     `json:"link,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToNotificationResponse converts a domain notification
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Link:      n.Link,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// UnreadCountResponse carries the caller's unread count
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse carries the number of notifications changed
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// SendEmailRequest represents a direct email send. To may hold several
// comma separated addresses.
type SendEmailRequest struct {
	To            string     `json:"to" binding:"required,max=1000"`
	Subject       string     `json:"subject" binding:"required,max=300"`
	Body          string     `json:"body" binding:"max=100000"`
	VentureID     *uuid.UUID `json:"venture_id"`
	WorkflowRunID *uuid.UUID `json:"-"`
}

// EmailListQuery holds email log filters
type EmailListQuery struct {
	Status        string `form:"status" binding:"omitempty,oneofci=PENDING SENT FAILED"`
	WorkflowRunID string `form:"workflow_run_id" binding:"omitempty,uuid"`
	VentureID     string `form:"venture_id" binding:"omitempty,uuid"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// EmailLogResponse is the API view of an email log entry
type EmailLogResponse struct {
	ID            uuid.UUID  `json:"id"`
	To            string     `json:"to"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	WorkflowRunID *uuid.UUID `json:"workflow_run_id,omitempty"`
	VentureID     *uuid.UUID `json:"venture_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToEmailLogResponse converts a domain email log
func ToEmailLogResponse(e *notification.EmailLog) EmailLogResponse {
	return EmailLogResponse{
		ID:            e.ID,
		To:            e.To,
		Subject:       e.Subject,
		Body:          e.Body,
		Status:        string(e.Status),
		Error:         e.Error,
		SentAt:        e.SentAt,
		WorkflowRunID: e.WorkflowRunID,
		VentureID:     e.VentureID,
		CreatedAt:     e.CreatedAt,
	}
}
