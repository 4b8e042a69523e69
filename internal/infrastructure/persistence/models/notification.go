package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for in-app notifications.
type NotificationModel struct {
	BaseModel
	UserID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_notifications_user_read"`
	Title   string            `gorm:"type:varchar(300);not null"`
	Message string            `gorm:"type:text"`
	Type    notification.Type `gorm:"type:varchar(20);not null"`
	Link    string            `gorm:"type:varchar(500)"`
	Read    bool              `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read"`
	ReadAt  *time.Time

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Title:      m.Title,
		Message:    m.Message,
		Type:       m.Type,
		Link:       m.Link,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain Notification.
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{
		UserID:  n.UserID,
		Title:   n.Title,
		Message: n.Message,
		Type:    n.Type,
		Link:    n.Link,
		Read:    n.Read,
		ReadAt:  n.ReadAt,
	}
	m.FromDomainBaseEntity(n.BaseEntity)
	return m
}

// EmailLogModel records every outbound email attempt.
type EmailLogModel struct {
	BaseModel
	To            string                   `gorm:"column:recipients;type:text;not null"`
	Subject       string                   `gorm:"type:varchar(500);not null"`
	Body          string                   `gorm:"type:text"`
	Status        notification.EmailStatus `gorm:"type:varchar(20);not null;index"`
	Error         string                   `gorm:"type:text"`
	SentAt        *time.Time
	WorkflowRunID *uuid.UUID `gorm:"type:uuid;index"`
	VentureID     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (EmailLogModel) TableName() string {
	return "email_logs"
}

// ToDomain converts the persistence model to a domain EmailLog.
func (m *EmailLogModel) ToDomain() *notification.EmailLog {
	return &notification.EmailLog{
		BaseEntity:    m.BaseModel.ToDomain(),
		To:            m.To,
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        m.Status,
		Error:         m.Error,
		SentAt:        m.SentAt,
		WorkflowRunID: m.WorkflowRunID,
		VentureID:     m.VentureID,
	}
}

// EmailLogModelFromDomain creates a persistence model from a domain EmailLog.
func EmailLogModelFromDomain(e *notification.EmailLog) *EmailLogModel {
	m := &EmailLogModel{
		To:            e.To,
		Subject:       e.Subject,
		Body:          e.Body,
		Status:        e.Status,
		Error:         e.Error,
		SentAt:        e.SentAt,
		WorkflowRunID: e.WorkflowRunID,
		VentureID:     e.VentureID,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
