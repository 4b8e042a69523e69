package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
)

// EmailStatus is the delivery state of an email
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "PENDING"
	EmailStatusSent    EmailStatus = "SENT"
	EmailStatusFailed  EmailStatus = "FAILED"
)

// EmailLog records every email the platform attempted to send
type EmailLog struct {
	shared.BaseEntity
	To            string
	Subject       string
	Body          string
	Status        EmailStatus
	Error         string
	SentAt        *time.Time
	WorkflowRunID *uuid.UUID
	VentureID     *uuid.UUID
}

// NewEmailLog creates a pending log entry
func NewEmailLog(to, subject, body string) (*EmailLog, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Recipient cannot be empty")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	return &EmailLog{
		BaseEntity: shared.NewBaseEntity(),
		To:         to,
		Subject:    subject,
		Body:       body,
		Status:     EmailStatusPending,
	}, nil
}

// Recipients splits the comma separated To field
func (e *EmailLog) Recipients() []string {
	parts := strings.Split(e.To, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MarkSent records a successful delivery
func (e *EmailLog) MarkSent() {
	now := time.Now()
	e.Status = EmailStatusSent
	e.SentAt = &now
	e.Error = ""
	e.UpdatedAt = now
}

// MarkFailed records a delivery failure
func (e *EmailLog) MarkFailed(err error) {
	e.Status = EmailStatusFailed
	if err != nil {
		e.Error = err.Error()
	}
	e.UpdatedAt = time.Now()
}
