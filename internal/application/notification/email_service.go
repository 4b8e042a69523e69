package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/notification"
	"github.com/miv/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrDeliveryFailed is returned, wrapped, when the mailer rejects a message
var ErrDeliveryFailed = shared.NewDomainError("EMAIL_DELIVERY_FAILED", "Email delivery failed")

// EmailService sends email through the configured mailer and logs every attempt
type EmailService struct {
	repo   notification.EmailLogRepository
	mailer notification.Mailer
	logger *zap.Logger
	// observe receives the outcome of every delivery attempt
	observe func(ok bool)
}

// NewEmailService creates a new EmailService
func NewEmailService(repo notification.EmailLogRepository, mailer notification.Mailer, logger *zap.Logger) *EmailService {
	return &EmailService{repo: repo, mailer: mailer, logger: logger, observe: func(bool) {}}
}

// SetObserver registers a callback for delivery outcomes
func (s *EmailService) SetObserver(observe func(ok bool)) {
	if observe != nil {
		s.observe = observe
	}
}

// Send delivers the message and records the outcome. The log entry is
// written whether delivery succeeds or not; a failed delivery also returns
// an error wrapping ErrDeliveryFailed along with the log.
func (s *EmailService) Send(ctx context.Context, req SendEmailRequest) (*EmailLogResponse, error) {
	entry, err := notification.NewEmailLog(req.To, req.Subject, req.Body)
	if err != nil {
		return nil, err
	}
	entry.VentureID = req.VentureID
	entry.WorkflowRunID = req.WorkflowRunID
	if len(entry.Recipients()) == 0 {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "At least one recipient is required")
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	sendErr := s.mailer.Send(ctx, entry.Recipients(), entry.Subject, entry.Body)
	s.observe(sendErr == nil)
	if sendErr != nil {
		entry.MarkFailed(sendErr)
		s.logger.Warn("Email delivery failed",
			zap.String("email_id", entry.ID.String()),
			zap.Strings("to", entry.Recipients()),
			zap.Error(sendErr))
	} else {
		entry.MarkSent()
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		// the mail went out (or not) regardless; surface the bookkeeping failure
		return nil, fmt.Errorf("record email outcome: %w", err)
	}

	resp := ToEmailLogResponse(entry)
	if sendErr != nil {
		return &resp, fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
	}
	return &resp, nil
}

// GetByID returns one email log entry
func (s *EmailService) GetByID(ctx context.Context, id uuid.UUID) (*EmailLogResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Email")
	}
	resp := ToEmailLogResponse(e)
	return &resp, nil
}

// List returns a page of email log entries, newest first
func (s *EmailService) List(ctx context.Context, q EmailListQuery) (*shared.Paginated[EmailLogResponse], error) {
	filter := notification.EmailLogFilter{Page: max(q.Page, 1), PageSize: q.PageSize}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.Status != "" {
		st := notification.EmailStatus(strings.ToUpper(q.Status))
		filter.Status = &st
	}
	if q.WorkflowRunID != "" {
		id, err := uuid.Parse(q.WorkflowRunID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "workflow_run_id must be a UUID")
		}
		filter.WorkflowRunID = &id
	}
	if q.VentureID != "" {
		id, err := uuid.Parse(q.VentureID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "venture_id must be a UUID")
		}
		filter.VentureID = &id
	}

	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]EmailLogResponse, len(items))
	for i, e := range items {
		out[i] = ToEmailLogResponse(e)
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
