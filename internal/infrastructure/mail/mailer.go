// Package mail delivers outbound email for the notification service and
// the SEND_EMAIL workflow step.
package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/miv/backend/internal/domain/notification"
	"github.com/miv/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the mailer selected by mail.driver
func New(cfg config.MailConfig, logger *zap.Logger) (notification.Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// Message is a delivered email, kept by LogMailer
type Message struct {
	To      []string
	Subject string
	Body    string
}

// LogMailer writes emails to the log instead of sending them
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

// Send logs the email and remembers it
func (m *LogMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}
	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	m.logger.Info("Email sent",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

// Sent returns a copy of every message sent so far
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var _ notification.Mailer = (*LogMailer)(nil)
