package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/notification"
	"github.com/miv/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationService manages in-app notifications
type NotificationService struct {
	repo     notification.NotificationRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.NotificationRepository, userRepo identity.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, logger: logger}
}

// Create notifies an existing user
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*NotificationResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		return nil, shared.NotFoundOr(err, "User")
	}
	n, err := notification.NewNotification(req.UserID, req.Title, req.Message, notification.Type(req.Type), req.Link)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Debug("Notification created", zap.String("notification_id", n.ID.String()), zap.String("user_id", req.UserID.String()))
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// ListForUser returns a page of the user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, q NotificationListQuery) (*shared.Paginated[NotificationResponse], error) {
	page, size := max(q.Page, 1), q.PageSize
	if size <= 0 {
		size = 20
	}
	items, total, err := s.repo.FindForUser(ctx, userID, q.UnreadOnly, page, size)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = ToNotificationResponse(n)
	}
	result := shared.NewPaginated(out, total, page, size)
	return &result, nil
}

// MarkRead flags one of the user's notifications as read. Repeating it is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.Read {
		n.MarkRead()
		if err := s.repo.Update(ctx, n); err != nil {
			return nil, err
		}
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

// MarkAllRead flags every unread notification of the user and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (*MarkAllReadResponse, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkAllReadResponse{Updated: n}, nil
}

// UnreadCount returns the number of unread notifications of the user
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (*UnreadCountResponse, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UnreadCountResponse{Unread: n}, nil
}

// Delete removes one of the user's notifications
func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return shared.NotFoundOr(s.repo.Delete(ctx, id), "Notification")
}

// owned loads a notification; other users' notifications look missing
func (s *NotificationService) owned(ctx context.Context, userID, id uuid.UUID) (*notification.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Notification")
	}
	if userID != uuid.Nil && n.UserID != userID {
		return nil, shared.NotFound("Notification")
	}
	return n, nil
}
