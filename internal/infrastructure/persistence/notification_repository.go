package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/notification"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return translateError(r.db.WithContext(ctx).Create(models.NotificationModelFromDomain(n)).Error)
}

// Update saves a notification
func (r *GormNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	result := r.db.WithContext(ctx).Save(models.NotificationModelFromDomain(n))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a notification
func (r *GormNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.NotificationModel{}, id)
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindForUser lists a user's notifications, newest first
func (r *GormNotificationRepository) FindForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]*notification.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(page, pageSize)
	var rows []models.NotificationModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*notification.Notification, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// MarkAllRead marks every unread notification of the user as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now, "updated_at": now})
	return result.RowsAffected, result.Error
}

// CountUnread returns the number of unread notifications of the user
func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)

// GormEmailLogRepository implements EmailLogRepository using GORM
type GormEmailLogRepository struct {
	db *gorm.DB
}

// NewGormEmailLogRepository creates a new GormEmailLogRepository
func NewGormEmailLogRepository(db *gorm.DB) *GormEmailLogRepository {
	return &GormEmailLogRepository{db: db}
}

// Create records an email attempt
func (r *GormEmailLogRepository) Create(ctx context.Context, e *notification.EmailLog) error {
	return translateError(r.db.WithContext(ctx).Create(models.EmailLogModelFromDomain(e)).Error)
}

// Update saves the delivery outcome
func (r *GormEmailLogRepository) Update(ctx context.Context, e *notification.EmailLog) error {
	result := r.db.WithContext(ctx).Save(models.EmailLogModelFromDomain(e))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an email log by ID
func (r *GormEmailLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.EmailLog, error) {
	var model models.EmailLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns email logs matching the filter with pagination
func (r *GormEmailLogRepository) FindAll(ctx context.Context, filter notification.EmailLogFilter) ([]*notification.EmailLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EmailLogModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.WorkflowRunID != nil {
		query = query.Where("workflow_run_id = ?", *filter.WorkflowRunID)
	}
	if filter.VentureID != nil {
		query = query.Where("venture_id = ?", *filter.VentureID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.EmailLogModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*notification.EmailLog, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

var _ notification.EmailLogRepository = (*GormEmailLogRepository)(nil)
