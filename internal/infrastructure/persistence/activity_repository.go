package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Create appends an activity to the feed
func (r *GormActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	return translateError(r.db.WithContext(ctx).Create(models.ActivityModelFromDomain(a)).Error)
}

// FindAll returns activities matching the filter, newest first
func (r *GormActivityRepository) FindAll(ctx context.Context, filter activity.Filter) ([]*activity.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityModel{})
	if filter.VentureID != nil {
		query = query.Where("venture_id = ?", *filter.VentureID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.ActivityModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toActivities(rows), total, nil
}

// Recent returns the latest activities, optionally for one venture
func (r *GormActivityRepository) Recent(ctx context.Context, limit int, ventureID *uuid.UUID) ([]*activity.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityModel{})
	if ventureID != nil {
		query = query.Where("venture_id = ?", *ventureID)
	}
	var rows []models.ActivityModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toActivities(rows), nil
}

func toActivities(rows []models.ActivityModel) []*activity.Activity {
	out := make([]*activity.Activity, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ activity.ActivityRepository = (*GormActivityRepository)(nil)
