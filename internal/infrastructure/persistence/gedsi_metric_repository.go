package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGEDSIMetricRepository implements GEDSIMetricRepository using GORM
type GormGEDSIMetricRepository struct {
	db *gorm.DB
}

// NewGormGEDSIMetricRepository creates a new GormGEDSIMetricRepository
func NewGormGEDSIMetricRepository(db *gorm.DB) *GormGEDSIMetricRepository {
	return &GormGEDSIMetricRepository{db: db}
}

// Create creates a new metric
func (r *GormGEDSIMetricRepository) Create(ctx context.Context, m *venture.GEDSIMetric) error {
	return translateError(r.db.WithContext(ctx).Create(models.GEDSIMetricModelFromDomain(m)).Error)
}

// Update updates an existing metric with a version check
func (r *GormGEDSIMetricRepository) Update(ctx context.Context, m *venture.GEDSIMetric) error {
	return saveVersioned(ctx, r.db, models.GEDSIMetricModelFromDomain(m), m.ID, m.Version)
}

// Delete deletes a metric by ID
func (r *GormGEDSIMetricRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.GEDSIMetricModel{}, id)
}

// FindByID finds a metric by ID
func (r *GormGEDSIMetricRepository) FindByID(ctx context.Context, id uuid.UUID) (*venture.GEDSIMetric, error) {
	var model models.GEDSIMetricModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns metrics matching the filter with pagination
func (r *GormGEDSIMetricRepository) FindAll(ctx context.Context, filter venture.MetricFilter) ([]*venture.GEDSIMetric, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.GEDSIMetricModel{})
	if filter.VentureID != nil {
		query = query.Where("venture_id = ?", *filter.VentureID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.GEDSIMetricModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toMetrics(rows), total, nil
}

// FindByVenture returns every metric of a venture
func (r *GormGEDSIMetricRepository) FindByVenture(ctx context.Context, ventureID uuid.UUID) ([]*venture.GEDSIMetric, error) {
	var rows []models.GEDSIMetricModel
	if err := r.db.WithContext(ctx).
		Where("venture_id = ?", ventureID).
		Order("category ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMetrics(rows), nil
}

// FindByVentures groups the metrics of several ventures by venture ID
func (r *GormGEDSIMetricRepository) FindByVentures(ctx context.Context, ventureIDs []uuid.UUID) (map[uuid.UUID][]*venture.GEDSIMetric, error) {
	grouped := make(map[uuid.UUID][]*venture.GEDSIMetric, len(ventureIDs))
	if len(ventureIDs) == 0 {
		return grouped, nil
	}
	var rows []models.GEDSIMetricModel
	if err := r.db.WithContext(ctx).Where("venture_id IN ?", ventureIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		m := rows[i].ToDomain()
		grouped[m.VentureID] = append(grouped[m.VentureID], m)
	}
	return grouped, nil
}

// FindTargetsBetween returns metrics whose target date falls in [from, to)
func (r *GormGEDSIMetricRepository) FindTargetsBetween(ctx context.Context, from, to time.Time) ([]*venture.GEDSIMetric, error) {
	var rows []models.GEDSIMetricModel
	if err := r.db.WithContext(ctx).
		Where("target_date >= ? AND target_date < ?", from, to).
		Order("target_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMetrics(rows), nil
}

// CountByCategoryAndStatus returns metric counts per category and status
func (r *GormGEDSIMetricRepository) CountByCategoryAndStatus(ctx context.Context) (map[venture.MetricCategory]map[venture.MetricStatus]int64, error) {
	var rows []struct {
		Category venture.MetricCategory
		Status   venture.MetricStatus
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.GEDSIMetricModel{}).
		Select("category, status, COUNT(*) AS count").
		Group("category, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[venture.MetricCategory]map[venture.MetricStatus]int64, len(venture.AllCategories))
	for _, c := range venture.AllCategories {
		counts[c] = make(map[venture.MetricStatus]int64, len(venture.AllMetricStatuses))
		for _, s := range venture.AllMetricStatuses {
			counts[c][s] = 0
		}
	}
	for _, row := range rows {
		if counts[row.Category] == nil {
			counts[row.Category] = make(map[venture.MetricStatus]int64)
		}
		counts[row.Category][row.Status] = row.Count
	}
	return counts, nil
}

func toMetrics(rows []models.GEDSIMetricModel) []*venture.GEDSIMetric {
	out := make([]*venture.GEDSIMetric, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ venture.GEDSIMetricRepository = (*GormGEDSIMetricRepository)(nil)
