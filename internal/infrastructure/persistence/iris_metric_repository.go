package persistence

import (
	"context"
	"time"

	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormIRISMetricRepository stores the IRIS+ catalog
type GormIRISMetricRepository struct {
	db *gorm.DB
}

// NewGormIRISMetricRepository creates a new GormIRISMetricRepository
func NewGormIRISMetricRepository(db *gorm.DB) *GormIRISMetricRepository {
	return &GormIRISMetricRepository{db: db}
}

const irisUpsertBatch = 200

// Upsert inserts or refreshes catalog entries keyed by code
func (r *GormIRISMetricRepository) Upsert(ctx context.Context, metrics []venture.IRISMetric) (int, error) {
	if len(metrics) == 0 {
		return 0, nil
	}
	now := time.Now()
	rows := make([]*models.IRISMetricModel, len(metrics))
	for i, m := range metrics {
		rows[i] = models.IRISMetricModelFromDomain(m)
		rows[i].UpdatedAt = now
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "definition", "category", "impact_theme", "unit", "updated_at"}),
		}).
		CreateInBatches(rows, irisUpsertBatch)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return len(rows), nil
}

// FindByCode finds a catalog entry by its code
func (r *GormIRISMetricRepository) FindByCode(ctx context.Context, code string) (*venture.IRISMetric, error) {
	var model models.IRISMetricModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", venture.NormalizeCode(code)).Error; err != nil {
		return nil, translateError(err)
	}
	m := model.ToDomain()
	return &m, nil
}

// FindAll searches the catalog by code, name or definition
func (r *GormIRISMetricRepository) FindAll(ctx context.Context, filter venture.IRISFilter) ([]venture.IRISMetric, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.IRISMetricModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(definition) LIKE ?", pattern, pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.IRISMetricModel
	if err := query.Order("code ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]venture.IRISMetric, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

var _ venture.IRISMetricRepository = (*GormIRISMetricRepository)(nil)
