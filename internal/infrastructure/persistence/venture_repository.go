package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormVentureRepository implements VentureRepository using GORM
type GormVentureRepository struct {
	db *gorm.DB
}

// NewGormVentureRepository creates a new GormVentureRepository
func NewGormVentureRepository(db *gorm.DB) *GormVentureRepository {
	return &GormVentureRepository{db: db}
}

// Create creates a new venture
func (r *GormVentureRepository) Create(ctx context.Context, v *venture.Venture) error {
	return translateError(r.db.WithContext(ctx).Create(models.VentureModelFromDomain(v)).Error)
}

// Update updates an existing venture with a version check
func (r *GormVentureRepository) Update(ctx context.Context, v *venture.Venture) error {
	return saveVersioned(ctx, r.db, models.VentureModelFromDomain(v), v.ID, v.Version)
}

// Delete deletes a venture; metrics and documents cascade
func (r *GormVentureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.VentureModel{}, id)
}

// FindByID finds a venture by ID
func (r *GormVentureRepository) FindByID(ctx context.Context, id uuid.UUID) (*venture.Venture, error) {
	var model models.VentureModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns ventures matching the filter with pagination
func (r *GormVentureRepository) FindAll(ctx context.Context, filter venture.VentureFilter) ([]*venture.Venture, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VentureModel{})
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sector) LIKE ? OR LOWER(location) LIKE ? OR LOWER(founder_name) LIKE ?", pattern, pattern, pattern, pattern)
	}
	if filter.Stage != nil {
		query = query.Where("stage = ?", *filter.Stage)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Sector != "" {
		query = query.Where("sector = ?", filter.Sector)
	}
	if filter.FundingType != nil {
		query = query.Where("funding_type = ?", *filter.FundingType)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.VentureModel
	if err := query.
		Order(orderClause(filter.SortBy, filter.SortOrder, VentureSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toVentures(rows), total, nil
}

// FindByStages returns every venture in one of the stages
func (r *GormVentureRepository) FindByStages(ctx context.Context, stages ...venture.Stage) ([]*venture.Venture, error) {
	if len(stages) == 0 {
		return []*venture.Venture{}, nil
	}
	var rows []models.VentureModel
	if err := r.db.WithContext(ctx).
		Where("stage IN ?", stages).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toVentures(rows), nil
}

// FindReviewsBetween returns ventures with a review scheduled in [from, to)
func (r *GormVentureRepository) FindReviewsBetween(ctx context.Context, from, to time.Time) ([]*venture.Venture, error) {
	var rows []models.VentureModel
	if err := r.db.WithContext(ctx).
		Where("next_review_at >= ? AND next_review_at < ?", from, to).
		Order("next_review_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toVentures(rows), nil
}

type keyCount struct {
	Key   string
	Count int64
}

func (r *GormVentureRepository) countBy(ctx context.Context, column string) ([]keyCount, error) {
	var rows []keyCount
	err := r.db.WithContext(ctx).
		Model(&models.VentureModel{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	return rows, err
}

// CountByStage returns the number of ventures per stage
func (r *GormVentureRepository) CountByStage(ctx context.Context) (map[venture.Stage]int64, error) {
	rows, err := r.countBy(ctx, "stage")
	if err != nil {
		return nil, err
	}
	counts := make(map[venture.Stage]int64, len(venture.AllStages))
	for _, s := range venture.AllStages {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[venture.Stage(row.Key)] = row.Count
	}
	return counts, nil
}

// CountByStatus returns the number of ventures per status
func (r *GormVentureRepository) CountByStatus(ctx context.Context) (map[venture.Status]int64, error) {
	rows, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	counts := make(map[venture.Status]int64, len(rows))
	for _, row := range rows {
		counts[venture.Status(row.Key)] = row.Count
	}
	return counts, nil
}

var capitalColumns = map[venture.CapitalGrouping]string{
	venture.GroupByStage:       "stage",
	venture.GroupBySector:      "sector",
	venture.GroupByFundingType: "funding_type",
}

// CapitalSummary sums capital sought and raised over active ventures
func (r *GormVentureRepository) CapitalSummary(ctx context.Context, groupBy venture.CapitalGrouping) ([]venture.CapitalBucket, error) {
	column, ok := capitalColumns[groupBy]
	if !ok {
		return nil, fmt.Errorf("unsupported capital grouping %q", groupBy)
	}

	var rows []struct {
		Key           string
		Ventures      int64
		CapitalSought decimal.Decimal
		FundingRaised decimal.Decimal
		FundingGap    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.VentureModel{}).
		Select("COALESCE("+column+", '') AS key, COUNT(*) AS ventures, "+
			"COALESCE(SUM(capital_sought), 0) AS capital_sought, COALESCE(SUM(funding_raised), 0) AS funding_raised, "+
			"COALESCE(SUM(CASE WHEN capital_sought > funding_raised THEN capital_sought - funding_raised ELSE 0 END), 0) AS funding_gap").
		Where("status = ?", venture.StatusActive).
		Group(column).
		Order("capital_sought DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make([]venture.CapitalBucket, len(rows))
	for i, row := range rows {
		buckets[i] = venture.CapitalBucket{
			Key:           row.Key,
			Ventures:      row.Ventures,
			CapitalSought: row.CapitalSought,
			FundingRaised: row.FundingRaised,
			FundingGap:    row.FundingGap,
		}
	}
	return buckets, nil
}

// ImpactSummary counts impact flags over non-archived ventures
func (r *GormVentureRepository) ImpactSummary(ctx context.Context) (*venture.ImpactSummary, error) {
	var summary venture.ImpactSummary
	err := r.db.WithContext(ctx).
		Model(&models.VentureModel{}).
		Select(`COUNT(*) AS ventures,
			COALESCE(SUM(CASE WHEN women_led THEN 1 ELSE 0 END), 0) AS women_led,
			COALESCE(SUM(CASE WHEN youth_led THEN 1 ELSE 0 END), 0) AS youth_led,
			COALESCE(SUM(CASE WHEN disability_inclusive THEN 1 ELSE 0 END), 0) AS disability_inclusive,
			COALESCE(SUM(CASE WHEN rural_based THEN 1 ELSE 0 END), 0) AS rural_based,
			COALESCE(SUM(jobs_created), 0) AS jobs_created`).
		Where("status <> ?", venture.StatusArchived).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func toVentures(rows []models.VentureModel) []*venture.Venture {
	out := make([]*venture.Venture, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ venture.VentureRepository = (*GormVentureRepository)(nil)
