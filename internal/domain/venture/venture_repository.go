package venture

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VentureRepository defines the interface for venture persistence
type VentureRepository interface {
	Create(ctx context.Context, v *Venture) error
	Update(ctx context.Context, v *Venture) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Venture, error)
	FindAll(ctx context.Context, filter VentureFilter) ([]*Venture, int64, error)

	// FindByStages returns every venture in one of the stages, unpaged
	FindByStages(ctx context.Context, stages ...Stage) ([]*Venture, error)
	// FindReviewsBetween returns ventures with a review scheduled in [from, to)
	FindReviewsBetween(ctx context.Context, from, to time.Time) ([]*Venture, error)

	CountByStage(ctx context.Context) (map[Stage]int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	CapitalSummary(ctx context.Context, groupBy CapitalGrouping) ([]CapitalBucket, error)
	ImpactSummary(ctx context.Context) (*ImpactSummary, error)
}

// VentureFilter contains filter options for querying ventures
type VentureFilter struct {
	Keyword      string
	Stage        *Stage
	Status       *Status
	Sector       string
	FundingType  *FundingType
	AssignedToID *uuid.UUID

	Page     int
	PageSize int

	SortBy    string
	SortOrder string
}

// Offset returns the offset for pagination
func (f VentureFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the page size, defaulting to 20 and capped at 100
func (f VentureFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// CapitalGrouping selects the dimension for CapitalSummary
type CapitalGrouping string

const (
	GroupByStage       CapitalGrouping = "stage"
	GroupBySector      CapitalGrouping = "sector"
	GroupByFundingType CapitalGrouping = "funding_type"
)

// CapitalBucket is one row of a capital breakdown over active ventures
type CapitalBucket struct {
	Key           string
	Ventures      int64
	CapitalSought decimal.Decimal
	FundingRaised decimal.Decimal
	// FundingGap sums each venture's gap floored at zero, so over-funded
	// ventures do not offset the others.
	FundingGap decimal.Decimal
}

// ImpactSummary aggregates impact flags over all non-archived ventures
type ImpactSummary struct {
	Ventures            int64
	WomenLed            int64
	YouthLed            int64
	DisabilityInclusive int64
	RuralBased          int64
	JobsCreated         int64
}

// GEDSIMetricRepository defines the interface for metric persistence
type GEDSIMetricRepository interface {
	Create(ctx context.Context, m *GEDSIMetric) error
	Update(ctx context.Context, m *GEDSIMetric) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*GEDSIMetric, error)
	FindAll(ctx context.Context, filter MetricFilter) ([]*GEDSIMetric, int64, error)
	FindByVenture(ctx context.Context, ventureID uuid.UUID) ([]*GEDSIMetric, error)
	FindByVentures(ctx context.Context, ventureIDs []uuid.UUID) (map[uuid.UUID][]*GEDSIMetric, error)
	FindTargetsBetween(ctx context.Context, from, to time.Time) ([]*GEDSIMetric, error)
	CountByCategoryAndStatus(ctx context.Context) (map[MetricCategory]map[MetricStatus]int64, error)
}

// MetricFilter contains filter options for querying metrics
type MetricFilter struct {
	VentureID *uuid.UUID
	Category  *MetricCategory
	Status    *MetricStatus
	Page      int
	PageSize  int
}
