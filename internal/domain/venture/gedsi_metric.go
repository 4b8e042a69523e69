package venture

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MetricCategory groups GEDSI metrics
type MetricCategory string

const (
	CategoryGender          MetricCategory = "GENDER"
	CategoryDisability      MetricCategory = "DISABILITY"
	CategorySocialInclusion MetricCategory = "SOCIAL_INCLUSION"
)

// AllCategories lists the GEDSI categories
var AllCategories = []MetricCategory{CategoryGender, CategoryDisability, CategorySocialInclusion}

// IsValid reports whether the category is known
func (c MetricCategory) IsValid() bool {
	switch c {
	case CategoryGender, CategoryDisability, CategorySocialInclusion:
		return true
	}
	return false
}

// MetricStatus tracks progress of a GEDSI metric
type MetricStatus string

const (
	MetricStatusNotStarted MetricStatus = "NOT_STARTED"
	MetricStatusInProgress MetricStatus = "IN_PROGRESS"
	MetricStatusCompleted  MetricStatus = "COMPLETED"
	MetricStatusVerified   MetricStatus = "VERIFIED"
)

// AllMetricStatuses lists every metric status
var AllMetricStatuses = []MetricStatus{
	MetricStatusNotStarted,
	MetricStatusInProgress,
	MetricStatusCompleted,
	MetricStatusVerified,
}

// GEDSIMetric is a gender, disability or social-inclusion target tracked for a venture
type GEDSIMetric struct {
	shared.BaseAggregateRoot
	VentureID    uuid.UUID
	MetricCode   string
	Name         string
	Category     MetricCategory
	TargetValue  decimal.Decimal
	CurrentValue decimal.Decimal
	Unit         string
	Status       MetricStatus
	TargetDate   *time.Time
	VerifiedAt   *time.Time
	Notes        string
}

// MetricSpec carries the editable fields of a metric
type MetricSpec struct {
	MetricCode   string
	Name         string
	Category     MetricCategory
	TargetValue  decimal.Decimal
	CurrentValue decimal.Decimal
	Unit         string
	TargetDate   *time.Time
	Notes        string
}

// NewGEDSIMetric creates a metric for the venture
func NewGEDSIMetric(ventureID uuid.UUID, spec MetricSpec) (*GEDSIMetric, error) {
	if ventureID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENTURE", "Venture ID is required")
	}
	m := &GEDSIMetric{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VentureID:         ventureID,
		Status:            MetricStatusNotStarted,
	}
	if err := m.apply(spec); err != nil {
		return nil, err
	}
	m.refreshStatus()
	return m, nil
}

// Update replaces the editable fields and re-derives the status
func (m *GEDSIMetric) Update(spec MetricSpec) error {
	if err := m.apply(spec); err != nil {
		return err
	}
	m.refreshStatus()
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

func (m *GEDSIMetric) apply(spec MetricSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Metric name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Metric name cannot exceed 200 characters")
	}
	if !spec.Category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Category must be one of GENDER, DISABILITY, SOCIAL_INCLUSION")
	}
	if !spec.TargetValue.IsPositive() {
		return shared.NewDomainError("INVALID_TARGET", "Target value must be greater than zero")
	}
	if spec.CurrentValue.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Current value cannot be negative")
	}

	m.MetricCode = strings.ToUpper(strings.TrimSpace(spec.MetricCode))
	m.Name = name
	m.Category = spec.Category
	m.TargetValue = spec.TargetValue
	m.CurrentValue = spec.CurrentValue
	m.Unit = strings.TrimSpace(spec.Unit)
	m.TargetDate = spec.TargetDate
	m.Notes = spec.Notes
	return nil
}

// RecordProgress sets the current value and moves the status forward
func (m *GEDSIMetric) RecordProgress(value decimal.Decimal) error {
	if value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Current value cannot be negative")
	}
	m.CurrentValue = value
	m.refreshStatus()
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// Verify confirms a completed metric
func (m *GEDSIMetric) Verify(actor *uuid.UUID) error {
	if m.Status != MetricStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed metrics can be verified")
	}
	now := time.Now()
	m.Status = MetricStatusVerified
	m.VerifiedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()

	event := NewMetricVerifiedEvent(m)
	event.ActorID = actor
	m.AddDomainEvent(event)
	return nil
}

// refreshStatus derives the status from the values; verified metrics keep their status
func (m *GEDSIMetric) refreshStatus() {
	if m.Status == MetricStatusVerified {
		return
	}
	switch {
	case m.CurrentValue.GreaterThanOrEqual(m.TargetValue):
		m.Status = MetricStatusCompleted
	case m.CurrentValue.IsPositive():
		m.Status = MetricStatusInProgress
	default:
		m.Status = MetricStatusNotStarted
	}
}

// Progress returns min(current/target, 1); verified metrics count as 1
func (m *GEDSIMetric) Progress() decimal.Decimal {
	if m.Status == MetricStatusVerified {
		return decimal.NewFromInt(1)
	}
	if !m.TargetValue.IsPositive() {
		return decimal.Zero
	}
	p := m.CurrentValue.Div(m.TargetValue)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}
