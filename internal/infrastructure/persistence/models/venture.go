package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared/valueobject"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/shopspring/decimal"
)

// VentureModel is the persistence model for the Venture aggregate.
type VentureModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null;index"`
	Description  string `gorm:"type:text"`
	Sector       string `gorm:"type:varchar(100);index"`
	Location     string `gorm:"type:varchar(200)"`
	Country      string `gorm:"type:varchar(100)"`
	FounderName  string `gorm:"type:varchar(200)"`
	ContactEmail string `gorm:"type:varchar(200)"`
	ContactPhone string `gorm:"type:varchar(50)"`
	Website      string `gorm:"type:varchar(500)"`
	FoundedYear  int

	Stage  venture.Stage  `gorm:"type:varchar(30);not null;index"`
	Status venture.Status `gorm:"type:varchar(20);not null;index"`

	AnnualRevenue decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	FundingRaised decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	CapitalSought decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	FundingType   venture.FundingType  `gorm:"type:varchar(30);index"`

	TeamSize            int  `gorm:"not null;default:0"`
	JobsCreated         int  `gorm:"not null;default:0"`
	WomenLed            bool `gorm:"not null;default:false"`
	YouthLed            bool `gorm:"not null;default:false"`
	DisabilityInclusive bool `gorm:"not null;default:false"`
	RuralBased          bool `gorm:"not null;default:false"`

	NextReviewAt *time.Time `gorm:"index"`
	AssignedToID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedByID  *uuid.UUID `gorm:"type:uuid"`

	AssignedTo *UserModel `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL"`
	CreatedBy  *UserModel `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM
func (VentureModel) TableName() string {
	return "ventures"
}

// ToDomain converts the persistence model to a domain Venture.
func (m *VentureModel) ToDomain() *venture.Venture {
	return &venture.Venture{
		BaseAggregateRoot:   m.ToAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		Sector:              m.Sector,
		Location:            m.Location,
		Country:             m.Country,
		FounderName:         m.FounderName,
		ContactEmail:        m.ContactEmail,
		ContactPhone:        m.ContactPhone,
		Website:             m.Website,
		FoundedYear:         m.FoundedYear,
		Stage:               m.Stage,
		Status:              m.Status,
		AnnualRevenue:       m.AnnualRevenue,
		FundingRaised:       m.FundingRaised,
		CapitalSought:       m.CapitalSought,
		Currency:            m.Currency,
		FundingType:         m.FundingType,
		TeamSize:            m.TeamSize,
		JobsCreated:         m.JobsCreated,
		WomenLed:            m.WomenLed,
		YouthLed:            m.YouthLed,
		DisabilityInclusive: m.DisabilityInclusive,
		RuralBased:          m.RuralBased,
		NextReviewAt:        m.NextReviewAt,
		AssignedToID:        m.AssignedToID,
		CreatedByID:         m.CreatedByID,
	}
}

// VentureModelFromDomain creates a persistence model from a domain Venture.
func VentureModelFromDomain(v *venture.Venture) *VentureModel {
	m := &VentureModel{
		Name:                v.Name,
		Description:         v.Description,
		Sector:              v.Sector,
		Location:            v.Location,
		Country:             v.Country,
		FounderName:         v.FounderName,
		ContactEmail:        v.ContactEmail,
		ContactPhone:        v.ContactPhone,
		Website:             v.Website,
		FoundedYear:         v.FoundedYear,
		Stage:               v.Stage,
		Status:              v.Status,
		AnnualRevenue:       v.AnnualRevenue,
		FundingRaised:       v.FundingRaised,
		CapitalSought:       v.CapitalSought,
		Currency:            v.Currency,
		FundingType:         v.FundingType,
		TeamSize:            v.TeamSize,
		JobsCreated:         v.JobsCreated,
		WomenLed:            v.WomenLed,
		YouthLed:            v.YouthLed,
		DisabilityInclusive: v.DisabilityInclusive,
		RuralBased:          v.RuralBased,
		NextReviewAt:        v.NextReviewAt,
		AssignedToID:        v.AssignedToID,
		CreatedByID:         v.CreatedByID,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}

// GEDSIMetricModel is the persistence model for GEDSI metrics.
type GEDSIMetricModel struct {
	AggregateModel
	VentureID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	MetricCode   string                 `gorm:"type:varchar(50);index"`
	Name         string                 `gorm:"type:varchar(200);not null"`
	Category     venture.MetricCategory `gorm:"type:varchar(30);not null;index"`
	TargetValue  decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	CurrentValue decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Unit         string                 `gorm:"type:varchar(50)"`
	Status       venture.MetricStatus   `gorm:"type:varchar(20);not null;index"`
	TargetDate   *time.Time             `gorm:"index"`
	VerifiedAt   *time.Time
	Notes        string `gorm:"type:text"`

	Venture *VentureModel `gorm:"foreignKey:VentureID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (GEDSIMetricModel) TableName() string {
	return "gedsi_metrics"
}

// ToDomain converts the persistence model to a domain GEDSIMetric.
func (m *GEDSIMetricModel) ToDomain() *venture.GEDSIMetric {
	return &venture.GEDSIMetric{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VentureID:         m.VentureID,
		MetricCode:        m.MetricCode,
		Name:              m.Name,
		Category:          m.Category,
		TargetValue:       m.TargetValue,
		CurrentValue:      m.CurrentValue,
		Unit:              m.Unit,
		Status:            m.Status,
		TargetDate:        m.TargetDate,
		VerifiedAt:        m.VerifiedAt,
		Notes:             m.Notes,
	}
}

// GEDSIMetricModelFromDomain creates a persistence model from a domain GEDSIMetric.
func GEDSIMetricModelFromDomain(g *venture.GEDSIMetric) *GEDSIMetricModel {
	m := &GEDSIMetricModel{
		VentureID:    g.VentureID,
		MetricCode:   g.MetricCode,
		Name:         g.Name,
		Category:     g.Category,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Unit:         g.Unit,
		Status:       g.Status,
		TargetDate:   g.TargetDate,
		VerifiedAt:   g.VerifiedAt,
		Notes:        g.Notes,
	}
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	return m
}

// IRISMetricModel stores one IRIS+ catalog entry keyed by its code.
type IRISMetricModel struct {
	Code        string `gorm:"type:varchar(20);primaryKey"`
	Name        string `gorm:"type:varchar(300);not null"`
	Definition  string `gorm:"type:text"`
	Category    string `gorm:"type:varchar(100);index"`
	ImpactTheme string `gorm:"type:varchar(100)"`
	Unit        string `gorm:"type:varchar(50)"`
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (IRISMetricModel) TableName() string {
	return "iris_metrics"
}

// ToDomain converts the persistence model to a domain IRISMetric.
func (m *IRISMetricModel) ToDomain() venture.IRISMetric {
	return venture.IRISMetric{
		Code:        m.Code,
		Name:        m.Name,
		Definition:  m.Definition,
		Category:    m.Category,
		ImpactTheme: m.ImpactTheme,
		Unit:        m.Unit,
	}
}

// IRISMetricModelFromDomain creates a persistence model from a catalog entry.
func IRISMetricModelFromDomain(i venture.IRISMetric) *IRISMetricModel {
	return &IRISMetricModel{
		Code:        venture.NormalizeCode(i.Code),
		Name:        i.Name,
		Definition:  i.Definition,
		Category:    i.Category,
		ImpactTheme: i.ImpactTheme,
		Unit:        i.Unit,
	}
}
