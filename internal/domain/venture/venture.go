package venture

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Stage is the position of a venture in the investment pipeline
type Stage string

const (
	StageIntake          Stage = "INTAKE"
	StageScreening       Stage = "SCREENING"
	StageDueDiligence    Stage = "DUE_DILIGENCE"
	StageInvestmentReady Stage = "INVESTMENT_READY"
	StageFunded          Stage = "FUNDED"
	StagePortfolio       Stage = "PORTFOLIO"
)

// AllStages lists the pipeline stages in order
var AllStages = []Stage{
	StageIntake,
	StageScreening,
	StageDueDiligence,
	StageInvestmentReady,
	StageFunded,
	StagePortfolio,
}

// IsValid reports whether the stage is known
func (s Stage) IsValid() bool {
	for _, st := range AllStages {
		if st == s {
			return true
		}
	}
	return false
}

// Status is the lifecycle status of a venture
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusOnHold   Status = "ON_HOLD"
	StatusRejected Status = "REJECTED"
	StatusArchived Status = "ARCHIVED"
)

// AllStatuses lists every venture status
var AllStatuses = []Status{StatusActive, StatusOnHold, StatusRejected, StatusArchived}

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// FundingType describes the instrument a venture is raising
type FundingType string

const (
	FundingTypeNone    FundingType = ""
	FundingTypeGrant   FundingType = "GRANT"
	FundingTypeEquity  FundingType = "EQUITY"
	FundingTypeDebt    FundingType = "DEBT"
	FundingTypeBlended FundingType = "BLENDED"
)

// IsValid reports whether the funding type is known (empty is allowed)
func (f FundingType) IsValid() bool {
	switch f {
	case FundingTypeNone, FundingTypeGrant, FundingTypeEquity, FundingTypeDebt, FundingTypeBlended:
		return true
	}
	return false
}

// Venture represents a tracked company in the pipeline
// It is the aggregate root for venture-related operations
type Venture struct {
	shared.BaseAggregateRoot
	Name         string
	Description  string
	Sector       string
	Location     string
	Country      string
	FounderName  string
	ContactEmail string
	ContactPhone string
	Website      string
	FoundedYear  int

	Stage  Stage
	Status Status

	AnnualRevenue decimal.Decimal
	FundingRaised decimal.Decimal
	CapitalSought decimal.Decimal
	Currency      valueobject.Currency
	FundingType   FundingType

	TeamSize            int
	JobsCreated         int
	WomenLed            bool
	YouthLed            bool
	DisabilityInclusive bool
	RuralBased          bool

	NextReviewAt *time.Time
	AssignedToID *uuid.UUID
	CreatedByID  *uuid.UUID
}

// Profile carries the editable descriptive and financial fields of a venture
type Profile struct {
	Name         string
	Description  string
	Sector       string
	Location     string
	Country      string
	FounderName  string
	ContactEmail string
	ContactPhone string
	Website      string
	FoundedYear  int

	AnnualRevenue decimal.Decimal
	FundingRaised decimal.Decimal
	CapitalSought decimal.Decimal
	Currency      string
	FundingType   FundingType

	TeamSize            int
	JobsCreated         int
	WomenLed            bool
	YouthLed            bool
	DisabilityInclusive bool
	RuralBased          bool

	NextReviewAt *time.Time
}

// NewVenture creates a venture at the intake stage
func NewVenture(p Profile, createdBy *uuid.UUID) (*Venture, error) {
	v := &Venture{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Stage:             StageIntake,
		Status:            StatusActive,
		CreatedByID:       createdBy,
	}
	if err := v.apply(p); err != nil {
		return nil, err
	}

	event := NewVentureCreatedEvent(v)
	event.ActorID = createdBy
	v.AddDomainEvent(event)

	return v, nil
}

// UpdateProfile replaces the editable fields
func (v *Venture) UpdateProfile(p Profile, actor *uuid.UUID) error {
	if err := v.apply(p); err != nil {
		return err
	}
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	event := NewVentureUpdatedEvent(v)
	event.ActorID = actor
	v.AddDomainEvent(event)

	return nil
}

func (v *Venture) apply(p Profile) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Venture name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Venture name cannot exceed 200 characters")
	}
	sector := strings.TrimSpace(p.Sector)
	if sector == "" {
		return shared.NewDomainError("INVALID_SECTOR", "Sector cannot be empty")
	}
	if p.AnnualRevenue.IsNegative() || p.FundingRaised.IsNegative() || p.CapitalSought.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Financial amounts cannot be negative")
	}
	if p.TeamSize < 0 || p.JobsCreated < 0 {
		return shared.NewDomainError("INVALID_COUNT", "Team size and jobs created cannot be negative")
	}
	if p.FoundedYear != 0 && (p.FoundedYear < 1900 || p.FoundedYear > time.Now().Year()+1) {
		return shared.NewDomainError("INVALID_FOUNDED_YEAR", "Founded year is out of range")
	}
	if !p.FundingType.IsValid() {
		return shared.NewDomainError("INVALID_FUNDING_TYPE", "Funding type must be one of GRANT, EQUITY, DEBT, BLENDED")
	}
	currency, err := valueobject.ParseCurrency(p.Currency)
	if err != nil {
		return shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}

	v.Name = name
	v.Description = strings.TrimSpace(p.Description)
	v.Sector = sector
	v.Location = strings.TrimSpace(p.Location)
	v.Country = strings.TrimSpace(p.Country)
	v.FounderName = strings.TrimSpace(p.FounderName)
	v.ContactEmail = strings.ToLower(strings.TrimSpace(p.ContactEmail))
	v.ContactPhone = strings.TrimSpace(p.ContactPhone)
	v.Website = strings.TrimSpace(p.Website)
	v.FoundedYear = p.FoundedYear
	v.AnnualRevenue = p.AnnualRevenue
	v.FundingRaised = p.FundingRaised
	v.CapitalSought = p.CapitalSought
	v.Currency = currency
	v.FundingType = p.FundingType
	v.TeamSize = p.TeamSize
	v.JobsCreated = p.JobsCreated
	v.WomenLed = p.WomenLed
	v.YouthLed = p.YouthLed
	v.DisabilityInclusive = p.DisabilityInclusive
	v.RuralBased = p.RuralBased
	v.NextReviewAt = p.NextReviewAt
	return nil
}

// ChangeStage moves the venture through the pipeline
func (v *Venture) ChangeStage(stage Stage, actor *uuid.UUID) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Unknown pipeline stage: "+string(stage))
	}
	if v.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change stage of a "+strings.ToLower(string(v.Status))+" venture")
	}
	if v.Stage == stage {
		return nil
	}

	from := v.Stage
	v.Stage = stage
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	event := NewVentureStageChangedEvent(v, from, stage)
	event.ActorID = actor
	v.AddDomainEvent(event)

	return nil
}

// ChangeStatus sets the lifecycle status
func (v *Venture) ChangeStatus(status Status, actor *uuid.UUID) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown venture status: "+string(status))
	}
	if v.Status == status {
		return nil
	}

	from := v.Status
	v.Status = status
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	event := NewVentureStatusChangedEvent(v, from, status)
	event.ActorID = actor
	v.AddDomainEvent(event)

	return nil
}

// AssignTo sets or clears the responsible user
func (v *Venture) AssignTo(userID *uuid.UUID, actor *uuid.UUID) {
	v.AssignedToID = userID
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	event := NewVentureAssignedEvent(v)
	event.ActorID = actor
	v.AddDomainEvent(event)
}

// MarkDeleted records the deletion event before the row is removed
func (v *Venture) MarkDeleted(actor *uuid.UUID) {
	event := NewVentureDeletedEvent(v)
	event.ActorID = actor
	v.AddDomainEvent(event)
}

// IsClosed reports whether the venture has left the active pipeline
func (v *Venture) IsClosed() bool {
	return v.Status == StatusRejected || v.Status == StatusArchived
}

// Raised returns funding raised as Money
func (v *Venture) Raised() valueobject.Money {
	m, _ := valueobject.NewMoney(v.FundingRaised, v.currency())
	return m
}

// Sought returns capital sought as Money
func (v *Venture) Sought() valueobject.Money {
	m, _ := valueobject.NewMoney(v.CapitalSought, v.currency())
	return m
}

// FundingGap is capital sought minus funding raised, floored at zero
func (v *Venture) FundingGap() valueobject.Money {
	gap, _ := v.Raised().Gap(v.Sought())
	return gap
}

func (v *Venture) currency() valueobject.Currency {
	if v.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return v.Currency
}
