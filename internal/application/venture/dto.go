package venture

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/shopspring/decimal"
)

// CreateVentureRequest represents a request to create a venture
type CreateVentureRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Description  string `json:"description" binding:"max=5000"`
	Sector       string `json:"sector" binding:"required,max=100"`
	Location     string `json:"location" binding:"max=200"`
	Country      string `json:"country" binding:"max=100"`
	FounderName  string `json:"founder_name" binding:"max=200"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=200"`
	ContactPhone string `json:"contact_phone" binding:"max=50"`
	Website      string `json:"website" binding:"omitempty,url,max=500"`
	FoundedYear  int    `json:"founded_year" binding:"omitempty,min=1900"`

	AnnualRevenue decimal.Decimal `json:"annual_revenue"`
	FundingRaised decimal.Decimal `json:"funding_raised"`
	CapitalSought decimal.Decimal `json:"capital_sought"`
	Currency      string          `json:"currency" binding:"omitempty,len=3"`
	FundingType   string          `json:"funding_type" binding:"omitempty,oneof=GRANT EQUITY DEBT BLENDED"`

	TeamSize            int  `json:"team_size" binding:"min=0"`
	JobsCreated         int  `json:"jobs_created" binding:"min=0"`
	WomenLed            bool `json:"women_led"`
	YouthLed            bool `json:"youth_led"`
	DisabilityInclusive bool `json:"disability_inclusive"`
	RuralBased          bool `json:"rural_based"`

	NextReviewAt *time.Time `json:"next_review_at"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`

	CreatedBy *uuid.UUID `json:"-"`
}

func (r CreateVentureRequest) profile() venture.Profile {
	return venture.Profile{
		Name:                r.Name,
		Description:         r.Description,
		Sector:              r.Sector,
		Location:            r.Location,
		Country:             r.Country,
		FounderName:         r.FounderName,
		ContactEmail:        r.ContactEmail,
		ContactPhone:        r.ContactPhone,
		Website:             r.Website,
		FoundedYear:         r.FoundedYear,
		AnnualRevenue:       r.AnnualRevenue,
		FundingRaised:       r.FundingRaised,
		CapitalSought:       r.CapitalSought,
		Currency:            r.Currency,
		FundingType:         venture.FundingType(r.FundingType),
		TeamSize:            r.TeamSize,
		JobsCreated:         r.JobsCreated,
		WomenLed:            r.WomenLed,
		YouthLed:            r.YouthLed,
		DisabilityInclusive: r.DisabilityInclusive,
		RuralBased:          r.RuralBased,
		NextReviewAt:        r.NextReviewAt,
	}
}

// UpdateVentureRequest represents a partial profile update. Stage, status and
// assignee have dedicated operations.
type UpdateVentureRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description  *string `json:"description" binding:"omitempty,max=5000"`
	Sector       *string `json:"sector" binding:"omitempty,min=1,max=100"`
	Location     *string `json:"location" binding:"omitempty,max=200"`
	Country      *string `json:"country" binding:"omitempty,max=100"`
	FounderName  *string `json:"founder_name" binding:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,max=200"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=50"`
	Website      *string `json:"website" binding:"omitempty,max=500"`
	FoundedYear  *int    `json:"founded_year"`

	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
	FundingRaised *decimal.Decimal `json:"funding_raised"`
	CapitalSought *decimal.Decimal `json:"capital_sought"`
	Currency      *string          `json:"currency" binding:"omitempty,len=3"`
	FundingType   *string          `json:"funding_type"`

	TeamSize            *int  `json:"team_size" binding:"omitempty,min=0"`
	JobsCreated         *int  `json:"jobs_created" binding:"omitempty,min=0"`
	WomenLed            *bool `json:"women_led"`
	YouthLed            *bool `json:"youth_led"`
	DisabilityInclusive *bool `json:"disability_inclusive"`
	RuralBased          *bool `json:"rural_based"`

	NextReviewAt *time.Time `json:"next_review_at"`
	// ClearNextReview removes the scheduled review
	ClearNextReview bool `json:"clear_next_review"`
}

// merge overlays the non-nil fields on the venture's current profile
func (r UpdateVentureRequest) merge(v *venture.Venture) venture.Profile {
	p := profileOf(v)
	setString(&p.Name, r.Name)
	setString(&p.Description, r.Description)
	setString(&p.Sector, r.Sector)
	setString(&p.Location, r.Location)
	setString(&p.Country, r.Country)
	setString(&p.FounderName, r.FounderName)
	setString(&p.ContactEmail, r.ContactEmail)
	setString(&p.ContactPhone, r.ContactPhone)
	setString(&p.Website, r.Website)
	setString(&p.Currency, r.Currency)
	if r.FoundedYear != nil {
		p.FoundedYear = *r.FoundedYear
	}
	if r.AnnualRevenue != nil {
		p.AnnualRevenue = *r.AnnualRevenue
	}
	if r.FundingRaised != nil {
		p.FundingRaised = *r.FundingRaised
	}
	if r.CapitalSought != nil {
		p.CapitalSought = *r.CapitalSought
	}
	if r.FundingType != nil {
		p.FundingType = venture.FundingType(*r.FundingType)
	}
	if r.TeamSize != nil {
		p.TeamSize = *r.TeamSize
	}
	if r.JobsCreated != nil {
		p.JobsCreated = *r.JobsCreated
	}
	if r.WomenLed != nil {
		p.WomenLed = *r.WomenLed
	}
	if r.YouthLed != nil {
		p.YouthLed = *r.YouthLed
	}
	if r.DisabilityInclusive != nil {
		p.DisabilityInclusive = *r.DisabilityInclusive
	}
	if r.RuralBased != nil {
		p.RuralBased = *r.RuralBased
	}
	if r.NextReviewAt != nil {
		p.NextReviewAt = r.NextReviewAt
	}
	if r.ClearNextReview {
		p.NextReviewAt = nil
	}
	return p
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func profileOf(v *venture.Venture) venture.Profile {
	return venture.Profile{
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
		AnnualRevenue:       v.AnnualRevenue,
		FundingRaised:       v.FundingRaised,
		CapitalSought:       v.CapitalSought,
		Currency:            string(v.Currency),
		FundingType:         v.FundingType,
		TeamSize:            v.TeamSize,
		JobsCreated:         v.JobsCreated,
		WomenLed:            v.WomenLed,
		YouthLed:            v.YouthLed,
		DisabilityInclusive: v.DisabilityInclusive,
		RuralBased:          v.RuralBased,
		NextReviewAt:        v.NextReviewAt,
	}
}

// ChangeStageRequest moves a venture to another pipeline stage
type ChangeStageRequest struct {
	Stage string `json:"stage" binding:"required,oneof=INTAKE SCREENING DUE_DILIGENCE INVESTMENT_READY FUNDED PORTFOLIO"`
}

// ChangeStatusRequest sets the lifecycle status of a venture
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE ON_HOLD REJECTED ARCHIVED"`
}

// AssignRequest assigns a venture; a null user_id unassigns it
type AssignRequest struct {
	UserID *uuid.UUID `json:"user_id"`
}

// VentureListQuery holds list filters bound from the query string
type VentureListQuery struct {
	Search       string `form:"search"`
	Stage        string `form:"stage" binding:"omitempty,oneof=INTAKE SCREENING DUE_DILIGENCE INVESTMENT_READY FUNDED PORTFOLIO"`
	Status       string `form:"status" binding:"omitempty,oneof=ACTIVE ON_HOLD REJECTED ARCHIVED"`
	Sector       string `form:"sector"`
	FundingType  string `form:"funding_type" binding:"omitempty,oneof=GRANT EQUITY DEBT BLENDED"`
	AssignedToID string `form:"assigned_to_id" binding:"omitempty,uuid"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy       string `form:"sort_by"`
	SortOrder    string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// VentureResponse is the API view of a venture
type VentureResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Sector       string    `json:"sector"`
	Location     string    `json:"location"`
	Country      string    `json:"country"`
	FounderName  string    `json:"founder_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Website      string    `json:"website"`
	FoundedYear  int       `json:"founded_year,omitempty"`

	Stage  string `json:"stage"`
	Status string `json:"status"`

	AnnualRevenue decimal.Decimal `json:"annual_revenue"`
	FundingRaised decimal.Decimal `json:"funding_raised"`
	CapitalSought decimal.Decimal `json:"capital_sought"`
	FundingGap    decimal.Decimal `json:"funding_gap"`
	Currency      string          `json:"currency"`
	FundingType   string          `json:"funding_type"`

	TeamSize            int  `json:"team_size"`
	JobsCreated         int  `json:"jobs_created"`
	WomenLed            bool `json:"women_led"`
	YouthLed            bool `json:"youth_led"`
	DisabilityInclusive bool `json:"disability_inclusive"`
	RuralBased          bool `json:"rural_based"`

	NextReviewAt *time.Time `json:"next_review_at,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
	CreatedByID  *uuid.UUID `json:"created_by_id,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToVentureResponse converts a domain venture
func ToVentureResponse(v *venture.Venture) VentureResponse {
	return VentureResponse{
		ID:                  v.ID,
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
		Stage:               string(v.Stage),
		Status:              string(v.Status),
		AnnualRevenue:       v.AnnualRevenue,
		FundingRaised:       v.FundingRaised,
		CapitalSought:       v.CapitalSought,
		FundingGap:          v.FundingGap().Amount(),
		Currency:            string(v.Raised().Currency()),
		FundingType:         string(v.FundingType),
		TeamSize:            v.TeamSize,
		JobsCreated:         v.JobsCreated,
		WomenLed:            v.WomenLed,
		YouthLed:            v.YouthLed,
		DisabilityInclusive: v.DisabilityInclusive,
		RuralBased:          v.RuralBased,
		NextReviewAt:        v.NextReviewAt,
		AssignedToID:        v.AssignedToID,
		CreatedByID:         v.CreatedByID,
		Version:             v.Version,
		CreatedAt:           v.CreatedAt,
		UpdatedAt:           v.UpdatedAt,
	}
}

// CreateMetricRequest represents a request to add a GEDSI metric to a venture
type CreateMetricRequest struct {
	MetricCode   string          `json:"metric_code" binding:"max=50"`
	Name         string          `json:"name" binding:"required,max=200"`
	Category     string          `json:"category" binding:"required,oneof=GENDER DISABILITY SOCIAL_INCLUSION"`
	TargetValue  decimal.Decimal `json:"target_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Unit         string          `json:"unit" binding:"max=50"`
	TargetDate   *time.Time      `json:"target_date"`
	Notes        string          `json:"notes" binding:"max=2000"`
}

func (r CreateMetricRequest) spec() venture.MetricSpec {
	return venture.MetricSpec{
		MetricCode:   r.MetricCode,
		Name:         r.Name,
		Category:     venture.MetricCategory(r.Category),
		TargetValue:  r.TargetValue,
		CurrentValue: r.CurrentValue,
		Unit:         r.Unit,
		TargetDate:   r.TargetDate,
		Notes:        r.Notes,
	}
}

// UpdateMetricRequest replaces the editable fields of a metric
type UpdateMetricRequest = CreateMetricRequest

// RecordProgressRequest sets the current value of a metric
type RecordProgressRequest struct {
	CurrentValue decimal.Decimal `json:"current_value"`
}

// MetricListQuery holds metric list filters
type MetricListQuery struct {
	VentureID string `form:"venture_id" binding:"omitempty,uuid"`
	Category  string `form:"category" binding:"omitempty,oneof=GENDER DISABILITY SOCIAL_INCLUSION"`
	Status    string `form:"status" binding:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED VERIFIED"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MetricResponse is the API view of a GEDSI metric
type MetricResponse struct {
	ID           uuid.UUID       `json:"id"`
	VentureID    uuid.UUID       `json:"venture_id"`
	MetricCode   string          `json:"metric_code,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	TargetValue  decimal.Decimal `json:"target_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Progress     decimal.Decimal `json:"progress"`
	Unit         string          `json:"unit"`
	Status       string          `json:"status"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToMetricResponse converts a domain metric
func ToMetricResponse(m *venture.GEDSIMetric) MetricResponse {
	return MetricResponse{
		ID:           m.ID,
		VentureID:    m.VentureID,
		MetricCode:   m.MetricCode,
		Name:         m.Name,
		Category:     string(m.Category),
		TargetValue:  m.TargetValue,
		CurrentValue: m.CurrentValue,
		Progress:     m.Progress().Round(4),
		Unit:         m.Unit,
		Status:       string(m.Status),
		TargetDate:   m.TargetDate,
		VerifiedAt:   m.VerifiedAt,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ToMetricResponses converts a slice of metrics
func ToMetricResponses(metrics []*venture.GEDSIMetric) []MetricResponse {
	out := make([]MetricResponse, len(metrics))
	for i, m := range metrics {
		out[i] = ToMetricResponse(m)
	}
	return out
}

// IRISListQuery holds catalog list filters
type IRISListQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GEDSIScoreResponse is the API view of a GEDSI score
type GEDSIScoreResponse struct {
	Total           decimal.Decimal `json:"total"`
	Gender          decimal.Decimal `json:"gender"`
	Disability      decimal.Decimal `json:"disability"`
	SocialInclusion decimal.Decimal `json:"social_inclusion"`
	Rating          string          `json:"rating"`
}

// ToGEDSIScoreResponse converts a score
func ToGEDSIScoreResponse(s venture.GEDSIScore) GEDSIScoreResponse {
	return GEDSIScoreResponse{
		Total:           s.Total,
		Gender:          s.Gender,
		Disability:      s.Disability,
		SocialInclusion: s.SocialInclusion,
		Rating:          string(s.Rating),
	}
}

// DueDiligenceResponse is the API view of a due-diligence score
type DueDiligenceResponse struct {
	Score     int                     `json:"score"`
	Readiness string                  `json:"readiness"`
	Checklist []venture.ChecklistItem `json:"checklist"`
}

// ToDueDiligenceResponse converts a due-diligence score
func ToDueDiligenceResponse(s venture.DueDiligenceScore) DueDiligenceResponse {
	return DueDiligenceResponse{Score: s.Score, Readiness: string(s.Readiness), Checklist: s.Checklist}
}
