package dashboard

import (
	"time"

	"github.com/google/uuid"
	activityapp "github.com/miv/backend/internal/application/activity"
	documentapp "github.com/miv/backend/internal/application/document"
	ventureapp "github.com/miv/backend/internal/application/venture"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/shopspring/decimal"
)

// OverviewResponse is the landing page summary
type OverviewResponse struct {
	TotalVentures       int64                          `json:"total_ventures"`
	VenturesByStage     map[string]int64               `json:"ventures_by_stage"`
	VenturesByStatus    map[string]int64               `json:"ventures_by_status"`
	TotalUsers          int64                          `json:"total_users"`
	UnreadNotifications int64                          `json:"unread_notifications"`
	RunsByStatus        map[string]int64               `json:"runs_by_status"`
	RecentActivity      []activityapp.ActivityResponse `json:"recent_activity"`
}

// CalendarQuery bounds the calendar window. Dates are YYYY-MM-DD or RFC 3339.
type CalendarQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Calendar event kinds
const (
	EventReview         = "REVIEW"
	EventMetricTarget   = "METRIC_TARGET"
	EventDocumentExpiry = "DOCUMENT_EXPIRY"
)

// CalendarEvent is one dated item on the calendar
type CalendarEvent struct {
	Date      time.Time  `json:"date"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	VentureID *uuid.UUID `json:"venture_id,omitempty"`
	RefID     uuid.UUID  `json:"ref_id"`
}

// CalendarResponse lists events in [From, To), sorted by date
type CalendarResponse struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Events []CalendarEvent `json:"events"`
}

// CapitalBucketResponse is one group of the capital breakdown
type CapitalBucketResponse struct {
	Key           string          `json:"key"`
	Ventures      int64           `json:"ventures"`
	CapitalSought decimal.Decimal `json:"capital_sought"`
	FundingRaised decimal.Decimal `json:"funding_raised"`
	FundingGap    decimal.Decimal `json:"funding_gap"`
}

// VentureGap ranks a venture by unmet capital need
type VentureGap struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Stage         string          `json:"stage"`
	Sector        string          `json:"sector"`
	Currency      string          `json:"currency"`
	CapitalSought decimal.Decimal `json:"capital_sought"`
	FundingRaised decimal.Decimal `json:"funding_raised"`
	FundingGap    decimal.Decimal `json:"funding_gap"`
}

// CapitalResponse summarises capital over active ventures
type CapitalResponse struct {
	Ventures      int64                   `json:"ventures"`
	CapitalSought decimal.Decimal         `json:"capital_sought"`
	FundingRaised decimal.Decimal         `json:"funding_raised"`
	FundingGap    decimal.Decimal         `json:"funding_gap"`
	ByStage       []CapitalBucketResponse `json:"by_stage"`
	BySector      []CapitalBucketResponse `json:"by_sector"`
	ByFundingType []CapitalBucketResponse `json:"by_funding_type"`
	TopGaps       []VentureGap            `json:"top_gaps"`
}

// ImpactCount is a count with its share of all ventures, in percent
type ImpactCount struct {
	Count   int64           `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

// VentureScore ranks a venture by GEDSI score
type VentureScore struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Sector string          `json:"sector"`
	Score  decimal.Decimal `json:"score"`
	Rating string          `json:"rating"`
}

// SocialImpactResponse summarises GEDSI outcomes over non-archived ventures
type SocialImpactResponse struct {
	Ventures            int64                       `json:"ventures"`
	WomenLed            ImpactCount                 `json:"women_led"`
	YouthLed            ImpactCount                 `json:"youth_led"`
	DisabilityInclusive ImpactCount                 `json:"disability_inclusive"`
	RuralBased          ImpactCount                 `json:"rural_based"`
	JobsCreated         int64                       `json:"jobs_created"`
	AverageGEDSIScore   decimal.Decimal             `json:"average_gedsi_score"`
	MetricsByCategory   map[string]int64            `json:"metrics_by_category"`
	MetricsByStatus     map[string]int64            `json:"metrics_by_status"`
	MetricMatrix        map[string]map[string]int64 `json:"metric_matrix"`
	TopVentures         []VentureScore              `json:"top_ventures"`
}

// DueDiligenceItem is a pipeline venture with its readiness
type DueDiligenceItem struct {
	ID        uuid.UUID                     `json:"id"`
	Name      string                        `json:"name"`
	Stage     string                        `json:"stage"`
	Sector    string                        `json:"sector"`
	Score     int                           `json:"score"`
	Readiness string                        `json:"readiness"`
	Checklist []venture.ChecklistItem       `json:"checklist"`
	GEDSI     ventureapp.GEDSIScoreResponse `json:"gedsi"`
}

// VentureDetailResponse is everything shown on a venture page
type VentureDetailResponse struct {
	Venture      ventureapp.VentureResponse      `json:"venture"`
	Metrics      []ventureapp.MetricResponse     `json:"metrics"`
	Documents    []documentapp.DocumentResponse  `json:"documents"`
	Activities   []activityapp.ActivityResponse  `json:"activities"`
	GEDSI        ventureapp.GEDSIScoreResponse   `json:"gedsi"`
	DueDiligence ventureapp.DueDiligenceResponse `json:"due_diligence"`
}
