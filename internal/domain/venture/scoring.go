package venture

import (
	"github.com/shopspring/decimal"
)

// GEDSI category weights and the split between metric progress and flag bonus
var (
	weightGender          = decimal.RequireFromString("0.4")
	weightDisability      = decimal.RequireFromString("0.3")
	weightSocialInclusion = decimal.RequireFromString("0.3")
	progressPoints        = decimal.NewFromInt(70)
	flagPoints            = decimal.NewFromInt(30)
	hundred               = decimal.NewFromInt(100)
)

// GEDSIRating buckets a GEDSI score
type GEDSIRating string

const (
	GEDSIRatingHigh   GEDSIRating = "HIGH"
	GEDSIRatingMedium GEDSIRating = "MEDIUM"
	GEDSIRatingLow    GEDSIRating = "LOW"
)

// GEDSIScore is the weighted GEDSI score of a venture, 0-100
type GEDSIScore struct {
	Total           decimal.Decimal
	Gender          decimal.Decimal
	Disability      decimal.Decimal
	SocialInclusion decimal.Decimal
	Rating          GEDSIRating
}

// ScoreGEDSI computes the weighted GEDSI score from the venture flags and its metrics
func ScoreGEDSI(v *Venture, metrics []*GEDSIMetric) GEDSIScore {
	byCategory := make(map[MetricCategory][]*GEDSIMetric, 3)
	for _, m := range metrics {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	gender := categoryScore(byCategory[CategoryGender], v.WomenLed)
	disability := categoryScore(byCategory[CategoryDisability], v.DisabilityInclusive)
	social := categoryScore(byCategory[CategorySocialInclusion], v.YouthLed || v.RuralBased)

	total := gender.Mul(weightGender).
		Add(disability.Mul(weightDisability)).
		Add(social.Mul(weightSocialInclusion)).
		Round(2)

	return GEDSIScore{
		Total:           total,
		Gender:          gender.Round(2),
		Disability:      disability.Round(2),
		SocialInclusion: social.Round(2),
		Rating:          rateGEDSI(total),
	}
}

func categoryScore(metrics []*GEDSIMetric, flag bool) decimal.Decimal {
	progress := decimal.Zero
	if len(metrics) > 0 {
		sum := decimal.Zero
		for _, m := range metrics {
			sum = sum.Add(m.Progress())
		}
		progress = sum.Div(decimal.NewFromInt(int64(len(metrics))))
	}
	score := progress.Mul(progressPoints)
	if flag {
		score = score.Add(flagPoints)
	}
	return decimal.Min(score, hundred)
}

func rateGEDSI(total decimal.Decimal) GEDSIRating {
	switch {
	case total.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return GEDSIRatingHigh
	case total.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return GEDSIRatingMedium
	default:
		return GEDSIRatingLow
	}
}

// Document kinds that count as due-diligence evidence
const (
	EvidencePitchDeck          = "PITCH_DECK"
	EvidenceFinancialStatement = "FINANCIAL_STATEMENT"
	EvidenceBusinessPlan       = "BUSINESS_PLAN"
	EvidenceLegal              = "LEGAL"
	EvidenceImpactReport       = "IMPACT_REPORT"
)

// Readiness buckets a due-diligence score
type Readiness string

const (
	ReadinessReady     Readiness = "READY"
	ReadinessNeedsWork Readiness = "NEEDS_WORK"
	ReadinessNotReady  Readiness = "NOT_READY"
)

// ChecklistItem is one scored due-diligence rule
type ChecklistItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Points int    `json:"points"`
	Met    bool   `json:"met"`
}

// DueDiligenceScore is the point total of the checklist, capped at 100
type DueDiligenceScore struct {
	Score     int
	Readiness Readiness
	Checklist []ChecklistItem
}

// ScoreDueDiligence adds up checklist points for the venture.
// documentTypes holds the types of the venture's uploaded documents.
func ScoreDueDiligence(v *Venture, metrics []*GEDSIMetric, documentTypes []string, gedsi GEDSIScore) DueDiligenceScore {
	has := make(map[string]bool, len(documentTypes))
	for _, t := range documentTypes {
		has[t] = true
	}
	verified := 0
	for _, m := range metrics {
		if m.Status == MetricStatusVerified {
			verified++
		}
	}

	checklist := []ChecklistItem{
		{Key: "pitch_deck", Label: "Pitch deck uploaded", Points: 15, Met: has[EvidencePitchDeck]},
		{Key: "financial_statement", Label: "Financial statements uploaded", Points: 20, Met: has[EvidenceFinancialStatement]},
		{Key: "business_plan", Label: "Business plan uploaded", Points: 15, Met: has[EvidenceBusinessPlan]},
		{Key: "legal", Label: "Legal documents uploaded", Points: 10, Met: has[EvidenceLegal]},
		{Key: "impact_report", Label: "Impact report uploaded", Points: 10, Met: has[EvidenceImpactReport]},
		{Key: "revenue", Label: "Generating revenue", Points: 10, Met: v.AnnualRevenue.IsPositive()},
		{Key: "team", Label: "Team of five or more", Points: 5, Met: v.TeamSize >= 5},
		{Key: "gedsi", Label: "GEDSI score of 50 or more", Points: 10, Met: gedsi.Total.GreaterThanOrEqual(decimal.NewFromInt(50))},
		{Key: "verified_metrics", Label: "Three or more verified GEDSI metrics", Points: 5, Met: verified >= 3},
	}

	score := 0
	for _, item := range checklist {
		if item.Met {
			score += item.Points
		}
	}
	if score > 100 {
		score = 100
	}

	readiness := ReadinessNotReady
	switch {
	case score >= 75:
		readiness = ReadinessReady
	case score >= 50:
		readiness = ReadinessNeedsWork
	}

	return DueDiligenceScore{Score: score, Readiness: readiness, Checklist: checklist}
}
