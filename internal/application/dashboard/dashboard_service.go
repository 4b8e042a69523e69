package dashboard

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	activityapp "github.com/miv/backend/internal/application/activity"
	documentapp "github.com/miv/backend/internal/application/document"
	ventureapp "github.com/miv/backend/internal/application/venture"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/notification"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentActivityLimit = 10
	detailActivityLimit = 20
	topLimit            = 10
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidWindow is returned for a calendar window that ends before it starts
var ErrInvalidWindow = shared.NewDomainError("INVALID_WINDOW", "Calendar 'to' must not be before 'from'")

// Repositories groups the read sides the dashboard aggregates over
type Repositories struct {
	Ventures      venture.VentureRepository
	Metrics       venture.GEDSIMetricRepository
	Documents     document.DocumentRepository
	Users         identity.UserRepository
	Notifications notification.NotificationRepository
	Runs          workflow.WorkflowRunRepository
	Activities    activity.ActivityRepository
}

// DashboardService computes read-only summaries. Independent queries of one
// view run concurrently.
type DashboardService struct {
	repos  Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repos Repositories, logger *zap.Logger) *DashboardService {
	return &DashboardService{repos: repos, logger: logger, now: time.Now}
}

// Overview returns portfolio counts, the caller's unread count and recent activity
func (s *DashboardService) Overview(ctx context.Context, userID uuid.UUID) (*OverviewResponse, error) {
	var (
		byStage  map[venture.Stage]int64
		byStatus map[venture.Status]int64
		runs     map[workflow.RunStatus]int64
		recent   []*activity.Activity
		resp     OverviewResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStage, err = s.repos.Ventures.CountByStage(gctx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.repos.Ventures.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		resp.TotalUsers, err = s.repos.Users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		resp.UnreadNotifications, err = s.repos.Notifications.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		runs, err = s.repos.Runs.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.repos.Activities.Recent(gctx, recentActivityLimit, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.VenturesByStage = make(map[string]int64, len(venture.AllStages))
	for _, st := range venture.AllStages {
		n := byStage[st]
		resp.VenturesByStage[string(st)] = n
		resp.TotalVentures += n
	}
	resp.VenturesByStatus = make(map[string]int64, len(venture.AllStatuses))
	for _, st := range venture.AllStatuses {
		resp.VenturesByStatus[string(st)] = byStatus[st]
	}
	resp.RunsByStatus = make(map[string]int64, len(workflow.AllRunStatuses))
	for _, st := range workflow.AllRunStatuses {
		resp.RunsByStatus[string(st)] = runs[st]
	}
	resp.RecentActivity = activityapp.ToActivityResponses(recent)
	return &resp, nil
}

// Calendar returns reviews, metric targets and document expiries in the
// window [From, To), defaulting to the current month. A date-only 'to'
// includes events on that day.
func (s *DashboardService) Calendar(ctx context.Context, q CalendarQuery) (*CalendarResponse, error) {
	from, to, err := s.window(q)
	if err != nil {
		return nil, err
	}

	var (
		reviews  []*venture.Venture
		targets  []*venture.GEDSIMetric
		expiring []*document.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reviews, err = s.repos.Ventures.FindReviewsBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		targets, err = s.repos.Metrics.FindTargetsBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		expiring, err = s.repos.Documents.FindExpiringBetween(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(reviews)+len(targets)+len(expiring))
	for _, v := range reviews {
		id := v.ID
		events = append(events, CalendarEvent{
			Date: *v.NextReviewAt, Type: EventReview, Title: "Review: " + v.Name, VentureID: &id, RefID: v.ID,
		})
	}
	for _, m := range targets {
		id := m.VentureID
		events = append(events, CalendarEvent{
			Date: *m.TargetDate, Type: EventMetricTarget, Title: "Target: " + m.Name, VentureID: &id, RefID: m.ID,
		})
	}
	for _, d := range expiring {
		events = append(events, CalendarEvent{
			Date: *d.ExpiresAt, Type: EventDocumentExpiry, Title: "Expires: " + d.Name, VentureID: d.VentureID, RefID: d.ID,
		})
	}
	slices.SortStableFunc(events, func(a, b CalendarEvent) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Type, b.Type)
	})

	return &CalendarResponse{From: from, To: to, Events: events}, nil
}

func (s *DashboardService) window(q CalendarQuery) (time.Time, time.Time, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if q.From != "" {
		t, err := parseDate(q.From)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_DATE", "Invalid 'from' date: "+q.From)
		}
		from = t
		if q.To == "" {
			to = from.AddDate(0, 1, 0)
		}
	}
	if q.To != "" {
		t, err := parseDate(q.To)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_DATE", "Invalid 'to' date: "+q.To)
		}
		if q.From == "" {
			from = t.AddDate(0, -1, 0)
		}
		to = t
		// A bare date includes that whole day; the window end is exclusive.
		if _, err := time.Parse(time.DateOnly, q.To); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Capital summarises capital sought, raised and the funding gap over active ventures
func (s *DashboardService) Capital(ctx context.Context) (*CapitalResponse, error) {
	var (
		all                       []*venture.Venture
		byStage, bySector, byType []venture.CapitalBucket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = s.repos.Ventures.FindByStages(gctx, venture.AllStages...)
		return err
	})
	g.Go(func() (err error) {
		byStage, err = s.repos.Ventures.CapitalSummary(gctx, venture.GroupByStage)
		return err
	})
	g.Go(func() (err error) {
		bySector, err = s.repos.Ventures.CapitalSummary(gctx, venture.GroupBySector)
		return err
	})
	g.Go(func() (err error) {
		byType, err = s.repos.Ventures.CapitalSummary(gctx, venture.GroupByFundingType)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &CapitalResponse{
		CapitalSought: decimal.Zero,
		FundingRaised: decimal.Zero,
		FundingGap:    decimal.Zero,
		ByStage:       toBuckets(byStage),
		BySector:      toBuckets(bySector),
		ByFundingType: toBuckets(byType),
	}
	gaps := make([]VentureGap, 0, len(all))
	for _, v := range all {
		if v.Status != venture.StatusActive {
			continue
		}
		gap := v.FundingGap().Amount()
		resp.Ventures++
		resp.CapitalSought = resp.CapitalSought.Add(v.CapitalSought)
		resp.FundingRaised = resp.FundingRaised.Add(v.FundingRaised)
		resp.FundingGap = resp.FundingGap.Add(gap)
		gaps = append(gaps, VentureGap{
			ID:            v.ID,
			Name:          v.Name,
			Stage:         string(v.Stage),
			Sector:        v.Sector,
			Currency:      string(v.Currency),
			CapitalSought: v.CapitalSought,
			FundingRaised: v.FundingRaised,
			FundingGap:    gap,
		})
	}
	slices.SortStableFunc(gaps, func(a, b VentureGap) int {
		return cmp.Or(b.FundingGap.Cmp(a.FundingGap), strings.Compare(a.Name, b.Name))
	})
	resp.TopGaps = gaps[:min(len(gaps), topLimit)]
	return resp, nil
}

func toBuckets(rows []venture.CapitalBucket) []CapitalBucketResponse {
	out := make([]CapitalBucketResponse, len(rows))
	for i, r := range rows {
		out[i] = CapitalBucketResponse{
			Key:           r.Key,
			Ventures:      r.Ventures,
			CapitalSought: r.CapitalSought,
			FundingRaised: r.FundingRaised,
			FundingGap:    r.FundingGap,
		}
	}
	return out
}

// SocialImpact summarises impact flags, jobs and GEDSI scores over non-archived ventures
func (s *DashboardService) SocialImpact(ctx context.Context) (*SocialImpactResponse, error) {
	var (
		summary *venture.ImpactSummary
		matrix  map[venture.MetricCategory]map[venture.MetricStatus]int64
		all     []*venture.Venture
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = s.repos.Ventures.ImpactSummary(gctx)
		return err
	})
	g.Go(func() (err error) {
		matrix, err = s.repos.Metrics.CountByCategoryAndStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		all, err = s.repos.Ventures.FindByStages(gctx, venture.AllStages...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	live := slices.DeleteFunc(all, func(v *venture.Venture) bool { return v.Status == venture.StatusArchived })
	metrics, err := s.repos.Metrics.FindByVentures(ctx, ventureIDs(live))
	if err != nil {
		return nil, err
	}

	resp := &SocialImpactResponse{
		Ventures:            summary.Ventures,
		WomenLed:            share(summary.WomenLed, summary.Ventures),
		YouthLed:            share(summary.YouthLed, summary.Ventures),
		DisabilityInclusive: share(summary.DisabilityInclusive, summary.Ventures),
		RuralBased:          share(summary.RuralBased, summary.Ventures),
		JobsCreated:         summary.JobsCreated,
		AverageGEDSIScore:   decimal.Zero,
		MetricsByCategory:   make(map[string]int64, len(venture.AllCategories)),
		MetricsByStatus:     make(map[string]int64, len(venture.AllMetricStatuses)),
		MetricMatrix:        make(map[string]map[string]int64, len(venture.AllCategories)),
	}
	for _, c := range venture.AllCategories {
		row := make(map[string]int64, len(venture.AllMetricStatuses))
		for _, st := range venture.AllMetricStatuses {
			n := matrix[c][st]
			row[string(st)] = n
			resp.MetricsByCategory[string(c)] += n
			resp.MetricsByStatus[string(st)] += n
		}
		resp.MetricMatrix[string(c)] = row
	}

	scores := make([]VentureScore, 0, len(live))
	total := decimal.Zero
	for _, v := range live {
		sc := venture.ScoreGEDSI(v, metrics[v.ID])
		total = total.Add(sc.Total)
		scores = append(scores, VentureScore{
			ID: v.ID, Name: v.Name, Sector: v.Sector, Score: sc.Total, Rating: string(sc.Rating),
		})
	}
	if len(scores) > 0 {
		resp.AverageGEDSIScore = total.Div(decimal.NewFromInt(int64(len(scores)))).Round(1)
	}
	slices.SortStableFunc(scores, func(a, b VentureScore) int {
		return cmp.Or(b.Score.Cmp(a.Score), strings.Compare(a.Name, b.Name))
	})
	resp.TopVentures = scores[:min(len(scores), topLimit)]
	return resp, nil
}

func share(n, of int64) ImpactCount {
	if of == 0 {
		return ImpactCount{Count: n, Percent: decimal.Zero}
	}
	return ImpactCount{Count: n, Percent: decimal.NewFromInt(n).Mul(hundred).Div(decimal.NewFromInt(of)).Round(1)}
}

// DueDiligence ranks ventures in screening or due diligence by readiness score
func (s *DashboardService) DueDiligence(ctx context.Context) ([]DueDiligenceItem, error) {
	pipeline, err := s.repos.Ventures.FindByStages(ctx, venture.StageScreening, venture.StageDueDiligence)
	if err != nil {
		return nil, err
	}
	ids := ventureIDs(pipeline)

	var (
		metrics map[uuid.UUID][]*venture.GEDSIMetric
		types   map[uuid.UUID][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics, err = s.repos.Metrics.FindByVentures(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		types, err = s.repos.Documents.UploadedTypesByVenture(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]DueDiligenceItem, 0, len(pipeline))
	for _, v := range pipeline {
		gedsi := venture.ScoreGEDSI(v, metrics[v.ID])
		dd := venture.ScoreDueDiligence(v, metrics[v.ID], types[v.ID], gedsi)
		items = append(items, DueDiligenceItem{
			ID:        v.ID,
			Name:      v.Name,
			Stage:     string(v.Stage),
			Sector:    v.Sector,
			Score:     dd.Score,
			Readiness: string(dd.Readiness),
			Checklist: dd.Checklist,
			GEDSI:     ventureapp.ToGEDSIScoreResponse(gedsi),
		})
	}
	slices.SortStableFunc(items, func(a, b DueDiligenceItem) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), strings.Compare(a.Name, b.Name))
	})
	return items, nil
}

// VentureDetail returns a venture with its metrics, documents, recent activity and scores
func (s *DashboardService) VentureDetail(ctx context.Context, id uuid.UUID) (*VentureDetailResponse, error) {
	v, err := s.repos.Ventures.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Venture")
	}

	var (
		metrics []*venture.GEDSIMetric
		docs    []*document.Document
		recent  []*activity.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics, err = s.repos.Metrics.FindByVenture(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		docs, err = s.repos.Documents.FindByVenture(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.repos.Activities.Recent(gctx, detailActivityLimit, &id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var uploaded []string
	for _, d := range docs {
		if d.IsUploaded() && !slices.Contains(uploaded, string(d.Type)) {
			uploaded = append(uploaded, string(d.Type))
		}
	}
	gedsi := venture.ScoreGEDSI(v, metrics)
	dd := venture.ScoreDueDiligence(v, metrics, uploaded, gedsi)

	return &VentureDetailResponse{
		Venture:      ventureapp.ToVentureResponse(v),
		Metrics:      ventureapp.ToMetricResponses(metrics),
		Documents:    documentapp.ToDocumentResponses(docs),
		Activities:   activityapp.ToActivityResponses(recent),
		GEDSI:        ventureapp.ToGEDSIScoreResponse(gedsi),
		DueDiligence: ventureapp.ToDueDiligenceResponse(dd),
	}, nil
}

func ventureIDs(vs []*venture.Venture) []uuid.UUID {
	ids := make([]uuid.UUID, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}
