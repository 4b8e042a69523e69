// Package seed fills an empty database with realistic demo data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repositories the seeder writes to
type Repositories struct {
	Users      identity.UserRepository
	Ventures   venture.VentureRepository
	Metrics    venture.GEDSIMetricRepository
	IRIS       venture.IRISMetricRepository
	Activities activity.ActivityRepository
	Workflows  workflow.WorkflowRepository
}

// Options controls how much data is generated
type Options struct {
	Ventures      int
	AdminEmail    string
	AdminPassword string
	// Seed makes the output reproducible; zero picks a random seed
	Seed uint64
}

// Result counts what was written
type Result struct {
	Users      int
	Ventures   int
	Metrics    int
	Activities int
	Workflows  int
}

// Seeder generates demo data with gofakeit
type Seeder struct {
	repos  Repositories
	faker  *gofakeit.Faker
	logger *zap.Logger
}

// New creates a Seeder
func New(repos Repositories, seed uint64, logger *zap.Logger) *Seeder {
	return &Seeder{repos: repos, faker: gofakeit.New(seed), logger: logger}
}

var sectors = []string{"Agriculture", "Clean Energy", "Fintech", "Healthcare", "Education", "Water & Sanitation", "Logistics"}

var countries = []string{"Kenya", "Uganda", "Tanzania", "Rwanda", "Ghana", "Nigeria", "Ethiopia"}

var fundingTypes = []venture.FundingType{
	venture.FundingTypeGrant,
	venture.FundingTypeEquity,
	venture.FundingTypeDebt,
	venture.FundingTypeBlended,
}

// Run writes the admin account, a few staff users, opts.Ventures ventures
// with GEDSI metrics and activities, and one sample workflow. The admin is
// skipped when its email already exists.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Ventures <= 0 {
		opts.Ventures = 20
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin@miv.local"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "changeme123"
	}

	res := &Result{}
	admin, err := s.ensureAdmin(ctx, opts, res)
	if err != nil {
		return nil, err
	}

	staff := []*identity.User{admin}
	for _, role := range []identity.Role{identity.RoleManager, identity.RoleAnalyst, identity.RoleAnalyst} {
		u, err := s.createUser(ctx, role)
		if err != nil {
			return nil, err
		}
		staff = append(staff, u)
		res.Users++
	}

	codes := s.metricCodes(ctx)
	for i := 0; i < opts.Ventures; i++ {
		owner := staff[s.faker.Number(0, len(staff)-1)]
		v, err := s.createVenture(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("seed venture %d: %w", i, err)
		}
		res.Ventures++

		n, err := s.createMetrics(ctx, v, codes)
		if err != nil {
			return nil, fmt.Errorf("seed metrics for %s: %w", v.Name, err)
		}
		res.Metrics += n

		if err := s.record(ctx, activity.TypeVentureCreated, "Venture created: "+v.Name, owner.UserID(), &v.ID); err != nil {
			return nil, err
		}
		res.Activities++
	}

	if err := s.createWorkflow(ctx, admin); err != nil {
		return nil, err
	}
	res.Workflows++

	s.logger.Info("Demo data seeded",
		zap.Int("users", res.Users),
		zap.Int("ventures", res.Ventures),
		zap.Int("metrics", res.Metrics),
	)
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, opts Options, res *Result) (*identity.User, error) {
	existing, err := s.repos.Users.FindByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	admin, err := identity.NewUser("Platform Admin", opts.AdminEmail, opts.AdminPassword, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	res.Users++
	return admin, nil
}

func (s *Seeder) createUser(ctx context.Context, role identity.Role) (*identity.User, error) {
	first, last := s.faker.FirstName(), s.faker.LastName()
	email := strings.ToLower(fmt.Sprintf("%s.%s.%d@miv.local", first, last, s.faker.Number(100, 999)))
	u, err := identity.NewUser(first+" "+last, email, "password123", role)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(u.Name, s.faker.Company(), s.faker.Phone()); err != nil {
		return nil, err
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Seeder) createVenture(ctx context.Context, owner *identity.User) (*venture.Venture, error) {
	f := s.faker
	sought := decimal.NewFromInt(int64(f.Number(50, 2000)) * 1000)
	raised := sought.Mul(decimal.NewFromFloat(f.Float64Range(0, 0.9))).Round(0)
	review := time.Now().AddDate(0, 0, f.Number(-10, 60)).Truncate(time.Hour)

	p := venture.Profile{
		Name:                f.Company(),
		Description:         f.Sentence(12),
		Sector:              sectors[f.Number(0, len(sectors)-1)],
		Location:            f.City(),
		Country:             countries[f.Number(0, len(countries)-1)],
		FounderName:         f.Name(),
		ContactEmail:        f.Email(),
		ContactPhone:        f.Phone(),
		Website:             f.URL(),
		FoundedYear:         f.Number(2010, time.Now().Year()),
		AnnualRevenue:       decimal.NewFromInt(int64(f.Number(0, 800)) * 1000),
		FundingRaised:       raised,
		CapitalSought:       sought,
		Currency:            "USD",
		FundingType:         fundingTypes[f.Number(0, len(fundingTypes)-1)],
		TeamSize:            f.Number(2, 60),
		JobsCreated:         f.Number(0, 150),
		WomenLed:            f.Bool(),
		YouthLed:            f.Bool(),
		DisabilityInclusive: f.Number(0, 3) == 0,
		RuralBased:          f.Bool(),
		NextReviewAt:        &review,
	}
	v, err := venture.NewVenture(p, owner.UserID())
	if err != nil {
		return nil, err
	}
	v.AssignTo(owner.UserID(), owner.UserID())
	if stage := venture.AllStages[f.Number(0, len(venture.AllStages)-1)]; stage != venture.StageIntake {
		if err := v.ChangeStage(stage, owner.UserID()); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Ventures.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// metricCodes groups catalog codes by category; an empty catalog yields
// metrics without codes.
func (s *Seeder) metricCodes(ctx context.Context) map[venture.MetricCategory][]venture.IRISMetric {
	out := map[venture.MetricCategory][]venture.IRISMetric{}
	if s.repos.IRIS == nil {
		return out
	}
	all, _, err := s.repos.IRIS.FindAll(ctx, venture.IRISFilter{Page: 1, PageSize: 100})
	if err != nil {
		s.logger.Warn("IRIS+ catalog unavailable, seeding metrics without codes", zap.Error(err))
		return out
	}
	for _, m := range all {
		c := venture.MetricCategory(m.Category)
		out[c] = append(out[c], m)
	}
	return out
}

func (s *Seeder) createMetrics(ctx context.Context, v *venture.Venture, codes map[venture.MetricCategory][]venture.IRISMetric) (int, error) {
	f := s.faker
	count := 0
	for _, cat := range venture.AllCategories {
		for n := f.Number(0, 2); n > 0; n-- {
			target := decimal.NewFromInt(int64(f.Number(5, 100)))
			current := target.Mul(decimal.NewFromFloat(f.Float64Range(0, 1.2))).Round(0)
			due := time.Now().AddDate(0, f.Number(1, 12), 0).Truncate(24 * time.Hour)

			spec := venture.MetricSpec{
				Name:         strings.ToLower(string(cat)) + " target",
				Category:     cat,
				TargetValue:  target,
				CurrentValue: current,
				Unit:         "Number",
				TargetDate:   &due,
			}
			if opts := codes[cat]; len(opts) > 0 {
				pick := opts[f.Number(0, len(opts)-1)]
				spec.MetricCode, spec.Name, spec.Unit = pick.Code, pick.Name, pick.Unit
			}

			m, err := venture.NewGEDSIMetric(v.ID, spec)
			if err != nil {
				return count, err
			}
			if m.Status == venture.MetricStatusCompleted && f.Bool() {
				if err := m.Verify(v.AssignedToID); err != nil {
					return count, err
				}
			}
			if err := s.repos.Metrics.Create(ctx, m); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) record(ctx context.Context, t activity.Type, title string, userID, ventureID *uuid.UUID) error {
	a, err := activity.NewActivity(t, title, "", userID, ventureID, map[string]any{"source": "seed"})
	if err != nil {
		return err
	}
	return s.repos.Activities.Create(ctx, a)
}

func (s *Seeder) createWorkflow(ctx context.Context, admin *identity.User) error {
	wf, err := workflow.NewWorkflow(workflow.Definition{
		Name:        "Welcome new venture",
		Description: "Notifies the assignee and logs the intake of every new venture",
		Trigger:     workflow.TriggerVentureCreated,
		Steps: []workflow.Step{
			{
				Name: "Notify assignee",
				Type: workflow.StepCreateNotification,
				Config: map[string]any{
					"userId":  workflow.AssigneeRecipient,
					"title":   "New venture: {{.ventureName}}",
					"message": "{{.ventureName}} entered the pipeline.",
					"link":    "/ventures/{{.ventureId}}",
				},
				ContinueOnError: true,
			},
			{
				Name:   "Log intake",
				Type:   workflow.StepLogActivity,
				Config: map[string]any{"title": "Intake started for {{.ventureName}}"},
			},
		},
	}, workflow.ValidationOptions{}, admin.UserID())
	if err != nil {
		return err
	}
	return s.repos.Workflows.Create(ctx, wf)
}
