package venture

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db       *persistence.Database
	ventures *VentureService
	metrics  *MetricService
	iris     *IRISService
	events   *testutil.RecordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	ventureRepo := persistence.NewGormVentureRepository(db.DB)
	irisRepo := persistence.NewGormIRISMetricRepository(db.DB)
	_, err := irisRepo.Upsert(context.Background(), []venture.IRISMetric{
		{Code: "OI1479", Name: "Women employees", Category: "GENDER"},
		{Code: "PI4060", Name: "Employees with disabilities", Category: "DISABILITY"},
	})
	require.NoError(t, err)

	events := testutil.NewRecordingPublisher()
	vs := NewVentureService(ventureRepo, persistence.NewGormUserRepository(db.DB), zap.NewNop())
	vs.SetEventPublisher(events)
	ms := NewMetricService(persistence.NewGormGEDSIMetricRepository(db.DB), ventureRepo, irisRepo, zap.NewNop())
	ms.SetEventPublisher(events)
	return &fixture{db: db, ventures: vs, metrics: ms, iris: NewIRISService(irisRepo), events: events}
}

func (f *fixture) createVenture(t *testing.T, name string) *VentureResponse {
	t.Helper()
	resp, err := f.ventures.Create(context.Background(), CreateVentureRequest{
		Name:          name,
		Sector:        "Agriculture",
		Location:      "Nairobi",
		CapitalSought: decimal.NewFromInt(100000),
		FundingRaised: decimal.NewFromInt(25000),
		WomenLed:      true,
	})
	require.NoError(t, err)
	return resp
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestVentureService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createVenture(t, "Green Harvest")
	assert.Equal(t, "INTAKE", created.Stage)
	assert.Equal(t, "ACTIVE", created.Status)
	assert.Equal(t, "USD", created.Currency)
	assert.True(t, decimal.NewFromInt(75000).Equal(created.FundingGap))
	assert.Equal(t, []string{venture.EventTypeVentureCreated}, f.events.Types())

	got, err := f.ventures.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green Harvest", got.Name)
	assert.True(t, got.WomenLed)

	_, err = f.ventures.GetByID(ctx, uuid.New())
	requireCode(t, err, "NOT_FOUND")
}

func TestVentureService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ventures.Create(ctx, CreateVentureRequest{Name: "No sector"})
	requireCode(t, err, "INVALID_SECTOR")

	_, err = f.ventures.Create(ctx, CreateVentureRequest{Name: "Negative", Sector: "Energy", CapitalSought: decimal.NewFromInt(-1)})
	requireCode(t, err, "INVALID_AMOUNT")

	missing := uuid.New()
	_, err = f.ventures.Create(ctx, CreateVentureRequest{Name: "Ghost owner", Sector: "Energy", AssignedToID: &missing})
	requireCode(t, err, "NOT_FOUND")
}

func TestVentureService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVenture(t, "Solar Co")

	name, team := "Solar Cooperative", 12
	updated, err := f.ventures.Update(ctx, v.ID, UpdateVentureRequest{Name: &name, TeamSize: &team}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Solar Cooperative", updated.Name)
	assert.Equal(t, 12, updated.TeamSize)
	assert.Equal(t, "Agriculture", updated.Sector, "fields absent from the request are kept")
	assert.Greater(t, updated.Version, v.Version)
}

func TestVentureService_ChangeStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVenture(t, "Water Works")

	moved, err := f.ventures.ChangeStage(ctx, v.ID, ChangeStageRequest{Stage: "DUE_DILIGENCE"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "DUE_DILIGENCE", moved.Stage)
	assert.Contains(t, f.events.Types(), venture.EventTypeVentureStageChanged)

	_, err = f.ventures.ChangeStatus(ctx, v.ID, ChangeStatusRequest{Status: "REJECTED"}, nil)
	require.NoError(t, err)

	_, err = f.ventures.ChangeStage(ctx, v.ID, ChangeStageRequest{Stage: "FUNDED"}, nil)
	requireCode(t, err, "INVALID_STATE")
}

func TestVentureService_Assign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVenture(t, "Edu Labs")
	user := testutil.CreateUser(t, f.db, "analyst@miv.local", identity.RoleAnalyst)

	assigned, err := f.ventures.Assign(ctx, v.ID, AssignRequest{UserID: &user.ID}, nil)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, user.ID, *assigned.AssignedToID)

	missing := uuid.New()
	_, err = f.ventures.Assign(ctx, v.ID, AssignRequest{UserID: &missing}, nil)
	requireCode(t, err, "NOT_FOUND")

	cleared, err := f.ventures.Assign(ctx, v.ID, AssignRequest{}, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedToID)
}

func TestVentureService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createVenture(t, "Alpha Farms")
	f.createVenture(t, "Beta Foods")
	_, err := f.ventures.ChangeStage(ctx, a.ID, ChangeStageRequest{Stage: "SCREENING"}, nil)
	require.NoError(t, err)

	page, err := f.ventures.List(ctx, VentureListQuery{Stage: "SCREENING"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Alpha Farms", page.Items[0].Name)

	page, err = f.ventures.List(ctx, VentureListQuery{Search: "foods"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	metric, err := f.metrics.Create(ctx, a.ID, CreateMetricRequest{Name: "Women hired", Category: "GENDER", TargetValue: decimal.NewFromInt(10)})
	require.NoError(t, err)

	require.NoError(t, f.ventures.Delete(ctx, a.ID, nil))
	assert.Contains(t, f.events.Types(), venture.EventTypeVentureDeleted)

	_, err = f.metrics.GetByID(ctx, metric.ID)
	requireCode(t, err, "NOT_FOUND")

	err = f.ventures.Delete(ctx, a.ID, nil)
	requireCode(t, err, "NOT_FOUND")
}

func TestMetricService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVenture(t, "Inclusive Tech")

	m, err := f.metrics.Create(ctx, v.ID, CreateMetricRequest{
		MetricCode:  "oi1479",
		Name:        "Women employees",
		Category:    "GENDER",
		TargetValue: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "OI1479", m.MetricCode)
	assert.Equal(t, "NOT_STARTED", m.Status)

	_, err = f.metrics.Verify(ctx, m.ID, nil)
	requireCode(t, err, "INVALID_STATE")

	m, err = f.metrics.RecordProgress(ctx, m.ID, RecordProgressRequest{CurrentValue: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", m.Status)
	assert.Equal(t, "0.25", m.Progress.String())

	m, err = f.metrics.RecordProgress(ctx, m.ID, RecordProgressRequest{CurrentValue: decimal.NewFromInt(20)})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", m.Status)

	m, err = f.metrics.Verify(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "VERIFIED", m.Status)
	assert.NotNil(t, m.VerifiedAt)
	assert.Contains(t, f.events.Types(), venture.EventTypeMetricVerified)

	list, err := f.metrics.List(ctx, MetricListQuery{VentureID: v.ID.String(), Status: "VERIFIED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	require.NoError(t, f.metrics.Delete(ctx, m.ID))
	requireCode(t, f.metrics.Delete(ctx, m.ID), "NOT_FOUND")
}

func TestMetricService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVenture(t, "Rural Roads")

	_, err := f.metrics.Create(ctx, v.ID, CreateMetricRequest{MetricCode: "XX0000", Name: "Bogus", Category: "GENDER", TargetValue: decimal.NewFromInt(1)})
	requireCode(t, err, "INVALID_METRIC_CODE")

	_, err = f.metrics.Create(ctx, v.ID, CreateMetricRequest{Name: "Zero target", Category: "GENDER"})
	requireCode(t, err, "INVALID_TARGET")

	_, err = f.metrics.Create(ctx, uuid.New(), CreateMetricRequest{Name: "Orphan", Category: "GENDER", TargetValue: decimal.NewFromInt(1)})
	requireCode(t, err, "NOT_FOUND")
}

func TestIRISService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.iris.GetByCode(ctx, " pi4060 ")
	require.NoError(t, err)
	assert.Equal(t, "Employees with disabilities", m.Name)

	_, err = f.iris.GetByCode(ctx, "NOPE")
	requireCode(t, err, "NOT_FOUND")

	page, err := f.iris.List(ctx, IRISListQuery{Category: "gender"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "OI1479", page.Items[0].Code)
}
