package activity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*ActivityService, *persistence.Database) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewActivityService(persistence.NewGormActivityRepository(db.DB), zap.NewNop()), db
}

func createVenture(t *testing.T, db *persistence.Database, name string) *venture.Venture {
	t.Helper()
	v, err := venture.NewVenture(venture.Profile{Name: name, Sector: "Energy", Location: "Kisumu"}, nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVentureRepository(db.DB).Create(context.Background(), v))
	v.ClearDomainEvents()
	return v
}

func TestActivityService_Record(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "analyst@miv.local", identity.RoleAnalyst)
	v := createVenture(t, db, "Solar Co")

	resp, err := svc.Record(ctx, RecordActivityRequest{
		Title:     "Called founder",
		VentureID: &v.ID,
		UserID:    &user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(activity.TypeNote), resp.Type)
	assert.Equal(t, &user.ID, resp.UserID)

	_, err = svc.Record(ctx, RecordActivityRequest{Type: "VENTURE_CREATED", Title: "fake"})
	assertCode(t, err, "INVALID_ACTIVITY_TYPE")

	_, err = svc.Record(ctx, RecordActivityRequest{Title: "  "})
	assertCode(t, err, "INVALID_TITLE")
}

func TestActivityService_ListAndRecent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := createVenture(t, db, "Alpha")
	b := createVenture(t, db, "Beta")

	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, RecordActivityRequest{Title: "alpha note", VentureID: &a.ID})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, RecordActivityRequest{Type: "CUSTOM", Title: "beta note", VentureID: &b.ID})
	require.NoError(t, err)

	page, err := svc.List(ctx, ActivityListQuery{VentureID: &a.ID, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	page, err = svc.List(ctx, ActivityListQuery{Type: "custom"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "beta note", page.Items[0].Title)

	_, err = svc.List(ctx, ActivityListQuery{Type: "BOGUS"})
	assertCode(t, err, "INVALID_ACTIVITY_TYPE")

	recent, err := svc.Recent(ctx, 1000, nil)
	require.NoError(t, err)
	assert.Len(t, recent, 4)

	recent, err = svc.Recent(ctx, 0, &b.ID)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestEventRecorder_Handle(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	recorder := NewEventRecorder(svc, zap.NewNop())
	user := testutil.CreateUser(t, db, "manager@miv.local", identity.RoleManager)
	v := createVenture(t, db, "Kilimo")

	require.NoError(t, v.ChangeStage(venture.StageScreening, &user.ID))
	for _, e := range v.GetDomainEvents() {
		require.NoError(t, recorder.Handle(ctx, e))
	}

	runID := uuid.New()
	ventureRef := v.ID.String()
	runEvent := &workflow.WorkflowRunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(workflow.EventTypeWorkflowRunFailed, workflow.AggregateTypeWorkflowRun, runID),
		WorkflowID:      uuid.NewString(),
		WorkflowName:    "Onboarding",
		Status:          workflow.RunStatusFailed,
		Error:           "step 1: webhook returned 500",
		StepsRun:        2,
		VentureID:       &ventureRef,
	}
	require.NoError(t, recorder.Handle(ctx, runEvent))

	docEvent := &document.DocumentUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(document.EventTypeDocumentUploaded, document.AggregateTypeDocument, uuid.New()),
		Name:            "pitch.pdf",
		Type:            document.TypePitchDeck,
		VentureID:       &ventureRef,
	}
	require.NoError(t, recorder.Handle(ctx, docEvent))

	page, err := svc.List(ctx, ActivityListQuery{VentureID: &v.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)

	byType := map[string]ActivityResponse{}
	for _, a := range page.Items {
		byType[a.Type] = a
	}
	stage := byType[string(activity.TypeStageChanged)]
	assert.Equal(t, &user.ID, stage.UserID)
	assert.Equal(t, "Kilimo moved to SCREENING", stage.Title)
	assert.Equal(t, "SCREENING", stage.Metadata["to"])

	failed := byType[string(activity.TypeWorkflowFailed)]
	assert.Equal(t, "Workflow failed: Onboarding", failed.Title)
	assert.Equal(t, "step 1: webhook returned 500", failed.Description)
	assert.Equal(t, runID.String(), failed.Metadata["run_id"])

	assert.Contains(t, byType, string(activity.TypeDocumentUploaded))
}

func TestEventRecorder_IgnoresCancelledRuns(t *testing.T) {
	svc, _ := newTestService(t)
	recorder := NewEventRecorder(svc, zap.NewNop())

	ev := &workflow.WorkflowRunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(workflow.EventTypeWorkflowRunCancelled, workflow.AggregateTypeWorkflowRun, uuid.New()),
		Status:          workflow.RunStatusCancelled,
	}
	assert.Error(t, recorder.Handle(context.Background(), ev))
	assert.NotContains(t, recorder.EventTypes(), workflow.EventTypeWorkflowRunCancelled)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}
