package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWorkflowService(t *testing.T) *WorkflowService {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewWorkflowService(persistence.NewGormWorkflowRepository(db.DB), workflow.ValidationOptions{MaxDelaySeconds: 600}, zap.NewNop())
}

func onboardingRequest() CreateWorkflowRequest {
	return CreateWorkflowRequest{
		Name:    "Onboarding",
		Trigger: "VENTURE_CREATED",
		Steps: []StepRequest{
			{Name: "welcome", Type: "SEND_EMAIL", Config: map[string]any{"to": "{{.contactEmail}}", "subject": "Welcome", "body": "Hello {{.ventureName}}"}},
			{Name: "notify", Type: "CREATE_NOTIFICATION", Config: map[string]any{"userId": "assignee", "title": "New venture"}},
			{Name: "wait", Type: "DELAY", Config: map[string]any{"seconds": float64(30)}},
		},
	}
}

func TestWorkflowService_CreateAndGet(t *testing.T) {
	svc := newWorkflowService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, onboardingRequest())
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, "VENTURE_CREATED", created.Trigger)
	require.Len(t, created.Steps, 3)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", got.Name)
	assert.Equal(t, workflow.StepDelay, got.Steps[2].Type)
	assert.Equal(t, "assignee", got.Steps[1].Config["userId"])

	_, err = svc.GetByID(ctx, uuid.New())
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestWorkflowService_CreateValidation(t *testing.T) {
	svc := newWorkflowService(t)
	ctx := context.Background()

	req := onboardingRequest()
	req.Steps[1].Config = map[string]any{"title": "missing user"}
	_, err := svc.Create(ctx, req)
	assertDomainCode(t, err, "INVALID_STEP")
	assert.ErrorContains(t, err, "step 1")

	req = onboardingRequest()
	req.Steps[2].Config = map[string]any{"seconds": float64(601)}
	_, err = svc.Create(ctx, req)
	assert.ErrorContains(t, err, "step 2")

	req = onboardingRequest()
	req.Steps = append(req.Steps, StepRequest{Type: "PRINT"})
	_, err = svc.Create(ctx, req)
	assert.ErrorContains(t, err, "step 3")

	req = onboardingRequest()
	req.Steps = nil
	_, err = svc.Create(ctx, req)
	assertDomainCode(t, err, "INVALID_STEP")
}

func TestWorkflowService_UpdateAndToggle(t *testing.T) {
	svc := newWorkflowService(t)
	ctx := context.Background()
	inactive := false
	req := onboardingRequest()
	req.IsActive = &inactive
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, created.IsActive)

	name := "Onboarding v2"
	timeout := 120
	updated, err := svc.Update(ctx, created.ID, UpdateWorkflowRequest{Name: &name, TimeoutSeconds: &timeout})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 120, updated.TimeoutSeconds)
	assert.Len(t, updated.Steps, 3)

	_, err = svc.Update(ctx, created.ID, UpdateWorkflowRequest{Steps: []StepRequest{{Type: "WEBHOOK", Config: map[string]any{"url": "ftp://x"}}}})
	assertDomainCode(t, err, "INVALID_STEP")

	activated, err := svc.Activate(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	deactivated, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}

func TestWorkflowService_ListAndDelete(t *testing.T) {
	svc := newWorkflowService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, onboardingRequest())
	require.NoError(t, err)
	manual := onboardingRequest()
	manual.Name = "Quarterly check-in"
	manual.Trigger = ""
	_, err = svc.Create(ctx, manual)
	require.NoError(t, err)

	page, err := svc.List(ctx, WorkflowListQuery{Trigger: "MANUAL"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Quarterly check-in", page.Items[0].Name)

	page, err = svc.List(ctx, WorkflowListQuery{Search: "onboard"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assertDomainCode(t, svc.Delete(ctx, first.ID), "NOT_FOUND")

	page, err = svc.List(ctx, WorkflowListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
