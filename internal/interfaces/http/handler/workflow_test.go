package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	workflowapp "github.com/miv/backend/internal/application/workflow"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/cache"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/scheduler"
	"github.com/miv/backend/internal/interfaces/http/dto"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// heldPool accepts jobs without running them, so runs stay PENDING
type heldPool struct {
	mu     sync.Mutex
	jobs   []*scheduler.Job
	reject error
}

func (p *heldPool) SubmitJob(job *scheduler.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject != nil {
		return p.reject
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func newWorkflowRouter(t *testing.T, pool workflowapp.JobSubmitter) (*gin.Engine, *workflowapp.WorkflowService) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	workflows := persistence.NewGormWorkflowRepository(db.DB)
	runs := persistence.NewGormWorkflowRunRepository(db.DB)

	executors := map[workflow.StepType]workflowapp.StepExecutor{
		workflow.StepLogActivity: workflowapp.StepExecutorFunc(func(context.Context, workflowapp.StepInput) (map[string]any, error) {
			return nil, nil
		}),
	}
	runner := workflowapp.NewRunner(workflows, runs, cache.NewInMemoryRunLock(), pool, executors, workflowapp.RunnerConfig{
		DefaultTimeout: time.Minute,
	}, zap.NewNop())
	t.Cleanup(func() { _ = runner.Stop(context.Background()) })

	service := workflowapp.NewWorkflowService(workflows, workflow.ValidationOptions{}, zap.NewNop())
	h := NewWorkflowHandler(service, runner)

	router := gin.New()
	api := router.Group("/api/workflows")
	api.POST("", h.Create)
	api.POST("/run", h.Run)
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
	api.POST("/runs/:id/cancel", h.CancelRun)
	api.POST("/:id/deactivate", h.Deactivate)
	return router, service
}

func createTestWorkflow(t *testing.T, router *gin.Engine) workflowapp.WorkflowResponse {
	t.Helper()
	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows",
		Body: workflowapp.CreateWorkflowRequest{
			Name: "Screening checklist",
			Steps: []workflowapp.StepRequest{{
				Name:   "note",
				Type:   string(workflow.StepLogActivity),
				Config: map[string]any{"title": "Screening started for {{.ventureName}}"},
			}},
		},
	})
	return testutil.DecodeData[workflowapp.WorkflowResponse](t, w, http.StatusCreated)
}

func TestWorkflowHandler_Run(t *testing.T) {
	router, _ := newWorkflowRouter(t, &heldPool{})
	wf := createTestWorkflow(t, router)

	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflowId": wf.ID, "input": map[string]any{"ventureName": "Kilimo"}},
	})
	run := testutil.DecodeData[workflowapp.RunResponse](t, w, http.StatusAccepted)
	assert.Equal(t, wf.ID, run.WorkflowID)
	assert.Equal(t, "PENDING", run.Status)
	assert.Equal(t, "MANUAL", run.Trigger)

	// the first run still holds the lock
	w = testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": wf.ID},
	})
	testutil.AssertError(t, w, http.StatusConflict, dto.ErrCodeRunInProgress)

	w = testutil.Do(t, router, testutil.Request{Path: "/api/workflows/runs?workflow_id=" + wf.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	env := testutil.DecodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta.Total)
}

func TestWorkflowHandler_Run_Validation(t *testing.T) {
	router, _ := newWorkflowRouter(t, &heldPool{})

	w := testutil.Do(t, router, testutil.Request{Method: http.MethodPost, Path: "/api/workflows/run", Body: map[string]any{}})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": testutil.NewTestUUID("missing-workflow")},
	})
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = testutil.Do(t, router, testutil.Request{Path: "/api/workflows/runs?workflow_id=bogus"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestWorkflowHandler_Run_InactiveWorkflow(t *testing.T) {
	router, _ := newWorkflowRouter(t, &heldPool{})
	wf := createTestWorkflow(t, router)

	w := testutil.Do(t, router, testutil.Request{Method: http.MethodPost, Path: "/api/workflows/" + wf.ID.String() + "/deactivate"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": wf.ID},
	})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidState)
}

func TestWorkflowHandler_Run_QueueFull(t *testing.T) {
	router, _ := newWorkflowRouter(t, &heldPool{reject: scheduler.ErrJobQueueFull})
	wf := createTestWorkflow(t, router)

	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": wf.ID},
	})
	testutil.AssertError(t, w, http.StatusServiceUnavailable, dto.ErrCodeQueueFull)
}

func TestWorkflowHandler_CancelQueuedRun(t *testing.T) {
	router, _ := newWorkflowRouter(t, &heldPool{})
	wf := createTestWorkflow(t, router)

	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": wf.ID},
	})
	run := testutil.DecodeData[workflowapp.RunResponse](t, w, http.StatusAccepted)

	w = testutil.Do(t, router, testutil.Request{Method: http.MethodPost, Path: "/api/workflows/runs/" + run.ID.String() + "/cancel"})
	cancelled := testutil.DecodeData[workflowapp.RunResponse](t, w, http.StatusOK)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	w = testutil.Do(t, router, testutil.Request{Method: http.MethodPost, Path: "/api/workflows/runs/" + run.ID.String() + "/cancel"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidState)

	// the lock is released, so the workflow can run again
	w = testutil.Do(t, router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/workflows/run",
		Body:   map[string]any{"workflow_id": wf.ID},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
}
