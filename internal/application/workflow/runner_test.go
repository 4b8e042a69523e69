package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/cache"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/scheduler"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// behaviour of a named LOG_ACTIVITY step in runner tests
type behaviour func(ctx context.Context, in StepInput) (map[string]any, error)

type runnerFixture struct {
	workflows *persistence.GormWorkflowRepository
	runs      *persistence.GormWorkflowRunRepository
	lock      *cache.InMemoryRunLock
	runner    *Runner
	events    *testutil.RecordingPublisher
	steps     map[string]behaviour
	executors map[workflow.StepType]StepExecutor
}

var testRunnerConfig = RunnerConfig{
	DefaultTimeout: 30 * time.Second,
	StepTimeout:    5 * time.Second,
	LockTTLMargin:  time.Minute,
}

func newTestPool(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.NewScheduler(scheduler.SchedulerConfig{MaxConcurrentJobs: 2, QueueSize: 10, JobTimeout: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func newRunnerFixture(t *testing.T, pool JobSubmitter) *runnerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &runnerFixture{
		workflows: persistence.NewGormWorkflowRepository(db.DB),
		runs:      persistence.NewGormWorkflowRunRepository(db.DB),
		lock:      cache.NewInMemoryRunLock(),
		events:    testutil.NewRecordingPublisher(),
		steps:     map[string]behaviour{},
	}
	if pool == nil {
		pool = newTestPool(t)
	}

	f.executors = map[workflow.StepType]StepExecutor{
		workflow.StepLogActivity: StepExecutorFunc(func(ctx context.Context, in StepInput) (map[string]any, error) {
			if b, ok := f.steps[in.Step.Name]; ok {
				return b(ctx, in)
			}
			return map[string]any{"title": in.Config.String("title")}, nil
		}),
	}
	f.runner = f.newRunner(t, pool, testRunnerConfig)
	return f
}

// newRunner builds another runner over the fixture's database and lock, as a
// second instance sharing Redis would be.
func (f *runnerFixture) newRunner(t *testing.T, pool JobSubmitter, cfg RunnerConfig) *Runner {
	t.Helper()
	r := NewRunner(f.workflows, f.runs, f.lock, pool, f.executors, cfg, zap.NewNop())
	r.SetEventPublisher(f.events)
	t.Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func step(name string) workflow.Step {
	return workflow.Step{Name: name, Type: workflow.StepLogActivity, Config: map[string]any{"title": "{{.ventureName}} " + name}}
}

func (f *runnerFixture) createWorkflow(t *testing.T, timeoutSeconds int, steps ...workflow.Step) *workflow.Workflow {
	t.Helper()
	wf, err := workflow.NewWorkflow(workflow.Definition{
		Name:           "wf-" + uuid.NewString()[:8],
		Steps:          steps,
		TimeoutSeconds: timeoutSeconds,
	}, workflow.ValidationOptions{}, nil)
	require.NoError(t, err)
	require.NoError(t, f.workflows.Create(context.Background(), wf))
	return wf
}

func (f *runnerFixture) start(t *testing.T, wf *workflow.Workflow) *RunResponse {
	t.Helper()
	resp, err := f.runner.Run(context.Background(), RunWorkflowRequest{
		WorkflowID: wf.ID,
		Input:      map[string]any{"ventureName": "Kilimo"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusPending), resp.Status)
	return resp
}

func (f *runnerFixture) waitFinished(t *testing.T, id uuid.UUID) *RunResponse {
	t.Helper()
	var last *RunResponse
	ok := testutil.WaitForCondition(t, func() bool {
		resp, err := f.runner.GetRun(context.Background(), id)
		if err != nil {
			return false
		}
		last = resp
		return workflow.RunStatus(resp.Status).IsTerminal()
	}, 10*time.Second, 10*time.Millisecond)
	require.True(t, ok, "run did not finish")
	return last
}

func (f *runnerFixture) waitUnlocked(t *testing.T, wfID uuid.UUID) {
	t.Helper()
	ok := testutil.WaitForCondition(t, func() bool {
		holder, _ := f.lock.Holder(context.Background(), wfID)
		return holder == ""
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, ok, "run lock was not released")
}

func (f *runnerFixture) waitRunning(t *testing.T, id uuid.UUID) {
	t.Helper()
	ok := testutil.WaitForCondition(t, func() bool {
		resp, err := f.runner.GetRun(context.Background(), id)
		return err == nil && resp.Status == string(workflow.RunStatusRunning)
	}, 5*time.Second, 10*time.Millisecond)
	require.True(t, ok, "run did not start")
}

// blocking returns a step behaviour that signals entry and waits for ctx
func blocking(entered chan<- struct{}) behaviour {
	return func(ctx context.Context, _ StepInput) (map[string]any, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return nil, context.Cause(ctx)
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestRunner_RunSucceeds(t *testing.T) {
	f := newRunnerFixture(t, nil)
	wf := f.createWorkflow(t, 0, step("first"), step("second"))

	resp := f.start(t, wf)
	run := f.waitFinished(t, resp.ID)

	assert.Equal(t, string(workflow.RunStatusSuccess), run.Status)
	require.Len(t, run.Log, 2)
	assert.Equal(t, workflow.StepStatusSuccess, run.Log[0].Status)
	assert.Equal(t, "Kilimo first", run.Log[0].Output["title"])
	assert.Equal(t, 1, run.Log[1].Attempts)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.CompletedAt)

	f.waitUnlocked(t, wf.ID)
	testutil.WaitForCondition(t, func() bool { return len(f.events.Types()) > 0 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, f.events.Types(), workflow.EventTypeWorkflowRunSucceeded)
}

func TestRunner_FailingStepSkipsTheRest(t *testing.T) {
	f := newRunnerFixture(t, nil)
	f.steps["broken"] = func(context.Context, StepInput) (map[string]any, error) {
		return map[string]any{"status": 500}, errors.New("upstream returned 500")
	}
	tolerant := step("tolerant")
	tolerant.ContinueOnError = true
	f.steps["tolerant"] = f.steps["broken"]
	wf := f.createWorkflow(t, 0, step("ok"), tolerant, step("broken"), step("never"))

	run := f.waitFinished(t, f.start(t, wf).ID)

	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Contains(t, run.Error, "step 2 (broken) failed: upstream returned 500")
	require.Len(t, run.Log, 4)
	assert.Equal(t, workflow.StepStatusSuccess, run.Log[0].Status)
	assert.Equal(t, workflow.StepStatusFailed, run.Log[1].Status)
	assert.Equal(t, workflow.StepStatusFailed, run.Log[2].Status)
	assert.EqualValues(t, 500, run.Log[2].Output["status"])
	assert.Equal(t, workflow.StepStatusSkipped, run.Log[3].Status)
	f.waitUnlocked(t, wf.ID)
}

func TestRunner_RetriesUntilSuccess(t *testing.T) {
	f := newRunnerFixture(t, nil)
	var calls atomic.Int32
	f.steps["flaky"] = func(context.Context, StepInput) (map[string]any, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("temporary")
		}
		return map[string]any{}, nil
	}
	flaky := step("flaky")
	flaky.MaxAttempts = 3
	wf := f.createWorkflow(t, 0, flaky)

	run := f.waitFinished(t, f.start(t, wf).ID)

	assert.Equal(t, string(workflow.RunStatusSuccess), run.Status)
	require.Len(t, run.Log, 1)
	assert.Equal(t, 3, run.Log[0].Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRunner_RenderErrorFailsStep(t *testing.T) {
	f := newRunnerFixture(t, nil)
	bad := workflow.Step{Name: "bad", Type: workflow.StepLogActivity, Config: map[string]any{"title": "{{.missing}}"}}
	wf := f.createWorkflow(t, 0, bad)

	run := f.waitFinished(t, f.start(t, wf).ID)

	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Contains(t, run.Log[0].Error, "render config")
}

func TestRunner_OneRunPerWorkflow(t *testing.T) {
	f := newRunnerFixture(t, nil)
	entered := make(chan struct{}, 1)
	f.steps["wait"] = blocking(entered)
	wf := f.createWorkflow(t, 0, step("wait"))

	first := f.start(t, wf)
	<-entered

	_, err := f.runner.Run(context.Background(), RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "WORKFLOW_RUN_IN_PROGRESS")

	cancelled, err := f.runner.Cancel(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusCancelled), cancelled.Status)
	f.waitUnlocked(t, wf.ID)

	// The lock is free again.
	delete(f.steps, "wait")
	second := f.start(t, wf)
	assert.Equal(t, string(workflow.RunStatusSuccess), f.waitFinished(t, second.ID).Status)
}

func TestRunner_Timeout(t *testing.T) {
	f := newRunnerFixture(t, nil)
	f.steps["wait"] = blocking(make(chan struct{}, 1))
	wait := step("wait")
	wait.TimeoutSeconds = 30
	wf := f.createWorkflow(t, 1, wait, step("after"))

	run := f.waitFinished(t, f.start(t, wf).ID)

	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Equal(t, workflow.ErrMsgTimedOut, run.Error)
	require.Len(t, run.Log, 2)
	assert.Equal(t, workflow.StepStatusSkipped, run.Log[1].Status)
	f.waitUnlocked(t, wf.ID)
}

func TestRunner_StopInterruptsRuns(t *testing.T) {
	f := newRunnerFixture(t, nil)
	entered := make(chan struct{}, 1)
	f.steps["wait"] = blocking(entered)
	wf := f.createWorkflow(t, 0, step("wait"))

	resp := f.start(t, wf)
	<-entered
	require.NoError(t, f.runner.Stop(testutil.ContextWithTimeout(t, 5*time.Second)))

	run, err := f.runner.GetRun(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Equal(t, workflow.ErrMsgInterrupted, run.Error)

	_, err = f.runner.Run(context.Background(), RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "SERVICE_UNAVAILABLE")
}

type fullPool struct{}

func (fullPool) SubmitJob(*scheduler.Job) error { return scheduler.ErrJobQueueFull }

func TestRunner_QueueFull(t *testing.T) {
	f := newRunnerFixture(t, fullPool{})
	wf := f.createWorkflow(t, 0, step("only"))

	_, err := f.runner.Run(context.Background(), RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "QUEUE_FULL")

	runs, total, err := f.runs.FindAll(context.Background(), workflow.RunFilter{WorkflowID: &wf.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, workflow.RunStatusFailed, runs[0].Status)
	assert.Equal(t, workflow.ErrMsgQueueFull, runs[0].Error)

	holder, _ := f.lock.Holder(context.Background(), wf.ID)
	assert.Empty(t, holder)
}

// heldPool accepts jobs without running them
type heldPool struct{ jobs []*scheduler.Job }

func (p *heldPool) SubmitJob(job *scheduler.Job) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func TestRunner_CancelQueuedRun(t *testing.T) {
	pool := &heldPool{}
	f := newRunnerFixture(t, pool)
	wf := f.createWorkflow(t, 0, step("only"))

	resp := f.start(t, wf)
	cancelled, err := f.runner.Cancel(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusCancelled), cancelled.Status)

	holder, _ := f.lock.Holder(context.Background(), wf.ID)
	assert.Empty(t, holder)

	// A worker picking the job up later leaves the run alone.
	require.Len(t, pool.jobs, 1)
	require.NoError(t, pool.jobs[0].Run(context.Background()))
	run, err := f.runner.GetRun(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusCancelled), run.Status)
	assert.Empty(t, run.Log)

	_, err = f.runner.Cancel(context.Background(), resp.ID)
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestRunner_CancelOrphanAndRecover(t *testing.T) {
	f := newRunnerFixture(t, &heldPool{})
	wf := f.createWorkflow(t, 0, step("only"))
	ctx := context.Background()

	orphan := workflow.NewWorkflowRun(wf, workflow.TriggerManual, nil, nil)
	require.NoError(t, f.runs.Create(ctx, orphan))
	cancelled, err := f.runner.Cancel(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusCancelled), cancelled.Status)

	// Left RUNNING by a process whose lock has since expired or gone to a newer run.
	stale := workflow.NewWorkflowRun(wf, workflow.TriggerManual, nil, nil)
	require.NoError(t, stale.Start())
	require.NoError(t, f.runs.Create(ctx, stale))
	newer := uuid.NewString()
	_, err = f.lock.Acquire(ctx, wf.ID, newer, time.Hour)
	require.NoError(t, err)

	n, err := f.runner.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	run, err := f.runner.GetRun(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Equal(t, workflow.ErrMsgInterrupted, run.Error)
	holder, _ := f.lock.Holder(ctx, wf.ID)
	assert.Equal(t, newer, holder)
}

func TestRunner_RunsOfAnotherInstanceAreLeftAlone(t *testing.T) {
	f := newRunnerFixture(t, nil)
	entered := make(chan struct{}, 1)
	f.steps["wait"] = blocking(entered)
	wf := f.createWorkflow(t, 0, step("wait"))
	other := f.newRunner(t, newTestPool(t), testRunnerConfig)
	ctx := context.Background()

	first := f.start(t, wf)
	<-entered

	_, err := other.Cancel(ctx, first.ID)
	assertDomainCode(t, err, "CONFLICT")

	n, err := other.Recover(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = other.Run(ctx, RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "WORKFLOW_RUN_IN_PROGRESS")

	run, err := f.runner.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusRunning), run.Status)
	holder, _ := f.lock.Holder(ctx, wf.ID)
	assert.Equal(t, first.ID.String(), holder)

	// The owning instance can still cancel it.
	cancelled, err := f.runner.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.RunStatusCancelled), cancelled.Status)
	f.waitUnlocked(t, wf.ID)
}

// delayedPool runs each job after a fixed queue wait
type delayedPool struct{ wait time.Duration }

func (p delayedPool) SubmitJob(job *scheduler.Job) error {
	go func() {
		time.Sleep(p.wait)
		_ = job.Run(context.Background())
	}()
	return nil
}

func TestRunner_QueueWaitDoesNotShortenLock(t *testing.T) {
	f := newRunnerFixture(t, &heldPool{})
	runner := f.newRunner(t, delayedPool{wait: 1500 * time.Millisecond}, RunnerConfig{
		DefaultTimeout: 30 * time.Second,
		StepTimeout:    5 * time.Second,
		LockTTLMargin:  100 * time.Millisecond,
	})
	entered := make(chan struct{}, 1)
	f.steps["wait"] = blocking(entered)
	wait := step("wait")
	wait.TimeoutSeconds = 30
	wf := f.createWorkflow(t, 2, wait)
	ctx := context.Background()

	first, err := runner.Run(ctx, RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	require.NoError(t, err)
	<-entered
	// Past the ttl taken at submission.
	time.Sleep(800 * time.Millisecond)

	_, err = runner.Run(ctx, RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "WORKFLOW_RUN_IN_PROGRESS")
	holder, _ := f.lock.Holder(ctx, wf.ID)
	assert.Equal(t, first.ID.String(), holder)

	run := f.waitFinished(t, first.ID)
	assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
	assert.Equal(t, workflow.ErrMsgTimedOut, run.Error)
}

func TestRunner_QueuedRunLosingItsLock(t *testing.T) {
	ctx := context.Background()

	t.Run("lock taken by another run", func(t *testing.T) {
		pool := &heldPool{}
		f := newRunnerFixture(t, pool)
		wf := f.createWorkflow(t, 0, step("only"))
		resp := f.start(t, wf)

		require.NoError(t, f.lock.Release(ctx, wf.ID, resp.ID.String()))
		_, err := f.lock.Acquire(ctx, wf.ID, "newer-run", time.Hour)
		require.NoError(t, err)

		require.Len(t, pool.jobs, 1)
		require.NoError(t, pool.jobs[0].Run(ctx))

		run, err := f.runner.GetRun(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, string(workflow.RunStatusFailed), run.Status)
		assert.Equal(t, workflow.ErrMsgLockLost, run.Error)
		assert.Empty(t, run.Log)
		holder, _ := f.lock.Holder(ctx, wf.ID)
		assert.Equal(t, "newer-run", holder)
	})

	t.Run("expired lock still free", func(t *testing.T) {
		pool := &heldPool{}
		f := newRunnerFixture(t, pool)
		wf := f.createWorkflow(t, 0, step("only"))
		resp := f.start(t, wf)

		require.NoError(t, f.lock.Release(ctx, wf.ID, resp.ID.String()))
		require.Len(t, pool.jobs, 1)
		require.NoError(t, pool.jobs[0].Run(ctx))

		run, err := f.runner.GetRun(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, string(workflow.RunStatusSuccess), run.Status)
		f.waitUnlocked(t, wf.ID)
	})
}

func TestRunner_RejectsMissingAndInactive(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	_, err := f.runner.Run(ctx, RunWorkflowRequest{WorkflowID: uuid.New()}, nil)
	assertDomainCode(t, err, "NOT_FOUND")

	wf := f.createWorkflow(t, 0, step("only"))
	wf.Deactivate()
	require.NoError(t, f.workflows.Update(ctx, wf))
	_, err = f.runner.Run(ctx, RunWorkflowRequest{WorkflowID: wf.ID}, nil)
	assertDomainCode(t, err, "INVALID_STATE")

	_, err = f.runner.GetRun(ctx, uuid.New())
	assert.Error(t, err)
}

func TestRunner_ListRuns(t *testing.T) {
	f := newRunnerFixture(t, nil)
	wf := f.createWorkflow(t, 0, step("only"))
	for i := 0; i < 2; i++ {
		f.waitFinished(t, f.start(t, wf).ID)
		f.waitUnlocked(t, wf.ID)
	}

	page, err := f.runner.ListRuns(context.Background(), RunListQuery{WorkflowID: &wf.ID, Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = f.runner.ListRuns(context.Background(), RunListQuery{Status: "FAILED"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
