package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/logger"
	"github.com/miv/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Cancellation causes attached to a run context
var (
	ErrRunCancelled  = errors.New("workflow run cancelled")
	ErrRunTimedOut   = errors.New(workflow.ErrMsgTimedOut)
	ErrRunnerStopped = errors.New("workflow runner stopped")
)

// Domain errors returned to callers
var (
	ErrRunInProgress  = shared.NewDomainError("WORKFLOW_RUN_IN_PROGRESS", "Another run of this workflow is in progress")
	ErrQueueFull      = shared.NewDomainError("QUEUE_FULL", "Workflow queue is full, try again later")
	ErrRunnerDown     = shared.NewDomainError("SERVICE_UNAVAILABLE", "Workflow runner is not accepting runs")
	ErrWorkflowPaused = shared.NewDomainError("INVALID_STATE", "Workflow is inactive")
	ErrRunElsewhere   = shared.NewDomainError("CONFLICT", "Run is held by another instance")
)

// finalWriteTimeout bounds the writes that close a run after its context ended
const finalWriteTimeout = 10 * time.Second

// JobSubmitter queues work on the bounded pool
type JobSubmitter interface {
	SubmitJob(job *scheduler.Job) error
}

// RunMetrics receives run and step outcomes
type RunMetrics interface {
	RunStarted()
	RunEnded()
	RunFinished(status, trigger string, d time.Duration)
	StepExecuted(stepType, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RunStarted()                               {}
func (noopMetrics) RunEnded()                                 {}
func (noopMetrics) RunFinished(string, string, time.Duration) {}
func (noopMetrics) StepExecuted(string, string)               {}

// RunnerConfig holds runner limits
type RunnerConfig struct {
	DefaultTimeout time.Duration
	StepTimeout    time.Duration
	LockTTLMargin  time.Duration
}

// activeRun is the registry entry of a run submitted by this process
type activeRun struct {
	cancel  context.CancelCauseFunc
	done    chan struct{}
	started bool
}

// Runner executes workflow runs on the worker pool. Each run holds the
// workflow's run lock from submission until it finishes. The lock is taken
// for the run timeout plus a margin at submission and renewed for the same
// span when a worker starts the run, so queue time never eats into it.
type Runner struct {
	workflows workflow.WorkflowRepository
	runs      workflow.WorkflowRunRepository
	lock      workflow.RunLock
	pool      JobSubmitter
	executors map[workflow.StepType]StepExecutor
	cfg       RunnerConfig
	publisher shared.EventPublisher
	metrics   RunMetrics
	logger    *zap.Logger

	mu       sync.Mutex
	active   map[uuid.UUID]*activeRun
	stopping bool
	wg       sync.WaitGroup
}

// NewRunner creates a Runner
func NewRunner(
	workflows workflow.WorkflowRepository,
	runs workflow.WorkflowRunRepository,
	lock workflow.RunLock,
	pool JobSubmitter,
	executors map[workflow.StepType]StepExecutor,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 10 * time.Minute
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 30 * time.Second
	}
	if cfg.LockTTLMargin <= 0 {
		cfg.LockTTLMargin = time.Minute
	}
	return &Runner{
		workflows: workflows,
		runs:      runs,
		lock:      lock,
		pool:      pool,
		executors: executors,
		cfg:       cfg,
		metrics:   noopMetrics{},
		logger:    logger,
		active:    make(map[uuid.UUID]*activeRun),
	}
}

// SetEventPublisher sets the publisher for run events
func (r *Runner) SetEventPublisher(publisher shared.EventPublisher) {
	r.publisher = publisher
}

// SetMetrics sets the metrics sink
func (r *Runner) SetMetrics(m RunMetrics) {
	if m != nil {
		r.metrics = m
	}
}

// Run starts a manual run of a workflow
func (r *Runner) Run(ctx context.Context, req RunWorkflowRequest, actor *uuid.UUID) (*RunResponse, error) {
	wf, err := r.workflows.FindByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Workflow")
	}
	return r.Start(ctx, wf, workflow.TriggerManual, req.Input, actor)
}

// Start takes the workflow's run lock, records a pending run and queues it
func (r *Runner) Start(ctx context.Context, wf *workflow.Workflow, trigger workflow.Trigger, input map[string]any, actor *uuid.UUID) (*RunResponse, error) {
	if !wf.IsActive {
		return nil, ErrWorkflowPaused
	}
	if r.isStopping() {
		return nil, ErrRunnerDown
	}

	run := workflow.NewWorkflowRun(wf, trigger, input, actor)
	owner := run.ID.String()
	timeout := wf.Timeout(r.cfg.DefaultTimeout)

	acquired, err := r.lock.Acquire(ctx, wf.ID, owner, timeout+r.cfg.LockTTLMargin)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}

	if err := r.runs.Create(ctx, run); err != nil {
		r.releaseLock(ctx, run)
		return nil, err
	}

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	entry := &activeRun{cancel: cancel, done: make(chan struct{})}
	r.mu.Lock()
	r.active[run.ID] = entry
	r.mu.Unlock()

	// Snapshot before the worker can touch the run.
	resp := ToRunResponse(run)

	job := scheduler.NewJob("workflow:"+wf.Name, func(jobCtx context.Context) error {
		// The pool cancels jobCtx only on Stop; the run deadline lives in execute.
		stop := context.AfterFunc(jobCtx, func() { cancel(ErrRunnerStopped) })
		defer stop()
		r.execute(runCtx, run, wf, entry)
		return nil
	})
	job.Timeout = timeout + r.cfg.LockTTLMargin
	job.OnDiscard = func(error) { r.abandon(run, workflow.ErrMsgInterrupted) }

	if err := r.pool.SubmitJob(job); err != nil {
		msg, domainErr := workflow.ErrMsgQueueFull, ErrQueueFull
		if !errors.Is(err, scheduler.ErrJobQueueFull) {
			msg, domainErr = workflow.ErrMsgInterrupted, ErrRunnerDown
		}
		r.abandon(run, msg)
		r.logger.Warn("Workflow run rejected",
			zap.String("workflow_id", wf.ID.String()),
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return nil, domainErr
	}

	r.logger.Info("Workflow run queued",
		zap.String("workflow_id", wf.ID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", string(trigger)),
	)
	return &resp, nil
}

// claim marks a registered run as started by a worker. It fails when the
// run was cancelled or abandoned before a worker picked it up, and once
// Stop has begun.
func (r *Runner) claim(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.active[id]
	if !ok || entry.started || r.stopping {
		return false
	}
	entry.started = true
	r.wg.Add(1)
	return true
}

// unclaimed removes a run that no worker has started yet from the registry
func (r *Runner) unclaimed(id uuid.UUID) (*activeRun, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.active[id]
	if !ok || entry.started {
		return nil, false
	}
	delete(r.active, id)
	return entry, true
}

func (r *Runner) forget(id uuid.UUID) {
	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()
}

// abandon fails a run that will never execute: rejected by the pool,
// discarded on shutdown or stopped before it started.
func (r *Runner) abandon(run *workflow.WorkflowRun, message string) {
	entry, ok := r.unclaimed(run.ID)
	if !ok {
		return
	}
	entry.cancel(ErrRunnerStopped)
	close(entry.done)

	ctx, cancel := context.WithTimeout(context.Background(), finalWriteTimeout)
	defer cancel()
	if err := run.Fail(message); err == nil {
		r.closeRun(ctx, run)
	}
	r.releaseLock(ctx, run)
}

// execute drives a claimed run to a terminal status. It never returns an
// error: every outcome is recorded on the run.
func (r *Runner) execute(runCtx context.Context, run *workflow.WorkflowRun, wf *workflow.Workflow, entry *activeRun) {
	if !r.claim(run.ID) {
		return
	}
	defer r.wg.Done()
	defer close(entry.done)
	defer r.forget(run.ID)
	defer entry.cancel(nil)

	timeout := wf.Timeout(r.cfg.DefaultTimeout)
	if !r.renewLock(runCtx, run, timeout+r.cfg.LockTTLMargin) {
		return
	}

	ctx, cancel := context.WithTimeoutCause(runCtx, timeout, ErrRunTimedOut)
	defer cancel()
	ctx, log := logger.WithRunID(ctx, r.logger, run.ID.String())

	r.metrics.RunStarted()
	defer r.metrics.RunEnded()

	if ctx.Err() == nil {
		if err := run.Start(); err != nil {
			log.Error("Run could not start", zap.Error(err))
			return
		}
		r.checkpoint(ctx, run)
		log.Info("Workflow run started", zap.String("workflow", wf.Name), zap.Int("steps", len(wf.Steps)))
	}

	failure := r.runSteps(ctx, run, wf.Steps)

	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		switch {
		case errors.Is(cause, ErrRunCancelled):
			_ = run.Cancel("cancelled by user")
		case errors.Is(cause, ErrRunTimedOut):
			_ = run.Fail(workflow.ErrMsgTimedOut)
		case errors.Is(cause, ErrRunnerStopped):
			_ = run.Fail(workflow.ErrMsgInterrupted)
		default:
			_ = run.Fail(cause.Error())
		}
	} else if failure != "" {
		_ = run.Fail(failure)
	} else {
		_ = run.Succeed()
	}

	final, done := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer done()
	r.closeRun(final, run)
	r.releaseLock(final, run)

	log.Info("Workflow run finished",
		zap.String("status", string(run.Status)),
		zap.String("error", run.Error),
		zap.Duration("duration", run.Duration()),
	)
}

// renewLock restarts the lock ttl when a worker picks up the run. A lock
// that expired in the queue is taken again if it is still free. The run is
// not executed when another run holds the lock or another process already
// closed it; in the first case it is failed.
func (r *Runner) renewLock(ctx context.Context, run *workflow.WorkflowRun, ttl time.Duration) bool {
	// A run interrupted right after claim still needs its lock state settled.
	ctx, done := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer done()

	owner := run.ID.String()
	held, err := r.lock.Extend(ctx, run.WorkflowID, owner, ttl)
	if err == nil && !held {
		held, err = r.lock.Acquire(ctx, run.WorkflowID, owner, ttl)
		if err == nil && held {
			if current, findErr := r.runs.FindByID(ctx, run.ID); findErr == nil && current.IsTerminal() {
				r.releaseLock(ctx, run)
				return false
			}
		}
	}
	if err == nil && held {
		return true
	}

	r.logger.Warn("Workflow run lost its lock before starting",
		zap.String("workflow_id", run.WorkflowID.String()),
		zap.String("run_id", owner),
		zap.Error(err),
	)
	if current, findErr := r.runs.FindByID(ctx, run.ID); findErr == nil && current.IsTerminal() {
		return false
	}
	if run.Fail(workflow.ErrMsgLockLost) == nil {
		r.closeRun(ctx, run)
	}
	return false
}

// ownedElsewhere reports whether a run missing from this process's registry
// still holds its workflow's lock, that is, another instance is running it.
func (r *Runner) ownedElsewhere(ctx context.Context, run *workflow.WorkflowRun) (bool, error) {
	holder, err := r.lock.Holder(ctx, run.WorkflowID)
	if err != nil {
		return false, err
	}
	return holder == run.ID.String(), nil
}

// runSteps executes the steps in order and returns the failure that
// stopped the run, if any. Steps not reached are logged as skipped.
func (r *Runner) runSteps(ctx context.Context, run *workflow.WorkflowRun, steps []workflow.Step) string {
	failure := ""
	for i, step := range steps {
		if failure != "" || ctx.Err() != nil {
			run.AppendLog(workflow.StepLog{Index: i, Name: step.DisplayName(), Type: step.Type, Status: workflow.StepStatusSkipped})
			r.metrics.StepExecuted(string(step.Type), "skipped")
			continue
		}

		entry := r.runStep(ctx, i, step, run)
		run.AppendLog(entry)
		r.checkpoint(ctx, run)

		if entry.Status == workflow.StepStatusFailed && !step.ContinueOnError && ctx.Err() == nil {
			failure = fmt.Sprintf("step %d (%s) failed: %s", i, step.DisplayName(), entry.Error)
		}
	}
	return failure
}

// runStep executes one step with retries and returns its log entry
func (r *Runner) runStep(ctx context.Context, index int, step workflow.Step, run *workflow.WorkflowRun) workflow.StepLog {
	started := time.Now()
	entry := workflow.StepLog{Index: index, Name: step.DisplayName(), Type: step.Type, StartedAt: &started}
	finish := func(status workflow.StepStatus, err error) workflow.StepLog {
		now := time.Now()
		entry.Status = status
		entry.FinishedAt = &now
		entry.DurationMs = now.Sub(started).Milliseconds()
		if err != nil {
			entry.Error = err.Error()
		}
		return entry
	}

	executor, ok := r.executors[step.Type]
	if !ok {
		r.metrics.StepExecuted(string(step.Type), "error")
		return finish(workflow.StepStatusFailed, fmt.Errorf("no executor for step type %s", step.Type))
	}
	cfg, err := renderConfig(step.Config, templateData(run))
	if err != nil {
		r.metrics.StepExecuted(string(step.Type), "error")
		return finish(workflow.StepStatusFailed, fmt.Errorf("render config: %w", err))
	}
	in := StepInput{Index: index, Step: step, Config: cfg, Run: run}

	var lastErr error
	for attempt := 1; attempt <= step.Attempts(); attempt++ {
		if attempt > 1 && !sleepCtx(ctx, step.Backoff(attempt-1)) {
			break
		}
		entry.Attempts = attempt

		out, err := r.attempt(ctx, executor, in)
		entry.Output = out
		if err == nil {
			r.metrics.StepExecuted(string(step.Type), "ok")
			return finish(workflow.StepStatusSuccess, nil)
		}
		r.metrics.StepExecuted(string(step.Type), "error")
		lastErr = err
		logger.L(ctx).Warn("Workflow step attempt failed",
			zap.Int("step", index),
			zap.String("type", string(step.Type)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = context.Cause(ctx)
	}
	return finish(workflow.StepStatusFailed, lastErr)
}

// attempt runs the executor under the step timeout. DELAY steps without an
// explicit timeout are bounded by the run deadline only.
func (r *Runner) attempt(ctx context.Context, executor StepExecutor, in StepInput) (out map[string]any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step panicked: %v", p)
		}
	}()
	if in.Step.Type != workflow.StepDelay || in.Step.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Step.Timeout(r.cfg.StepTimeout))
		defer cancel()
	}
	return executor.Execute(ctx, in)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// checkpoint persists the log so far. A failed checkpoint is logged and the
// run continues; the final write carries the full log.
func (r *Runner) checkpoint(ctx context.Context, run *workflow.WorkflowRun) {
	if err := r.runs.Update(ctx, run); err != nil {
		logger.L(ctx).Warn("Failed to checkpoint workflow run", zap.Error(err))
	}
}

// closeRun persists a terminal run and reports it
func (r *Runner) closeRun(ctx context.Context, run *workflow.WorkflowRun) {
	if err := r.runs.Update(ctx, run); err != nil {
		r.logger.Error("Failed to save finished workflow run",
			zap.String("run_id", run.ID.String()),
			zap.String("status", string(run.Status)),
			zap.Error(err),
		)
	}
	r.metrics.RunFinished(string(run.Status), string(run.Trigger), run.Duration())
	r.publish(ctx, run)
}

func (r *Runner) releaseLock(ctx context.Context, run *workflow.WorkflowRun) {
	if err := r.lock.Release(ctx, run.WorkflowID, run.ID.String()); err != nil {
		r.logger.Warn("Failed to release run lock",
			zap.String("workflow_id", run.WorkflowID.String()),
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
}

func (r *Runner) publish(ctx context.Context, run *workflow.WorkflowRun) {
	events := run.GetDomainEvents()
	run.ClearDomainEvents()
	if r.publisher == nil || len(events) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, events...); err != nil {
		r.logger.Warn("Failed to publish run events", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

// Cancel stops a run. Runs executing in this process are cancelled through
// their context; queued runs and runs whose lock no longer names them are
// closed directly. A run still holding its lock in another instance answers
// 409. Finished runs cannot be cancelled.
func (r *Runner) Cancel(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	run, err := r.runs.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Workflow run")
	}
	if run.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", "Run already finished with status "+string(run.Status))
	}

	r.mu.Lock()
	entry, ok := r.active[id]
	executing := ok && entry.started
	if ok && !executing {
		delete(r.active, id)
	}
	r.mu.Unlock()

	if executing {
		entry.cancel(ErrRunCancelled)
		select {
		case <-entry.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return r.GetRun(ctx, id)
	}

	if ok {
		entry.cancel(ErrRunCancelled)
		close(entry.done)
	} else {
		elsewhere, err := r.ownedElsewhere(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("failed to check run lock: %w", err)
		}
		if elsewhere {
			return nil, ErrRunElsewhere
		}
	}
	if err := run.Cancel("cancelled by user"); err != nil {
		return nil, err
	}
	if err := r.runs.Update(ctx, run); err != nil {
		return nil, err
	}
	r.metrics.RunFinished(string(run.Status), string(run.Trigger), run.Duration())
	r.publish(ctx, run)
	r.releaseLock(ctx, run)
	r.logger.Info("Workflow run cancelled before execution", zap.String("run_id", id.String()))

	resp := ToRunResponse(run)
	return &resp, nil
}

// GetRun returns a run
func (r *Runner) GetRun(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	run, err := r.runs.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Workflow run")
	}
	resp := ToRunResponse(run)
	return &resp, nil
}

// ListRuns returns a page of runs, newest first
func (r *Runner) ListRuns(ctx context.Context, q RunListQuery) (*shared.Paginated[RunResponse], error) {
	page, size := max(q.Page, 1), q.PageSize
	if size <= 0 {
		size = 20
	}
	filter := workflow.RunFilter{WorkflowID: q.WorkflowID, Page: page, PageSize: size}
	if q.Status != "" {
		st := workflow.RunStatus(strings.ToUpper(q.Status))
		filter.Status = &st
	}
	items, total, err := r.runs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RunResponse, len(items))
	for i, run := range items {
		out[i] = ToRunResponse(run)
	}
	result := shared.NewPaginated(out, total, page, size)
	return &result, nil
}

// Recover fails open runs that no process owns: not registered here and
// no longer holding their workflow's lock. Runs of other live instances are
// left alone, so it is safe to call at startup and periodically.
func (r *Runner) Recover(ctx context.Context) (int, error) {
	open, err := r.runs.FindByStatuses(ctx, workflow.RunStatusPending, workflow.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to load open workflow runs: %w", err)
	}
	recovered := 0
	for _, run := range open {
		r.mu.Lock()
		_, mine := r.active[run.ID]
		r.mu.Unlock()
		if mine {
			continue
		}
		elsewhere, err := r.ownedElsewhere(ctx, run)
		if err != nil {
			r.logger.Warn("Failed to check run lock", zap.String("run_id", run.ID.String()), zap.Error(err))
			continue
		}
		if elsewhere {
			continue
		}
		// A run of this process that finished since the load is closed already.
		if run, err = r.runs.FindByID(ctx, run.ID); err != nil || run.IsTerminal() {
			continue
		}
		if err := run.Fail(workflow.ErrMsgInterrupted); err != nil {
			continue
		}
		if err := r.runs.Update(ctx, run); err != nil {
			r.logger.Warn("Failed to recover workflow run", zap.String("run_id", run.ID.String()), zap.Error(err))
			continue
		}
		r.publish(ctx, run)
		r.releaseLock(ctx, run)
		recovered++
	}
	if recovered > 0 {
		r.logger.Warn("Recovered interrupted workflow runs", zap.Int("count", recovered))
	}
	return recovered, nil
}

func (r *Runner) isStopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopping
}

// Stop refuses new runs, interrupts the ones in flight and waits for them
// to record their outcome. Queued runs are failed as interrupted.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopping = true
	var queued []uuid.UUID
	for id, entry := range r.active {
		entry.cancel(ErrRunnerStopped)
		if !entry.started {
			queued = append(queued, id)
		}
	}
	r.mu.Unlock()

	for _, id := range queued {
		r.interruptQueued(ctx, id)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.logger.Info("Workflow runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Workflow runner stop timed out")
		return ctx.Err()
	}
}

func (r *Runner) interruptQueued(ctx context.Context, id uuid.UUID) {
	entry, ok := r.unclaimed(id)
	if !ok {
		return
	}
	close(entry.done)
	run, err := r.runs.FindByID(ctx, id)
	if err != nil || run.IsTerminal() {
		return
	}
	if err := run.Fail(workflow.ErrMsgInterrupted); err != nil {
		return
	}
	r.closeRun(ctx, run)
	r.releaseLock(ctx, run)
}
