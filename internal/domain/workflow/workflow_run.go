package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
)

// RunStatus is the state of a workflow run
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSuccess   RunStatus = "SUCCESS"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// AllRunStatuses lists every run status
var AllRunStatuses = []RunStatus{RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusFailed, RunStatusCancelled}

// IsTerminal reports whether the status can no longer change
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusCancelled
}

// StepStatus is the outcome of one step in a run
type StepStatus string

const (
	StepStatusSuccess StepStatus = "SUCCESS"
	StepStatusFailed  StepStatus = "FAILED"
	StepStatusSkipped StepStatus = "SKIPPED"
)

// Run failure messages
const (
	ErrMsgTimedOut    = "workflow run timed out"
	ErrMsgInterrupted = "interrupted"
	ErrMsgQueueFull   = "queue full"
	ErrMsgLockLost    = "run lock lost while queued"
)

// StepLog is the persisted record of one executed (or skipped) step
type StepLog struct {
	Index      int            `json:"index"`
	Name       string         `json:"name"`
	Type       StepType       `json:"type"`
	Status     StepStatus     `json:"status"`
	Attempts   int            `json:"attempts"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// WorkflowRun is a single execution of a workflow
type WorkflowRun struct {
	shared.BaseAggregateRoot
	WorkflowID    uuid.UUID
	WorkflowName  string
	Status        RunStatus
	Trigger       Trigger
	Input         map[string]any
	Log           []StepLog
	Error         string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	TriggeredByID *uuid.UUID
}

// NewWorkflowRun creates a pending run of wf
func NewWorkflowRun(wf *Workflow, trigger Trigger, input map[string]any, triggeredBy *uuid.UUID) *WorkflowRun {
	if input == nil {
		input = map[string]any{}
	}
	if trigger == "" {
		trigger = TriggerManual
	}
	return &WorkflowRun{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WorkflowID:        wf.ID,
		WorkflowName:      wf.Name,
		Status:            RunStatusPending,
		Trigger:           trigger,
		Input:             input,
		Log:               make([]StepLog, 0, len(wf.Steps)),
		TriggeredByID:     triggeredBy,
	}
}

// Start moves a pending run to running
func (r *WorkflowRun) Start() error {
	if r.Status != RunStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending runs can start, run is "+string(r.Status))
	}
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// AppendLog records a step result
func (r *WorkflowRun) AppendLog(entry StepLog) {
	r.Log = append(r.Log, entry)
	r.UpdatedAt = time.Now()
}

// Succeed finishes a running run
func (r *WorkflowRun) Succeed() error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only running runs can succeed, run is "+string(r.Status))
	}
	r.finish(RunStatusSuccess, "")
	return nil
}

// Fail finishes a pending or running run with an error
func (r *WorkflowRun) Fail(message string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Run already finished with status "+string(r.Status))
	}
	r.finish(RunStatusFailed, message)
	return nil
}

// Cancel finishes a pending or running run as cancelled
func (r *WorkflowRun) Cancel(reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Run already finished with status "+string(r.Status))
	}
	r.finish(RunStatusCancelled, reason)
	return nil
}

func (r *WorkflowRun) finish(status RunStatus, message string) {
	now := time.Now()
	r.Status = status
	r.Error = message
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewWorkflowRunFinishedEvent(r))
}

// IsTerminal reports whether the run has finished
func (r *WorkflowRun) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// Duration is the wall time between start and completion
func (r *WorkflowRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	return end.Sub(*r.StartedAt)
}

// VentureID extracts input.ventureId when it is a valid UUID
func (r *WorkflowRun) VentureID() *uuid.UUID {
	s, _ := r.Input["ventureId"].(string)
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
