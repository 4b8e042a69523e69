package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/workflow"
)

// StepRequest is one step of a workflow definition
type StepRequest struct {
	Name                string         `json:"name" binding:"max=200"`
	Type                string         `json:"type" binding:"required"`
	Config              map[string]any `json:"config"`
	ContinueOnError     bool           `json:"continue_on_error"`
	MaxAttempts         int            `json:"max_attempts"`
	RetryBackoffSeconds int            `json:"retry_backoff_seconds"`
	TimeoutSeconds      int            `json:"timeout_seconds"`
}

func (s StepRequest) step() workflow.Step {
	return workflow.Step{
		Name:                s.Name,
		Type:                workflow.StepType(s.Type),
		Config:              s.Config,
		ContinueOnError:     s.ContinueOnError,
		MaxAttempts:         s.MaxAttempts,
		RetryBackoffSeconds: s.RetryBackoffSeconds,
		TimeoutSeconds:      s.TimeoutSeconds,
	}
}

func toSteps(reqs []StepRequest) []workflow.Step {
	steps := make([]workflow.Step, len(reqs))
	for i, r := range reqs {
		steps[i] = r.step()
	}
	return steps
}

// CreateWorkflowRequest represents a request to define a workflow
type CreateWorkflowRequest struct {
	Name           string        `json:"name" binding:"required,max=200"`
	Description    string        `json:"description" binding:"max=2000"`
	Trigger        string        `json:"trigger" binding:"omitempty,oneof=MANUAL VENTURE_CREATED VENTURE_STAGE_CHANGED DOCUMENT_UPLOADED"`
	Steps          []StepRequest `json:"steps" binding:"required,dive"`
	TimeoutSeconds int           `json:"timeout_seconds" binding:"min=0"`
	IsActive       *bool         `json:"is_active"`
	CreatedBy      *uuid.UUID    `json:"-"`
}

func (r CreateWorkflowRequest) definition() workflow.Definition {
	return workflow.Definition{
		Name:           r.Name,
		Description:    r.Description,
		Trigger:        workflow.Trigger(r.Trigger),
		Steps:          toSteps(r.Steps),
		TimeoutSeconds: r.TimeoutSeconds,
	}
}

// UpdateWorkflowRequest replaces the definition; omitted fields keep their value
type UpdateWorkflowRequest struct {
	Name           *string       `json:"name" binding:"omitempty,max=200"`
	Description    *string       `json:"description" binding:"omitempty,max=2000"`
	Trigger        *string       `json:"trigger" binding:"omitempty,oneof=MANUAL VENTURE_CREATED VENTURE_STAGE_CHANGED DOCUMENT_UPLOADED"`
	Steps          []StepRequest `json:"steps" binding:"omitempty,dive"`
	TimeoutSeconds *int          `json:"timeout_seconds" binding:"omitempty,min=0"`
}

func (r UpdateWorkflowRequest) merge(wf *workflow.Workflow) workflow.Definition {
	def := workflow.Definition{
		Name:           wf.Name,
		Description:    wf.Description,
		Trigger:        wf.Trigger,
		Steps:          wf.Steps,
		TimeoutSeconds: wf.TimeoutSeconds,
	}
	if r.Name != nil {
		def.Name = *r.Name
	}
	if r.Description != nil {
		def.Description = *r.Description
	}
	if r.Trigger != nil {
		def.Trigger = workflow.Trigger(*r.Trigger)
	}
	if r.Steps != nil {
		def.Steps = toSteps(r.Steps)
	}
	if r.TimeoutSeconds != nil {
		def.TimeoutSeconds = *r.TimeoutSeconds
	}
	return def
}

// WorkflowListQuery holds list filters
type WorkflowListQuery struct {
	Search   string `form:"search"`
	Trigger  string `form:"trigger" binding:"omitempty,oneof=MANUAL VENTURE_CREATED VENTURE_STAGE_CHANGED DOCUMENT_UPLOADED"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// WorkflowResponse is the API view of a workflow
type WorkflowResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Trigger        string          `json:"trigger"`
	Steps          []workflow.Step `json:"steps"`
	IsActive       bool            `json:"is_active"`
	TimeoutSeconds int             `json:"timeout_seconds"`
	CreatedByID    *uuid.UUID      `json:"created_by_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ToWorkflowResponse converts a domain workflow
func ToWorkflowResponse(wf *workflow.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:             wf.ID,
		Name:           wf.Name,
		Description:    wf.Description,
		Trigger:        string(wf.Trigger),
		Steps:          wf.Steps,
		IsActive:       wf.IsActive,
		TimeoutSeconds: wf.TimeoutSeconds,
		CreatedByID:    wf.CreatedByID,
		CreatedAt:      wf.CreatedAt,
		UpdatedAt:      wf.UpdatedAt,
		Version:        wf.Version,
	}
}

// RunWorkflowRequest starts a manual run
type RunWorkflowRequest struct {
	WorkflowID uuid.UUID      `json:"workflow_id" binding:"required"`
	Input      map[string]any `json:"input"`
}

// RunListQuery holds run list filters
type RunListQuery struct {
	WorkflowID *uuid.UUID `form:"workflow_id"`
	Status     string     `form:"status" binding:"omitempty,oneofci=PENDING RUNNING SUCCESS FAILED CANCELLED"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RunResponse is the API view of a workflow run
type RunResponse struct {
	ID            uuid.UUID          `json:"id"`
	WorkflowID    uuid.UUID          `json:"workflow_id"`
	WorkflowName  string             `json:"workflow_name"`
	Status        string             `json:"status"`
	Trigger       string             `json:"trigger"`
	Input         map[string]any     `json:"input"`
	Log           []workflow.StepLog `json:"log"`
	Error         string             `json:"error,omitempty"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	DurationMs    int64              `json:"duration_ms"`
	TriggeredByID *uuid.UUID         `json:"triggered_by_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ToRunResponse converts a domain run. The log is copied so the response
// stays stable while the run keeps executing.
func ToRunResponse(r *workflow.WorkflowRun) RunResponse {
	log := make([]workflow.StepLog, len(r.Log))
	copy(log, r.Log)
	return RunResponse{
		ID:            r.ID,
		WorkflowID:    r.WorkflowID,
		WorkflowName:  r.WorkflowName,
		Status:        string(r.Status),
		Trigger:       string(r.Trigger),
		Input:         r.Input,
		Log:           log,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		DurationMs:    r.Duration().Milliseconds(),
		TriggeredByID: r.TriggeredByID,
		CreatedAt:     r.CreatedAt,
	}
}
