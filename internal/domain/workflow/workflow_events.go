package workflow

import (
	"github.com/miv/backend/internal/domain/shared"
)

// AggregateTypeWorkflowRun is the aggregate type for runs
const AggregateTypeWorkflowRun = "WorkflowRun"

// Run event types, one per terminal status
const (
	EventTypeWorkflowRunSucceeded = "WorkflowRunSucceeded"
	EventTypeWorkflowRunFailed    = "WorkflowRunFailed"
	EventTypeWorkflowRunCancelled = "WorkflowRunCancelled"
)

// WorkflowRunFinishedEvent is published when a run reaches a terminal status
type WorkflowRunFinishedEvent struct {
	shared.BaseDomainEvent
	WorkflowID   string    `json:"workflow_id"`
	WorkflowName string    `json:"workflow_name"`
	Status       RunStatus `json:"status"`
	Error        string    `json:"error,omitempty"`
	StepsRun     int       `json:"steps_run"`
	VentureID    *string   `json:"venture_id,omitempty"`
}

// NewWorkflowRunFinishedEvent creates the event matching the run status
func NewWorkflowRunFinishedEvent(r *WorkflowRun) *WorkflowRunFinishedEvent {
	eventType := EventTypeWorkflowRunFailed
	switch r.Status {
	case RunStatusSuccess:
		eventType = EventTypeWorkflowRunSucceeded
	case RunStatusCancelled:
		eventType = EventTypeWorkflowRunCancelled
	}
	e := &WorkflowRunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeWorkflowRun, r.ID),
		WorkflowID:      r.WorkflowID.String(),
		WorkflowName:    r.WorkflowName,
		Status:          r.Status,
		Error:           r.Error,
		StepsRun:        len(r.Log),
	}
	e.ActorID = r.TriggeredByID
	if v := r.VentureID(); v != nil {
		s := v.String()
		e.VentureID = &s
	}
	return e
}
