package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// EventRecorder turns domain events into activity feed entries
type EventRecorder struct {
	service *ActivityService
	logger  *zap.Logger
}

// NewEventRecorder creates a new EventRecorder
func NewEventRecorder(service *ActivityService, logger *zap.Logger) *EventRecorder {
	return &EventRecorder{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *EventRecorder) EventTypes() []string {
	return []string{
		venture.EventTypeVentureCreated,
		venture.EventTypeVentureUpdated,
		venture.EventTypeVentureStageChanged,
		venture.EventTypeVentureStatusChanged,
		venture.EventTypeMetricVerified,
		document.EventTypeDocumentUploaded,
		workflow.EventTypeWorkflowRunSucceeded,
		workflow.EventTypeWorkflowRunFailed,
	}
}

// entry is the feed entry derived from one event
type entry struct {
	kind        activity.Type
	title       string
	description string
	ventureID   *uuid.UUID
	metadata    map[string]any
}

// Handle records an activity for a supported event
func (h *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := h.describe(event)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	var actor *uuid.UUID
	if a, ok := event.(shared.ActorAware); ok {
		actor = a.Actor()
	}
	if e.metadata == nil {
		e.metadata = map[string]any{}
	}
	e.metadata["event_id"] = event.EventID().String()

	if _, err := h.service.Log(ctx, e.kind, e.title, e.description, actor, e.ventureID, e.metadata); err != nil {
		return fmt.Errorf("failed to record activity for %s: %w", event.EventType(), err)
	}
	return nil
}

func (h *EventRecorder) describe(event shared.DomainEvent) (entry, bool) {
	switch ev := event.(type) {
	case *venture.VentureCreatedEvent:
		id := ev.AggregateID()
		return entry{
			kind:      activity.TypeVentureCreated,
			title:     "Venture created: " + ev.Name,
			ventureID: &id,
			metadata:  map[string]any{"sector": ev.Sector, "stage": string(ev.Stage)},
		}, true
	case *venture.VentureUpdatedEvent:
		id := ev.AggregateID()
		return entry{kind: activity.TypeVentureUpdated, title: "Venture updated: " + ev.Name, ventureID: &id}, true
	case *venture.VentureStageChangedEvent:
		id := ev.AggregateID()
		return entry{
			kind:        activity.TypeStageChanged,
			title:       fmt.Sprintf("%s moved to %s", ev.Name, ev.ToStage),
			description: fmt.Sprintf("Stage changed from %s to %s", ev.FromStage, ev.ToStage),
			ventureID:   &id,
			metadata:    map[string]any{"from": string(ev.FromStage), "to": string(ev.ToStage)},
		}, true
	case *venture.VentureStatusChangedEvent:
		id := ev.AggregateID()
		return entry{
			kind:        activity.TypeStatusChanged,
			title:       fmt.Sprintf("%s is now %s", ev.Name, ev.ToStatus),
			description: fmt.Sprintf("Status changed from %s to %s", ev.FromStatus, ev.ToStatus),
			ventureID:   &id,
			metadata:    map[string]any{"from": string(ev.FromStatus), "to": string(ev.ToStatus)},
		}, true
	case *venture.MetricVerifiedEvent:
		return entry{
			kind:      activity.TypeMetricVerified,
			title:     "Metric verified: " + ev.MetricName,
			ventureID: parseID(ev.VentureID),
			metadata:  map[string]any{"metric_id": ev.AggregateID().String(), "category": string(ev.Category)},
		}, true
	case *document.DocumentUploadedEvent:
		var ventureID *uuid.UUID
		if ev.VentureID != nil {
			ventureID = parseID(*ev.VentureID)
		}
		return entry{
			kind:      activity.TypeDocumentUploaded,
			title:     "Document uploaded: " + ev.Name,
			ventureID: ventureID,
			metadata:  map[string]any{"document_id": ev.AggregateID().String(), "type": string(ev.Type)},
		}, true
	case *workflow.WorkflowRunFinishedEvent:
		var ventureID *uuid.UUID
		if ev.VentureID != nil {
			ventureID = parseID(*ev.VentureID)
		}
		e := entry{
			ventureID: ventureID,
			metadata: map[string]any{
				"run_id":      ev.AggregateID().String(),
				"workflow_id": ev.WorkflowID,
				"steps_run":   ev.StepsRun,
			},
		}
		switch ev.Status {
		case workflow.RunStatusSuccess:
			e.kind = activity.TypeWorkflowCompleted
			e.title = "Workflow completed: " + ev.WorkflowName
		case workflow.RunStatusFailed:
			e.kind = activity.TypeWorkflowFailed
			e.title = "Workflow failed: " + ev.WorkflowName
			e.description = ev.Error
		default:
			return entry{}, false
		}
		return e, true
	}
	return entry{}, false
}

func parseID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

var _ shared.EventHandler = (*EventRecorder)(nil)
