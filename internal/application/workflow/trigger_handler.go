package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// VentureFinder looks up the venture a document belongs to
type VentureFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*venture.Venture, error)
}

// TriggerHandler starts the active workflows bound to a domain event
type TriggerHandler struct {
	runner    *Runner
	workflows workflow.WorkflowRepository
	ventures  VentureFinder
	logger    *zap.Logger
}

// NewTriggerHandler creates a TriggerHandler. ventures may be nil, in which
// case document triggers carry no ventureName.
func NewTriggerHandler(runner *Runner, workflows workflow.WorkflowRepository, ventures VentureFinder, logger *zap.Logger) *TriggerHandler {
	return &TriggerHandler{runner: runner, workflows: workflows, ventures: ventures, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *TriggerHandler) EventTypes() []string {
	return []string{
		venture.EventTypeVentureCreated,
		venture.EventTypeVentureStageChanged,
		document.EventTypeDocumentUploaded,
	}
}

// Handle starts every matching workflow. A workflow that is already
// running is skipped; other failures are logged and do not stop the rest.
func (h *TriggerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	trigger, ok := triggerFor(event.EventType())
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	workflows, err := h.workflows.FindActiveByTrigger(ctx, trigger)
	if err != nil {
		return fmt.Errorf("failed to load workflows for %s: %w", trigger, err)
	}
	if len(workflows) == 0 {
		return nil
	}

	input, err := h.input(ctx, event)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if a, ok := event.(shared.ActorAware); ok {
		actor = a.Actor()
	}

	for _, wf := range workflows {
		run, err := h.runner.Start(ctx, wf, trigger, input, actor)
		switch {
		case err == nil:
			h.logger.Debug("Workflow triggered",
				zap.String("workflow_id", wf.ID.String()),
				zap.String("run_id", run.ID.String()),
				zap.String("event_type", event.EventType()),
			)
		case errors.Is(err, ErrRunInProgress):
			h.logger.Info("Workflow already running, trigger skipped",
				zap.String("workflow_id", wf.ID.String()),
				zap.String("event_type", event.EventType()),
			)
		default:
			h.logger.Warn("Failed to start triggered workflow",
				zap.String("workflow_id", wf.ID.String()),
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func triggerFor(eventType string) (workflow.Trigger, bool) {
	switch eventType {
	case venture.EventTypeVentureCreated:
		return workflow.TriggerVentureCreated, true
	case venture.EventTypeVentureStageChanged:
		return workflow.TriggerVentureStageChanged, true
	case document.EventTypeDocumentUploaded:
		return workflow.TriggerDocumentUploaded, true
	}
	return "", false
}

// input is the event payload plus ventureId and ventureName
func (h *TriggerHandler) input(ctx context.Context, event shared.DomainEvent) (map[string]any, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event.EventType(), err)
	}
	input := map[string]any{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", event.EventType(), err)
	}
	input["eventType"] = event.EventType()

	switch ev := event.(type) {
	case venture.VentureEvent:
		id, name := ev.VentureRef()
		input["ventureId"] = id
		input["ventureName"] = name
	case *document.DocumentUploadedEvent:
		input["documentId"] = ev.AggregateID().String()
		input["documentName"] = ev.Name
		if ev.VentureID != nil {
			input["ventureId"] = *ev.VentureID
			if name := h.ventureName(ctx, *ev.VentureID); name != "" {
				input["ventureName"] = name
			}
		}
	}
	return input, nil
}

func (h *TriggerHandler) ventureName(ctx context.Context, raw string) string {
	if h.ventures == nil {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	v, err := h.ventures.Find(ctx, id)
	if err != nil {
		h.logger.Debug("Venture lookup for trigger input failed", zap.String("venture_id", raw), zap.Error(err))
		return ""
	}
	return v.Name
}

var _ shared.EventHandler = (*TriggerHandler)(nil)
