package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	activityapp "github.com/miv/backend/internal/application/activity"
	notificationapp "github.com/miv/backend/internal/application/notification"
	ventureapp "github.com/miv/backend/internal/application/venture"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/webhook"
)

// StepInput is what an executor sees of the run
type StepInput struct {
	Index  int
	Step   workflow.Step
	Config workflow.Config // rendered against the run input
	Run    *workflow.WorkflowRun
}

// StepExecutor performs one attempt of a step. The returned output is
// stored in the step log even when err is not nil.
type StepExecutor interface {
	Execute(ctx context.Context, in StepInput) (map[string]any, error)
}

// StepExecutorFunc adapts a function to StepExecutor
type StepExecutorFunc func(ctx context.Context, in StepInput) (map[string]any, error)

// Execute implements StepExecutor
func (f StepExecutorFunc) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	return f(ctx, in)
}

// EmailSender delivers and logs an email
type EmailSender interface {
	Send(ctx context.Context, req notificationapp.SendEmailRequest) (*notificationapp.EmailLogResponse, error)
}

// NotificationCreator creates in-app notifications
type NotificationCreator interface {
	Create(ctx context.Context, req notificationapp.CreateNotificationRequest) (*notificationapp.NotificationResponse, error)
}

// VentureStore reads ventures and moves them through the pipeline
type VentureStore interface {
	Find(ctx context.Context, id uuid.UUID) (*venture.Venture, error)
	ChangeStage(ctx context.Context, id uuid.UUID, req ventureapp.ChangeStageRequest, actor *uuid.UUID) (*ventureapp.VentureResponse, error)
}

// ActivityLogger appends to the activity feed
type ActivityLogger interface {
	Log(ctx context.Context, t activity.Type, title, description string, userID, ventureID *uuid.UUID, metadata map[string]any) (*activity.Activity, error)
}

// WebhookCaller performs outbound HTTP calls
type WebhookCaller interface {
	Call(ctx context.Context, req webhook.Request) (*webhook.Response, error)
}

var (
	_ EmailSender         = (*notificationapp.EmailService)(nil)
	_ NotificationCreator = (*notificationapp.NotificationService)(nil)
	_ VentureStore        = (*ventureapp.VentureService)(nil)
	_ ActivityLogger      = (*activityapp.ActivityService)(nil)
	_ WebhookCaller       = (*webhook.Caller)(nil)
)

// StepDependencies are the services steps act on. A nil dependency leaves
// its step type without an executor, so such steps fail at run time.
type StepDependencies struct {
	Emails        EmailSender
	Notifications NotificationCreator
	Ventures      VentureStore
	Activities    ActivityLogger
	Webhooks      WebhookCaller
	// OnWebhook observes the latency of every completed webhook call
	OnWebhook func(time.Duration)
}

// NewStepExecutors builds the executor for every step type it has dependencies for
func NewStepExecutors(deps StepDependencies) map[workflow.StepType]StepExecutor {
	executors := map[workflow.StepType]StepExecutor{
		workflow.StepDelay: StepExecutorFunc(executeDelay),
	}
	if deps.Emails != nil {
		executors[workflow.StepSendEmail] = &emailStep{emails: deps.Emails}
	}
	if deps.Notifications != nil {
		executors[workflow.StepCreateNotification] = &notificationStep{notifications: deps.Notifications, ventures: deps.Ventures}
	}
	if deps.Webhooks != nil {
		executors[workflow.StepWebhook] = &webhookStep{caller: deps.Webhooks, observe: deps.OnWebhook}
	}
	if deps.Ventures != nil {
		executors[workflow.StepUpdateVentureStage] = &stageStep{ventures: deps.Ventures}
	}
	if deps.Activities != nil {
		executors[workflow.StepLogActivity] = &activityStep{activities: deps.Activities}
	}
	return executors
}

type emailStep struct {
	emails EmailSender
}

func (s *emailStep) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	runID := in.Run.ID
	resp, err := s.emails.Send(ctx, notificationapp.SendEmailRequest{
		To:            in.Config.String("to"),
		Subject:       in.Config.String("subject"),
		Body:          in.Config.String("body"),
		VentureID:     in.Run.VentureID(),
		WorkflowRunID: &runID,
	})
	if resp == nil {
		return nil, err
	}
	return map[string]any{"emailLogId": resp.ID.String(), "status": resp.Status, "to": resp.To}, err
}

type notificationStep struct {
	notifications NotificationCreator
	ventures      VentureStore
}

func (s *notificationStep) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	userID, err := s.recipient(ctx, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.notifications.Create(ctx, notificationapp.CreateNotificationRequest{
		UserID:  userID,
		Title:   in.Config.String("title"),
		Message: in.Config.String("message"),
		Type:    strings.ToUpper(in.Config.StringOr("type", "INFO")),
		Link:    in.Config.String("link"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"notificationId": resp.ID.String(), "userId": userID.String()}, nil
}

func (s *notificationStep) recipient(ctx context.Context, in StepInput) (uuid.UUID, error) {
	raw := strings.TrimSpace(in.Config.String("userId"))
	if raw != workflow.AssigneeRecipient {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("userId %q is not a UUID", raw)
		}
		return id, nil
	}

	ventureID := in.Run.VentureID()
	if ventureID == nil {
		return uuid.Nil, errors.New("assignee recipient needs input.ventureId")
	}
	if s.ventures == nil {
		return uuid.Nil, errors.New("assignee recipient is not available")
	}
	v, err := s.ventures.Find(ctx, *ventureID)
	if err != nil {
		return uuid.Nil, err
	}
	if v.AssignedToID == nil {
		return uuid.Nil, fmt.Errorf("venture %s has no assignee", v.Name)
	}
	return *v.AssignedToID, nil
}

type webhookStep struct {
	caller  WebhookCaller
	observe func(time.Duration)
}

func (s *webhookStep) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	req := webhook.Request{
		Method: in.Config.StringOr("method", "POST"),
		URL:    in.Config.String("url"),
		Body:   in.Config["body"],
	}
	if headers := in.Config.Map("headers"); len(headers) > 0 {
		req.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			req.Headers[k] = fmt.Sprint(v)
		}
	}
	if code, ok := in.Config.Int("expectedStatus"); ok {
		req.ExpectedStatus = code
	}

	resp, err := s.caller.Call(ctx, req)
	if resp == nil {
		return nil, err
	}
	if s.observe != nil {
		s.observe(resp.Duration)
	}
	out := map[string]any{"status": resp.StatusCode, "body": resp.Body}
	if resp.Truncated {
		out["truncated"] = true
	}
	return out, err
}

func executeDelay(ctx context.Context, in StepInput) (map[string]any, error) {
	secs, _ := in.Config.Int("seconds")
	if secs <= 0 {
		return map[string]any{"seconds": 0}, nil
	}
	timer := time.NewTimer(time.Duration(secs) * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		return map[string]any{"seconds": secs}, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

type stageStep struct {
	ventures VentureStore
}

func (s *stageStep) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	var ventureID uuid.UUID
	if raw := strings.TrimSpace(in.Config.String("ventureId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("ventureId %q is not a UUID", raw)
		}
		ventureID = id
	} else if id := in.Run.VentureID(); id != nil {
		ventureID = *id
	} else {
		return nil, errors.New("no ventureId in config or run input")
	}

	stage := strings.ToUpper(strings.TrimSpace(in.Config.String("stage")))
	resp, err := s.ventures.ChangeStage(ctx, ventureID, ventureapp.ChangeStageRequest{Stage: stage}, in.Run.TriggeredByID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ventureId": resp.ID.String(), "stage": resp.Stage}, nil
}

type activityStep struct {
	activities ActivityLogger
}

func (s *activityStep) Execute(ctx context.Context, in StepInput) (map[string]any, error) {
	a, err := s.activities.Log(ctx, activity.TypeCustom,
		in.Config.String("title"),
		in.Config.String("description"),
		in.Run.TriggeredByID,
		in.Run.VentureID(),
		map[string]any{"run_id": in.Run.ID.String(), "workflow_id": in.Run.WorkflowID.String()},
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{"activityId": a.ID.String()}, nil
}
