package workflow

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
)

// Trigger decides when a workflow starts
type Trigger string

const (
	TriggerManual              Trigger = "MANUAL"
	TriggerVentureCreated      Trigger = "VENTURE_CREATED"
	TriggerVentureStageChanged Trigger = "VENTURE_STAGE_CHANGED"
	TriggerDocumentUploaded    Trigger = "DOCUMENT_UPLOADED"
)

// IsValid reports whether the trigger is known
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerManual, TriggerVentureCreated, TriggerVentureStageChanged, TriggerDocumentUploaded:
		return true
	}
	return false
}

// StepType is the fixed set of actions a step can perform
type StepType string

const (
	StepSendEmail          StepType = "SEND_EMAIL"
	StepCreateNotification StepType = "CREATE_NOTIFICATION"
	StepWebhook            StepType = "WEBHOOK"
	StepDelay              StepType = "DELAY"
	StepUpdateVentureStage StepType = "UPDATE_VENTURE_STAGE"
	StepLogActivity        StepType = "LOG_ACTIVITY"
)

// AssigneeRecipient is the CREATE_NOTIFICATION userId placeholder for the venture assignee
const AssigneeRecipient = "assignee"

const (
	MaxSteps       = 50
	MaxStepRetries = 5
)

// Step is one typed action of a workflow
type Step struct {
	Name                string         `json:"name"`
	Type                StepType       `json:"type"`
	Config              map[string]any `json:"config"`
	ContinueOnError     bool           `json:"continue_on_error,omitempty"`
	MaxAttempts         int            `json:"max_attempts,omitempty"`
	RetryBackoffSeconds int            `json:"retry_backoff_seconds,omitempty"`
	TimeoutSeconds      int            `json:"timeout_seconds,omitempty"`
}

// Attempts returns the number of tries, at least one
func (s Step) Attempts() int {
	if s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

// Timeout returns the per-attempt timeout or def when unset
func (s Step) Timeout(def time.Duration) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return def
}

// Backoff returns the wait before the given retry (1-based), growing linearly
func (s Step) Backoff(retry int) time.Duration {
	if s.RetryBackoffSeconds <= 0 || retry < 1 {
		return 0
	}
	return time.Duration(s.RetryBackoffSeconds*retry) * time.Second
}

// DisplayName falls back to the step type
func (s Step) DisplayName() string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	return string(s.Type)
}

// StepError pinpoints an invalid step definition
type StepError struct {
	Index   int
	Message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Index, e.Message)
}

// ValidationOptions holds limits that come from configuration
type ValidationOptions struct {
	MaxDelaySeconds int
}

// Workflow is a named, ordered list of steps
type Workflow struct {
	shared.BaseAggregateRoot
	Name           string
	Description    string
	Trigger        Trigger
	Steps          []Step
	IsActive       bool
	TimeoutSeconds int
	CreatedByID    *uuid.UUID
}

// Definition carries the editable fields of a workflow
type Definition struct {
	Name           string
	Description    string
	Trigger        Trigger
	Steps          []Step
	TimeoutSeconds int
}

// NewWorkflow creates an active workflow after validating its steps
func NewWorkflow(def Definition, opts ValidationOptions, createdBy *uuid.UUID) (*Workflow, error) {
	wf := &Workflow{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IsActive:          true,
		CreatedByID:       createdBy,
	}
	if err := wf.apply(def, opts); err != nil {
		return nil, err
	}
	return wf, nil
}

// Redefine replaces the definition
func (w *Workflow) Redefine(def Definition, opts ValidationOptions) error {
	if err := w.apply(def, opts); err != nil {
		return err
	}
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}

func (w *Workflow) apply(def Definition, opts ValidationOptions) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Workflow name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Workflow name cannot exceed 200 characters")
	}
	trigger := def.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}
	if !trigger.IsValid() {
		return shared.NewDomainError("INVALID_TRIGGER", "Unknown trigger: "+string(trigger))
	}
	if def.TimeoutSeconds < 0 {
		return shared.NewDomainError("INVALID_TIMEOUT", "Timeout cannot be negative")
	}
	if err := ValidateSteps(def.Steps, opts); err != nil {
		return err
	}

	w.Name = name
	w.Description = strings.TrimSpace(def.Description)
	w.Trigger = trigger
	w.Steps = def.Steps
	w.TimeoutSeconds = def.TimeoutSeconds
	return nil
}

// Activate enables the workflow
func (w *Workflow) Activate() {
	if w.IsActive {
		return
	}
	w.IsActive = true
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// Deactivate disables the workflow; running runs finish normally
func (w *Workflow) Deactivate() {
	if !w.IsActive {
		return
	}
	w.IsActive = false
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// Timeout returns the run deadline or def when unset
func (w *Workflow) Timeout(def time.Duration) time.Duration {
	if w.TimeoutSeconds > 0 {
		return time.Duration(w.TimeoutSeconds) * time.Second
	}
	return def
}

// ValidateSteps checks every step definition, wrapping the first failure as INVALID_STEP
func ValidateSteps(steps []Step, opts ValidationOptions) error {
	if len(steps) == 0 {
		return shared.NewDomainError("INVALID_STEP", "Workflow needs at least one step")
	}
	if len(steps) > MaxSteps {
		return shared.NewDomainError("INVALID_STEP", fmt.Sprintf("Workflow cannot have more than %d steps", MaxSteps))
	}
	for i, s := range steps {
		if err := validateStep(s, opts); err != nil {
			se := &StepError{Index: i, Message: err.Error()}
			return shared.NewDomainError("INVALID_STEP", se.Error())
		}
	}
	return nil
}

func validateStep(s Step, opts ValidationOptions) error {
	if s.MaxAttempts < 0 || s.MaxAttempts > MaxStepRetries {
		return fmt.Errorf("max_attempts must be between 1 and %d", MaxStepRetries)
	}
	if s.RetryBackoffSeconds < 0 || s.TimeoutSeconds < 0 {
		return fmt.Errorf("retry_backoff_seconds and timeout_seconds cannot be negative")
	}
	cfg := Config(s.Config)

	switch s.Type {
	case StepSendEmail:
		return cfg.require("to", "subject", "body")
	case StepCreateNotification:
		if err := cfg.require("userId", "title"); err != nil {
			return err
		}
		uid := cfg.String("userId")
		if uid != AssigneeRecipient && !IsTemplate(uid) {
			if _, err := uuid.Parse(uid); err != nil {
				return fmt.Errorf("userId must be a UUID, %q or a template", AssigneeRecipient)
			}
		}
		return nil
	case StepWebhook:
		if err := cfg.require("url"); err != nil {
			return err
		}
		raw := cfg.String("url")
		if !IsTemplate(raw) {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("url must be an absolute http or https URL")
			}
		}
		switch strings.ToUpper(cfg.StringOr("method", "POST")) {
		case "GET", "POST", "PUT", "PATCH", "DELETE":
		default:
			return fmt.Errorf("unsupported webhook method %q", cfg.String("method"))
		}
		if _, ok := s.Config["expectedStatus"]; ok {
			code, ok := cfg.Int("expectedStatus")
			if !ok || code < 100 || code > 599 {
				return fmt.Errorf("expectedStatus must be an HTTP status code")
			}
		}
		return nil
	case StepDelay:
		secs, ok := cfg.Int("seconds")
		if !ok {
			return fmt.Errorf("config.seconds is required")
		}
		maxDelay := opts.MaxDelaySeconds
		if maxDelay <= 0 {
			maxDelay = 3600
		}
		if secs < 0 || secs > maxDelay {
			return fmt.Errorf("seconds must be between 0 and %d", maxDelay)
		}
		return nil
	case StepUpdateVentureStage:
		if err := cfg.require("stage"); err != nil {
			return err
		}
		stage := cfg.String("stage")
		if !IsTemplate(stage) && !venture.Stage(strings.ToUpper(stage)).IsValid() {
			return fmt.Errorf("unknown stage %q", stage)
		}
		return nil
	case StepLogActivity:
		return cfg.require("title")
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown step type %q", s.Type)
	}
}

// IsTemplate reports whether s contains template actions rendered at run time
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}
