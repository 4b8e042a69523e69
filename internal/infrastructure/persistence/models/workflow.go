package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/workflow"
)

// WorkflowModel is the persistence model for workflow definitions.
type WorkflowModel struct {
	AggregateModel
	Name           string                `gorm:"type:varchar(200);not null"`
	Description    string                `gorm:"type:text"`
	Trigger        workflow.Trigger      `gorm:"column:trigger_type;type:varchar(40);not null;index"`
	Steps          JSON[[]workflow.Step] `gorm:"type:jsonb;not null"`
	IsActive       bool                  `gorm:"not null;default:true;index"`
	TimeoutSeconds int                   `gorm:"not null;default:0"`
	CreatedByID    *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (WorkflowModel) TableName() string {
	return "workflows"
}

// ToDomain converts the persistence model to a domain Workflow.
func (m *WorkflowModel) ToDomain() *workflow.Workflow {
	return &workflow.Workflow{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Trigger:           m.Trigger,
		Steps:             m.Steps.Data,
		IsActive:          m.IsActive,
		TimeoutSeconds:    m.TimeoutSeconds,
		CreatedByID:       m.CreatedByID,
	}
}

// WorkflowModelFromDomain creates a persistence model from a domain Workflow.
func WorkflowModelFromDomain(w *workflow.Workflow) *WorkflowModel {
	m := &WorkflowModel{
		Name:           w.Name,
		Description:    w.Description,
		Trigger:        w.Trigger,
		Steps:          NewJSON(w.Steps),
		IsActive:       w.IsActive,
		TimeoutSeconds: w.TimeoutSeconds,
		CreatedByID:    w.CreatedByID,
	}
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	return m
}

// WorkflowRunModel is the persistence model for workflow runs.
type WorkflowRunModel struct {
	AggregateModel
	WorkflowID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	WorkflowName  string                   `gorm:"type:varchar(200)"`
	Status        workflow.RunStatus       `gorm:"type:varchar(20);not null;index"`
	Trigger       workflow.Trigger         `gorm:"column:trigger_type;type:varchar(40)"`
	Input         JSON[map[string]any]     `gorm:"type:jsonb"`
	Log           JSON[[]workflow.StepLog] `gorm:"type:jsonb"`
	Error         string                   `gorm:"type:text"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	TriggeredByID *uuid.UUID `gorm:"type:uuid"`

	Workflow *WorkflowModel `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (WorkflowRunModel) TableName() string {
	return "workflow_runs"
}

// ToDomain converts the persistence model to a domain WorkflowRun.
func (m *WorkflowRunModel) ToDomain() *workflow.WorkflowRun {
	return &workflow.WorkflowRun{
		BaseAggregateRoot: m.ToAggregateRoot(),
		WorkflowID:        m.WorkflowID,
		WorkflowName:      m.WorkflowName,
		Status:            m.Status,
		Trigger:           m.Trigger,
		Input:             m.Input.Data,
		Log:               m.Log.Data,
		Error:             m.Error,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		TriggeredByID:     m.TriggeredByID,
	}
}

// WorkflowRunModelFromDomain creates a persistence model from a domain WorkflowRun.
func WorkflowRunModelFromDomain(r *workflow.WorkflowRun) *WorkflowRunModel {
	m := &WorkflowRunModel{
		WorkflowID:    r.WorkflowID,
		WorkflowName:  r.WorkflowName,
		Status:        r.Status,
		Trigger:       r.Trigger,
		Input:         NewJSON(r.Input),
		Log:           NewJSON(r.Log),
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		TriggeredByID: r.TriggeredByID,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
