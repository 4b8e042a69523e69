package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WorkflowRepository defines the interface for workflow persistence
type WorkflowRepository interface {
	Create(ctx context.Context, wf *Workflow) error
	Update(ctx context.Context, wf *Workflow) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Workflow, error)
	FindAll(ctx context.Context, filter WorkflowFilter) ([]*Workflow, int64, error)
	FindActiveByTrigger(ctx context.Context, trigger Trigger) ([]*Workflow, error)
}

// WorkflowFilter contains filter options for querying workflows
type WorkflowFilter struct {
	Keyword  string
	Trigger  *Trigger
	IsActive *bool
	Page     int
	PageSize int
}

// WorkflowRunRepository defines the interface for run persistence
type WorkflowRunRepository interface {
	Create(ctx context.Context, run *WorkflowRun) error
	Update(ctx context.Context, run *WorkflowRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*WorkflowRun, error)
	FindAll(ctx context.Context, filter RunFilter) ([]*WorkflowRun, int64, error)
	FindByStatuses(ctx context.Context, statuses ...RunStatus) ([]*WorkflowRun, error)
	CountByStatus(ctx context.Context) (map[RunStatus]int64, error)
}

// RunFilter contains filter options for querying runs
type RunFilter struct {
	WorkflowID *uuid.UUID
	Status     *RunStatus
	Page       int
	PageSize   int
}

// RunLock grants at most one holder per workflow at a time.
// Locks expire after ttl so a crashed holder cannot block a workflow forever.
type RunLock interface {
	// Acquire returns false without error when another owner holds the lock
	Acquire(ctx context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error)
	// Extend resets the ttl and returns false when owner no longer holds the lock
	Extend(ctx context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error)
	// Release frees the lock only if owner still holds it
	Release(ctx context.Context, workflowID uuid.UUID, owner string) error
	// Holder returns the current owner, or "" when the lock is free
	Holder(ctx context.Context, workflowID uuid.UUID) (string, error)
}
