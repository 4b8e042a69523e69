package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// WorkflowService manages workflow definitions
type WorkflowService struct {
	repo   workflow.WorkflowRepository
	opts   workflow.ValidationOptions
	logger *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(repo workflow.WorkflowRepository, opts workflow.ValidationOptions, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{repo: repo, opts: opts, logger: logger}
}

// Create validates and stores a workflow
func (s *WorkflowService) Create(ctx context.Context, req CreateWorkflowRequest) (*WorkflowResponse, error) {
	wf, err := workflow.NewWorkflow(req.definition(), s.opts, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive {
		wf.Deactivate()
	}
	if err := s.repo.Create(ctx, wf); err != nil {
		return nil, err
	}
	s.logger.Info("Workflow created",
		zap.String("workflow_id", wf.ID.String()),
		zap.String("trigger", string(wf.Trigger)),
		zap.Int("steps", len(wf.Steps)),
	)
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// GetByID returns a workflow
func (s *WorkflowService) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowResponse, error) {
	wf, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Workflow")
	}
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// List returns a page of workflows
func (s *WorkflowService) List(ctx context.Context, q WorkflowListQuery) (*shared.Paginated[WorkflowResponse], error) {
	page, size := max(q.Page, 1), q.PageSize
	if size <= 0 {
		size = 20
	}
	filter := workflow.WorkflowFilter{Keyword: strings.TrimSpace(q.Search), IsActive: q.IsActive, Page: page, PageSize: size}
	if q.Trigger != "" {
		t := workflow.Trigger(strings.ToUpper(q.Trigger))
		filter.Trigger = &t
	}
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]WorkflowResponse, len(items))
	for i, wf := range items {
		out[i] = ToWorkflowResponse(wf)
	}
	result := shared.NewPaginated(out, total, page, size)
	return &result, nil
}

// Update replaces the provided parts of the definition. Runs already
// executing keep the steps they started with.
func (s *WorkflowService) Update(ctx context.Context, id uuid.UUID, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	return s.mutate(ctx, id, func(wf *workflow.Workflow) error {
		return wf.Redefine(req.merge(wf), s.opts)
	})
}

// Activate enables triggers and manual runs
func (s *WorkflowService) Activate(ctx context.Context, id uuid.UUID) (*WorkflowResponse, error) {
	return s.mutate(ctx, id, func(wf *workflow.Workflow) error {
		wf.Activate()
		return nil
	})
}

// Deactivate stops new runs from starting
func (s *WorkflowService) Deactivate(ctx context.Context, id uuid.UUID) (*WorkflowResponse, error) {
	return s.mutate(ctx, id, func(wf *workflow.Workflow) error {
		wf.Deactivate()
		return nil
	})
}

// Delete removes a workflow and its run history
func (s *WorkflowService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.NotFoundOr(err, "Workflow")
	}
	s.logger.Info("Workflow deleted", zap.String("workflow_id", id.String()))
	return nil
}

func (s *WorkflowService) mutate(ctx context.Context, id uuid.UUID, change func(*workflow.Workflow) error) (*WorkflowResponse, error) {
	wf, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Workflow")
	}
	if err := change(wf); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, wf); err != nil {
		return nil, err
	}
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}
