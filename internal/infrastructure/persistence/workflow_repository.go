package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkflowRepository implements WorkflowRepository using GORM
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRepository creates a new GormWorkflowRepository
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

// Create creates a workflow
func (r *GormWorkflowRepository) Create(ctx context.Context, wf *workflow.Workflow) error {
	return translateError(r.db.WithContext(ctx).Create(models.WorkflowModelFromDomain(wf)).Error)
}

// Update saves a workflow with optimistic locking
func (r *GormWorkflowRepository) Update(ctx context.Context, wf *workflow.Workflow) error {
	return saveVersioned(ctx, r.db, models.WorkflowModelFromDomain(wf), wf.ID, wf.Version)
}

// Delete deletes a workflow and, by cascade, its runs
func (r *GormWorkflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.WorkflowModel{}, id)
}

// FindByID finds a workflow by ID
func (r *GormWorkflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	var model models.WorkflowModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns workflows matching the filter with pagination
func (r *GormWorkflowRepository) FindAll(ctx context.Context, filter workflow.WorkflowFilter) ([]*workflow.Workflow, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WorkflowModel{})
	if filter.Keyword != "" {
		kw := likePattern(filter.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", kw, kw)
	}
	if filter.Trigger != nil {
		query = query.Where("trigger_type = ?", *filter.Trigger)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.WorkflowModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*workflow.Workflow, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// FindActiveByTrigger returns the active workflows listening to trigger, oldest first
func (r *GormWorkflowRepository) FindActiveByTrigger(ctx context.Context, trigger workflow.Trigger) ([]*workflow.Workflow, error) {
	var rows []models.WorkflowModel
	err := r.db.WithContext(ctx).
		Where("trigger_type = ? AND is_active = ?", trigger, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*workflow.Workflow, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ workflow.WorkflowRepository = (*GormWorkflowRepository)(nil)

// GormWorkflowRunRepository implements WorkflowRunRepository using GORM
type GormWorkflowRunRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRunRepository creates a new GormWorkflowRunRepository
func NewGormWorkflowRunRepository(db *gorm.DB) *GormWorkflowRunRepository {
	return &GormWorkflowRunRepository{db: db}
}

// Create creates a run
func (r *GormWorkflowRunRepository) Create(ctx context.Context, run *workflow.WorkflowRun) error {
	return translateError(r.db.WithContext(ctx).Create(models.WorkflowRunModelFromDomain(run)).Error)
}

// Update saves a run while its stored status is still open.
// Once a terminal status is persisted the row never changes again.
func (r *GormWorkflowRunRepository) Update(ctx context.Context, run *workflow.WorkflowRun) error {
	model := models.WorkflowRunModelFromDomain(run)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND status IN ?", run.ID, []workflow.RunStatus{workflow.RunStatusPending, workflow.RunStatusRunning}).
		Select("*").
		Omit(clause.Associations).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var stored models.WorkflowRunModel
	if err := r.db.WithContext(ctx).Select("status").First(&stored, "id = ?", run.ID).Error; err != nil {
		return translateError(err)
	}
	return shared.NewDomainError("INVALID_STATE", "Run already finished with status "+string(stored.Status))
}

// FindByID finds a run by ID
func (r *GormWorkflowRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.WorkflowRun, error) {
	var model models.WorkflowRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns runs matching the filter, newest first
func (r *GormWorkflowRunRepository) FindAll(ctx context.Context, filter workflow.RunFilter) ([]*workflow.WorkflowRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WorkflowRunModel{})
	if filter.WorkflowID != nil {
		query = query.Where("workflow_id = ?", *filter.WorkflowID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.WorkflowRunModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toRuns(rows), total, nil
}

// FindByStatuses returns every run in one of the statuses, oldest first
func (r *GormWorkflowRunRepository) FindByStatuses(ctx context.Context, statuses ...workflow.RunStatus) ([]*workflow.WorkflowRun, error) {
	if len(statuses) == 0 {
		return []*workflow.WorkflowRun{}, nil
	}
	var rows []models.WorkflowRunModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRuns(rows), nil
}

// CountByStatus returns run counts for every status, zero-filled
func (r *GormWorkflowRunRepository) CountByStatus(ctx context.Context) (map[workflow.RunStatus]int64, error) {
	var rows []struct {
		Status workflow.RunStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.WorkflowRunModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[workflow.RunStatus]int64, len(workflow.AllRunStatuses))
	for _, s := range workflow.AllRunStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func toRuns(rows []models.WorkflowRunModel) []*workflow.WorkflowRun {
	out := make([]*workflow.WorkflowRun, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ workflow.WorkflowRunRepository = (*GormWorkflowRunRepository)(nil)
