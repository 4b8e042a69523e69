package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	workflowapp "github.com/miv/backend/internal/application/workflow"
)

// WorkflowHandler handles workflow definitions and their runs
type WorkflowHandler struct {
	BaseHandler
	workflowService *workflowapp.WorkflowService
	runner          *workflowapp.Runner
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflowService *workflowapp.WorkflowService, runner *workflowapp.Runner) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService, runner: runner}
}

// runBody accepts the workflow id in snake_case or camelCase
type runBody struct {
	WorkflowID      *uuid.UUID     `json:"workflow_id"`
	WorkflowIDCamel *uuid.UUID     `json:"workflowId"`
	Input           map[string]any `json:"input"`
}

type runListParams struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING RUNNING SUCCESS FAILED CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @Summary      Create workflow
// @Description  Steps are validated up front; templates must parse
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        request body workflowapp.CreateWorkflowRequest true "Workflow"
// @Success      201 {object} APIResponse[workflowapp.WorkflowResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req workflowapp.CreateWorkflowRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = actorID(c)
	wf, err := h.workflowService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, wf)
}

// GetByID godoc
// @Summary      Get workflow
// @Tags         workflows
// @Produce      json
// @Param        id path string true "Workflow ID"
// @Success      200 {object} APIResponse[workflowapp.WorkflowResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows/{id} [get]
func (h *WorkflowHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	wf, err := h.workflowService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// List godoc
// @Summary      List workflows
// @Tags         workflows
// @Produce      json
// @Param        search query string false "Name"
// @Param        trigger query string false "Trigger"
// @Param        is_active query bool false "Active only"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]workflowapp.WorkflowResponse]
// @Security     BearerAuth
// @Router       /workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	var q workflowapp.WorkflowListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.workflowService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @Summary      Update workflow
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        id path string true "Workflow ID"
// @Param        request body workflowapp.UpdateWorkflowRequest true "Changes"
// @Success      200 {object} APIResponse[workflowapp.WorkflowResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows/{id} [put]
func (h *WorkflowHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req workflowapp.UpdateWorkflowRequest
	if !h.BindJSON(c, &req) {
		return
	}
	wf, err := h.workflowService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Activate godoc
// @Summary      Activate workflow
// @Tags         workflows
// @Produce      json
// @Param        id path string true "Workflow ID"
// @Success      200 {object} APIResponse[workflowapp.WorkflowResponse]
// @Security     BearerAuth
// @Router       /workflows/{id}/activate [post]
func (h *WorkflowHandler) Activate(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	wf, err := h.workflowService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Deactivate godoc
// @Summary      Deactivate workflow
// @Tags         workflows
// @Produce      json
// @Param        id path string true "Workflow ID"
// @Success      200 {object} APIResponse[workflowapp.WorkflowResponse]
// @Security     BearerAuth
// @Router       /workflows/{id}/deactivate [post]
func (h *WorkflowHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	wf, err := h.workflowService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Delete godoc
// @Summary      Delete workflow
// @Tags         workflows
// @Param        id path string true "Workflow ID"
// @Success      204
// @Security     BearerAuth
// @Router       /workflows/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.workflowService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Run godoc
// @Summary      Run workflow
// @Description  Queues a manual run and returns it while still PENDING. One run per workflow at a time.
// @Tags         workflow-runs
// @Accept       json
// @Produce      json
// @Param        request body runBody true "Workflow and input"
// @Success      202 {object} APIResponse[workflowapp.RunResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows/run [post]
func (h *WorkflowHandler) Run(c *gin.Context) {
	var body runBody
	if !h.BindJSON(c, &body) {
		return
	}
	workflowID := body.WorkflowID
	if workflowID == nil {
		workflowID = body.WorkflowIDCamel
	}
	if workflowID == nil || *workflowID == uuid.Nil {
		h.BadRequest(c, "workflow_id is required")
		return
	}

	run, err := h.runner.Run(c.Request.Context(), workflowapp.RunWorkflowRequest{
		WorkflowID: *workflowID,
		Input:      body.Input,
	}, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, run)
}

// ListRuns godoc
// @Summary      List runs
// @Tags         workflow-runs
// @Produce      json
// @Param        workflow_id query string false "Workflow"
// @Param        status query string false "Run status"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]workflowapp.RunResponse]
// @Security     BearerAuth
// @Router       /workflows/runs [get]
func (h *WorkflowHandler) ListRuns(c *gin.Context) {
	var params runListParams
	if !h.BindQuery(c, &params) {
		return
	}
	workflowID, ok := h.QueryID(c, "workflow_id")
	if !ok {
		return
	}
	page, err := h.runner.ListRuns(c.Request.Context(), workflowapp.RunListQuery{
		WorkflowID: workflowID,
		Status:     params.Status,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetRun godoc
// @Summary      Get run
// @Tags         workflow-runs
// @Produce      json
// @Param        id path string true "Run ID"
// @Success      200 {object} APIResponse[workflowapp.RunResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows/runs/{id} [get]
func (h *WorkflowHandler) GetRun(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	run, err := h.runner.GetRun(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// CancelRun godoc
// @Summary      Cancel run
// @Description  Waits for an executing run to stop and returns its final state
// @Tags         workflow-runs
// @Produce      json
// @Param        id path string true "Run ID"
// @Success      200 {object} APIResponse[workflowapp.RunResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /workflows/runs/{id}/cancel [post]
func (h *WorkflowHandler) CancelRun(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	run, err := h.runner.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}
