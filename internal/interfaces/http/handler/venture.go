package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/miv/backend/internal/application/dashboard"
	"github.com/miv/backend/internal/application/report"
	ventureapp "github.com/miv/backend/internal/application/venture"
)

// VentureHandler handles venture pipeline endpoints
type VentureHandler struct {
	BaseHandler
	ventureService *ventureapp.VentureService
	dashboard      *dashboard.DashboardService
	reports        *report.VentureReportService
}

// NewVentureHandler creates a new venture handler. reports may be nil when
// printing is disabled.
func NewVentureHandler(
	ventureService *ventureapp.VentureService,
	dashboardService *dashboard.DashboardService,
	reports *report.VentureReportService,
) *VentureHandler {
	return &VentureHandler{
		ventureService: ventureService,
		dashboard:      dashboardService,
		reports:        reports,
	}
}

// Create godoc
// @Summary      Create venture
// @Description  New ventures start in the INTAKE stage with ACTIVE status
// @Tags         ventures
// @Accept       json
// @Produce      json
// @Param        request body ventureapp.CreateVentureRequest true "Venture"
// @Success      201 {object} APIResponse[ventureapp.VentureResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures [post]
func (h *VentureHandler) Create(c *gin.Context) {
	var req ventureapp.CreateVentureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = actorID(c)
	v, err := h.ventureService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, v)
}

// GetByID godoc
// @Summary      Get venture
// @Tags         ventures
// @Produce      json
// @Param        id path string true "Venture ID"
// @Success      200 {object} APIResponse[ventureapp.VentureResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id} [get]
func (h *VentureHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	v, err := h.ventureService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// Detail godoc
// @Summary      Venture detail
// @Description  Venture with its metrics, documents, GEDSI score and recent activity
// @Tags         ventures
// @Produce      json
// @Param        id path string true "Venture ID"
// @Success      200 {object} APIResponse[dashboard.VentureDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id}/detail [get]
func (h *VentureHandler) Detail(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.dashboard.VentureDetail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// List godoc
// @Summary      List ventures
// @Tags         ventures
// @Produce      json
// @Param        search query string false "Name, founder or sector"
// @Param        stage query string false "Stage"
// @Param        status query string false "Status"
// @Param        sector query string false "Sector"
// @Param        funding_type query string false "Funding type"
// @Param        assigned_to_id query string false "Assignee"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Param        sort_by query string false "Sort field"
// @Param        sort_order query string false "asc or desc"
// @Success      200 {object} APIResponse[[]ventureapp.VentureResponse]
// @Security     BearerAuth
// @Router       /ventures [get]
func (h *VentureHandler) List(c *gin.Context) {
	var q ventureapp.VentureListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.ventureService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @Summary      Update venture
// @Tags         ventures
// @Accept       json
// @Produce      json
// @Param        id path string true "Venture ID"
// @Param        request body ventureapp.UpdateVentureRequest true "Changes"
// @Success      200 {object} APIResponse[ventureapp.VentureResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id} [put]
func (h *VentureHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.UpdateVentureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.ventureService.Update(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// ChangeStage godoc
// @Summary      Move venture to another stage
// @Tags         ventures
// @Accept       json
// @Produce      json
// @Param        id path string true "Venture ID"
// @Param        request body ventureapp.ChangeStageRequest true "Stage"
// @Success      200 {object} APIResponse[ventureapp.VentureResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id}/stage [put]
func (h *VentureHandler) ChangeStage(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.ChangeStageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.ventureService.ChangeStage(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// ChangeStatus godoc
// @Summary      Change venture status
// @Tags         ventures
// @Accept       json
// @Produce      json
// @Param        id path string true "Venture ID"
// @Param        request body ventureapp.ChangeStatusRequest true "Status"
// @Success      200 {object} APIResponse[ventureapp.VentureResponse]
// @Security     BearerAuth
// @Router       /ventures/{id}/status [put]
func (h *VentureHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.ventureService.ChangeStatus(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// Assign godoc
// @Summary      Assign venture
// @Tags         ventures
// @Accept       json
// @Produce      json
// @Param        id path string true "Venture ID"
// @Param        request body ventureapp.AssignRequest true "Assignee, null to unassign"
// @Success      200 {object} APIResponse[ventureapp.VentureResponse]
// @Security     BearerAuth
// @Router       /ventures/{id}/assign [put]
func (h *VentureHandler) Assign(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.ventureService.Assign(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// Delete godoc
// @Summary      Delete venture
// @Tags         ventures
// @Param        id path string true "Venture ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id} [delete]
func (h *VentureHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.ventureService.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateReport godoc
// @Summary      Generate venture report
// @Description  Prints the venture one-pager to PDF and files it as an IMPACT_REPORT document
// @Tags         ventures
// @Produce      json
// @Param        id path string true "Venture ID"
// @Success      201 {object} APIResponse[documentapp.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id}/report [post]
func (h *VentureHandler) GenerateReport(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if h.reports == nil {
		h.HandleError(c, report.ErrPrintingDisabled)
		return
	}
	doc, err := h.reports.Generate(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}
