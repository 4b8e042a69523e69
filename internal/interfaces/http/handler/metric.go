package handler

import (
	"github.com/gin-gonic/gin"
	ventureapp "github.com/miv/backend/internal/application/venture"
)

// MetricHandler handles GEDSI metric and IRIS+ catalog endpoints
type MetricHandler struct {
	BaseHandler
	metricService *ventureapp.MetricService
	irisService   *ventureapp.IRISService
}

// NewMetricHandler creates a new metric handler
func NewMetricHandler(metricService *ventureapp.MetricService, irisService *ventureapp.IRISService) *MetricHandler {
	return &MetricHandler{metricService: metricService, irisService: irisService}
}

// Create godoc
// @Summary      Add metric to venture
// @Description  A metric_code must exist in the IRIS+ catalog when given
// @Tags         metrics
// @Accept       json
// @Produce      json
// @Param        id path string true "Venture ID"
// @Param        request body ventureapp.CreateMetricRequest true "Metric"
// @Success      201 {object} APIResponse[ventureapp.MetricResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ventures/{id}/metrics [post]
func (h *MetricHandler) Create(c *gin.Context) {
	ventureID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.CreateMetricRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.metricService.Create(c.Request.Context(), ventureID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// ListForVenture godoc
// @Summary      List metrics of a venture
// @Tags         metrics
// @Produce      json
// @Param        id path string true "Venture ID"
// @Success      200 {object} APIResponse[[]ventureapp.MetricResponse]
// @Security     BearerAuth
// @Router       /ventures/{id}/metrics [get]
func (h *MetricHandler) ListForVenture(c *gin.Context) {
	ventureID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	metrics, err := h.metricService.ListForVenture(c.Request.Context(), ventureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, metrics)
}

// GetByID godoc
// @Summary      Get metric
// @Tags         metrics
// @Produce      json
// @Param        id path string true "Metric ID"
// @Success      200 {object} APIResponse[ventureapp.MetricResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /metrics/{id} [get]
func (h *MetricHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	m, err := h.metricService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// List godoc
// @Summary      List metrics
// @Tags         metrics
// @Produce      json
// @Param        venture_id query string false "Venture"
// @Param        category query string false "GENDER, DISABILITY or SOCIAL_INCLUSION"
// @Param        status query string false "Status"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]ventureapp.MetricResponse]
// @Security     BearerAuth
// @Router       /metrics [get]
func (h *MetricHandler) List(c *gin.Context) {
	var q ventureapp.MetricListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.metricService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @Summary      Update metric
// @Tags         metrics
// @Accept       json
// @Produce      json
// @Param        id path string true "Metric ID"
// @Param        request body ventureapp.UpdateMetricRequest true "Metric"
// @Success      200 {object} APIResponse[ventureapp.MetricResponse]
// @Security     BearerAuth
// @Router       /metrics/{id} [put]
func (h *MetricHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.UpdateMetricRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.metricService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// RecordProgress godoc
// @Summary      Record metric progress
// @Tags         metrics
// @Accept       json
// @Produce      json
// @Param        id path string true "Metric ID"
// @Param        request body ventureapp.RecordProgressRequest true "Current value"
// @Success      200 {object} APIResponse[ventureapp.MetricResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /metrics/{id}/progress [put]
func (h *MetricHandler) RecordProgress(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req ventureapp.RecordProgressRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.metricService.RecordProgress(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Verify godoc
// @Summary      Verify metric
// @Description  Only completed metrics can be verified
// @Tags         metrics
// @Produce      json
// @Param        id path string true "Metric ID"
// @Success      200 {object} APIResponse[ventureapp.MetricResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /metrics/{id}/verify [post]
func (h *MetricHandler) Verify(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	m, err := h.metricService.Verify(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Delete godoc
// @Summary      Delete metric
// @Tags         metrics
// @Param        id path string true "Metric ID"
// @Success      204
// @Security     BearerAuth
// @Router       /metrics/{id} [delete]
func (h *MetricHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.metricService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListIRIS godoc
// @Summary      Browse the IRIS+ catalog
// @Tags         iris
// @Produce      json
// @Param        search query string false "Code or name"
// @Param        category query string false "Category"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]venture.IRISMetric]
// @Security     BearerAuth
// @Router       /iris-metrics [get]
func (h *MetricHandler) ListIRIS(c *gin.Context) {
	var q ventureapp.IRISListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.irisService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetIRIS godoc
// @Summary      Get IRIS+ metric
// @Tags         iris
// @Produce      json
// @Param        code path string true "IRIS+ code"
// @Success      200 {object} APIResponse[venture.IRISMetric]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /iris-metrics/{code} [get]
func (h *MetricHandler) GetIRIS(c *gin.Context) {
	m, err := h.irisService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}
