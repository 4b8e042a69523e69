package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/miv/backend/internal/application/dashboard"
)

// DashboardHandler serves the read-only portfolio views
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboard.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *dashboard.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Overview godoc
// @Summary      Dashboard overview
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboard.OverviewResponse]
// @Security     BearerAuth
// @Router       /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	resp, err := h.dashboardService.Overview(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Calendar godoc
// @Summary      Calendar
// @Description  Reviews, metric targets and document expiries in [from, to). Defaults to the current month.
// @Tags         dashboard
// @Produce      json
// @Param        from query string false "YYYY-MM-DD or RFC 3339"
// @Param        to query string false "YYYY-MM-DD or RFC 3339"
// @Success      200 {object} APIResponse[dashboard.CalendarResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/calendar [get]
func (h *DashboardHandler) Calendar(c *gin.Context) {
	var q dashboard.CalendarQuery
	if !h.BindQuery(c, &q) {
		return
	}
	resp, err := h.dashboardService.Calendar(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Capital godoc
// @Summary      Capital pipeline
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboard.CapitalResponse]
// @Security     BearerAuth
// @Router       /dashboard/capital [get]
func (h *DashboardHandler) Capital(c *gin.Context) {
	resp, err := h.dashboardService.Capital(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SocialImpact godoc
// @Summary      Social impact
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboard.SocialImpactResponse]
// @Security     BearerAuth
// @Router       /dashboard/social-impact [get]
func (h *DashboardHandler) SocialImpact(c *gin.Context) {
	resp, err := h.dashboardService.SocialImpact(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DueDiligence godoc
// @Summary      Due diligence queue
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]dashboard.DueDiligenceItem]
// @Security     BearerAuth
// @Router       /dashboard/due-diligence [get]
func (h *DashboardHandler) DueDiligence(c *gin.Context) {
	items, err := h.dashboardService.DueDiligence(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if items == nil {
		items = []dashboard.DueDiligenceItem{}
	}
	h.Success(c, items)
}
