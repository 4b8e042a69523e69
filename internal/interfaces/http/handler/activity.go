package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	activityapp "github.com/miv/backend/internal/application/activity"
)

// ActivityHandler handles the activity feed
type ActivityHandler struct {
	BaseHandler
	activityService *activityapp.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *activityapp.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type activityListParams struct {
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Record godoc
// @Summary      Add feed entry
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body activityapp.RecordActivityRequest true "Entry"
// @Success      201 {object} APIResponse[activityapp.ActivityResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activities [post]
func (h *ActivityHandler) Record(c *gin.Context) {
	var req activityapp.RecordActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.UserID = actorID(c)
	a, err := h.activityService.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// List godoc
// @Summary      List activities
// @Tags         activities
// @Produce      json
// @Param        venture_id query string false "Venture"
// @Param        user_id query string false "User"
// @Param        type query string false "Activity type"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]activityapp.ActivityResponse]
// @Security     BearerAuth
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var params activityListParams
	if !h.BindQuery(c, &params) {
		return
	}
	ventureID, ok := h.QueryID(c, "venture_id")
	if !ok {
		return
	}
	userID, ok := h.QueryID(c, "user_id")
	if !ok {
		return
	}
	page, err := h.activityService.List(c.Request.Context(), activityapp.ActivityListQuery{
		VentureID: ventureID,
		UserID:    userID,
		Type:      params.Type,
		Page:      params.Page,
		PageSize:  params.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Recent godoc
// @Summary      Recent activity
// @Tags         activities
// @Produce      json
// @Param        limit query int false "Entries, at most 100" default(10)
// @Param        venture_id query string false "Venture"
// @Success      200 {object} APIResponse[[]activityapp.ActivityResponse]
// @Security     BearerAuth
// @Router       /activities/recent [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		h.BadRequest(c, "limit must be a number")
		return
	}
	ventureID, ok := h.QueryID(c, "venture_id")
	if !ok {
		return
	}
	items, err := h.activityService.Recent(c.Request.Context(), n, ventureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
