package handler

import (
	"github.com/gin-gonic/gin"
	notificationapp "github.com/miv/backend/internal/application/notification"
)

// NotificationHandler handles the caller's in-app notifications and the
// email log.
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
	emailService        *notificationapp.EmailService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService *notificationapp.NotificationService,
	emailService *notificationapp.EmailService,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		emailService:        emailService,
	}
}

// List godoc
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Param        unread_only query bool false "Only unread"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]notificationapp.NotificationResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var q notificationapp.NotificationListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.notificationService.ListForUser(c.Request.Context(), userID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Create godoc
// @Summary      Notify a user
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body notificationapp.CreateNotificationRequest true "Notification"
// @Success      201 {object} APIResponse[notificationapp.NotificationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req notificationapp.CreateNotificationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.notificationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, n)
}

// UnreadCount godoc
// @Summary      Count my unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[notificationapp.UnreadCountResponse]
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, count)
}

// MarkRead godoc
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      200 {object} APIResponse[notificationapp.NotificationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	n, err := h.notificationService.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}

// MarkAllRead godoc
// @Summary      Mark all my notifications read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[notificationapp.MarkAllReadResponse]
// @Security     BearerAuth
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	resp, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete notification
// @Tags         notifications
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SendEmail godoc
// @Summary      Send email
// @Description  Sends through the configured mailer and records the attempt
// @Tags         emails
// @Accept       json
// @Produce      json
// @Param        request body notificationapp.SendEmailRequest true "Email"
// @Success      201 {object} APIResponse[notificationapp.EmailLogResponse]
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails [post]
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req notificationapp.SendEmailRequest
	if !h.BindJSON(c, &req) {
		return
	}
	log, err := h.emailService.Send(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, log)
}

// GetEmail godoc
// @Summary      Get email log entry
// @Tags         emails
// @Produce      json
// @Param        id path string true "Email ID"
// @Success      200 {object} APIResponse[notificationapp.EmailLogResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails/{id} [get]
func (h *NotificationHandler) GetEmail(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	log, err := h.emailService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, log)
}

// ListEmails godoc
// @Summary      List email log
// @Tags         emails
// @Produce      json
// @Param        status query string false "PENDING, SENT or FAILED"
// @Param        workflow_run_id query string false "Workflow run"
// @Param        venture_id query string false "Venture"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]notificationapp.EmailLogResponse]
// @Security     BearerAuth
// @Router       /emails [get]
func (h *NotificationHandler) ListEmails(c *gin.Context) {
	var q notificationapp.EmailListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.emailService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}
