package handler

import (
	"github.com/gin-gonic/gin"
	documentapp "github.com/miv/backend/internal/application/document"
)

// DocumentHandler handles document endpoints. File bytes never pass through
// the API: clients PUT to the presigned upload URL and confirm afterwards.
type DocumentHandler struct {
	BaseHandler
	documentService *documentapp.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *documentapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Create godoc
// @Summary      Register document
// @Description  Creates a PENDING_UPLOAD document and returns a presigned upload URL
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body documentapp.CreateDocumentRequest true "Document"
// @Success      201 {object} APIResponse[documentapp.CreateDocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req documentapp.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.UploadedBy = actorID(c)
	resp, err := h.documentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ConfirmUpload godoc
// @Summary      Confirm upload
// @Description  Checks the stored object and marks the document UPLOADED
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID"
// @Success      200 {object} APIResponse[documentapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/confirm [post]
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.ConfirmUpload(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByID godoc
// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID"
// @Success      200 {object} APIResponse[documentapp.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetDownloadURL godoc
// @Summary      Get download URL
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID"
// @Success      200 {object} APIResponse[documentapp.DownloadURLResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/download [get]
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	url, err := h.documentService.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}

// List godoc
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Param        venture_id query string false "Venture"
// @Param        type query string false "Document type"
// @Param        status query string false "PENDING_UPLOAD or UPLOADED"
// @Param        search query string false "Name"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]documentapp.DocumentResponse]
// @Security     BearerAuth
// @Router       /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var q documentapp.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.documentService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// ListForVenture godoc
// @Summary      List documents of a venture
// @Tags         documents
// @Produce      json
// @Param        id path string true "Venture ID"
// @Success      200 {object} APIResponse[[]documentapp.DocumentResponse]
// @Security     BearerAuth
// @Router       /ventures/{id}/documents [get]
func (h *DocumentHandler) ListForVenture(c *gin.Context) {
	ventureID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	docs, err := h.documentService.ListForVenture(c.Request.Context(), ventureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// Update godoc
// @Summary      Update document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID"
// @Param        request body documentapp.UpdateDocumentRequest true "Changes"
// @Success      200 {object} APIResponse[documentapp.DocumentResponse]
// @Security     BearerAuth
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req documentapp.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.documentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete godoc
// @Summary      Delete document
// @Description  Removes the record and its stored object
// @Tags         documents
// @Param        id path string true "Document ID"
// @Success      204
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
