package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/document"
)

// CreateDocumentRequest registers a document before its bytes are uploaded
type CreateDocumentRequest struct {
	VentureID *uuid.UUID `json:"venture_id"`
	Name      string     `json:"name" binding:"required,max=255"`
	Type      string     `json:"type" binding:"omitempty,oneof=PITCH_DECK FINANCIAL_STATEMENT BUSINESS_PLAN LEGAL IMPACT_REPORT OTHER"`
	MimeType  string     `json:"mime_type" binding:"max=100"`
	SizeBytes int64      `json:"size_bytes" binding:"min=0"`
	ExpiresAt *time.Time `json:"expires_at"`

	UploadedBy *uuid.UUID `json:"-"`
}

// UpdateDocumentRequest changes the descriptive fields of a document
type UpdateDocumentRequest struct {
	Name      *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Type      *string    `json:"type" binding:"omitempty,oneof=PITCH_DECK FINANCIAL_STATEMENT BUSINESS_PLAN LEGAL IMPACT_REPORT OTHER"`
	ExpiresAt *time.Time `json:"expires_at"`
	// ClearExpiry removes the expiry date
	ClearExpiry bool `json:"clear_expiry"`
}

// DocumentListQuery holds list filters bound from the query string
type DocumentListQuery struct {
	VentureID string `form:"venture_id" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=PITCH_DECK FINANCIAL_STATEMENT BUSINESS_PLAN LEGAL IMPACT_REPORT OTHER"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING_UPLOAD UPLOADED"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DocumentResponse is the API view of a document
type DocumentResponse struct {
	ID           uuid.UUID  `json:"id"`
	VentureID    *uuid.UUID `json:"venture_id,omitempty"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	MimeType     string     `json:"mime_type"`
	SizeBytes    int64      `json:"size_bytes"`
	Size         string     `json:"size"`
	StorageKey   string     `json:"storage_key"`
	Status       string     `json:"status"`
	UploadedByID *uuid.UUID `json:"uploaded_by_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	PageCount    int        `json:"page_count,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateDocumentResponse carries the new document and where to PUT its bytes
type CreateDocumentResponse struct {
	Document        DocumentResponse `json:"document"`
	UploadURL       string           `json:"upload_url"`
	UploadExpiresAt time.Time        `json:"upload_expires_at"`
}

// DownloadURLResponse is a presigned download link
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		VentureID:    d.VentureID,
		Name:         d.Name,
		Type:         string(d.Type),
		MimeType:     d.MimeType,
		SizeBytes:    d.SizeBytes,
		Size:         humanSize(d.SizeBytes),
		StorageKey:   d.StorageKey,
		Status:       string(d.Status),
		UploadedByID: d.UploadedByID,
		ExpiresAt:    d.ExpiresAt,
		PageCount:    d.PageCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToDocumentResponses converts a slice of documents
func ToDocumentResponses(docs []*document.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = ToDocumentResponse(d)
	}
	return out
}
