package document

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
)

// Type classifies a document
type Type string

const (
	TypePitchDeck          Type = "PITCH_DECK"
	TypeFinancialStatement Type = "FINANCIAL_STATEMENT"
	TypeBusinessPlan       Type = "BUSINESS_PLAN"
	TypeLegal              Type = "LEGAL"
	TypeImpactReport       Type = "IMPACT_REPORT"
	TypeOther              Type = "OTHER"
)

// IsValid reports whether the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypePitchDeck, TypeFinancialStatement, TypeBusinessPlan, TypeLegal, TypeImpactReport, TypeOther:
		return true
	}
	return false
}

// Status tracks whether the object is present in storage
type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusUploaded      Status = "UPLOADED"
)

// Document is metadata for a file held in object storage
type Document struct {
	shared.BaseAggregateRoot
	VentureID    *uuid.UUID
	Name         string
	Type         Type
	MimeType     string
	SizeBytes    int64
	StorageKey   string
	Status       Status
	UploadedByID *uuid.UUID
	ExpiresAt    *time.Time
	PageCount    int
}

// NewDocument creates a pending document and derives its storage key
func NewDocument(ventureID *uuid.UUID, name string, docType Type, mimeType string, size, maxSize int64, uploadedBy *uuid.UUID) (*Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if docType == "" {
		docType = TypeOther
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type: "+string(docType))
	}
	if size < 0 {
		return nil, shared.NewDomainError("INVALID_SIZE", "Size cannot be negative")
	}
	if maxSize > 0 && size > maxSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", fmt.Sprintf("Document exceeds the maximum size of %d bytes", maxSize))
	}

	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VentureID:         ventureID,
		Name:              strings.TrimSpace(name),
		Type:              docType,
		MimeType:          strings.TrimSpace(mimeType),
		SizeBytes:         size,
		Status:            StatusPendingUpload,
		UploadedByID:      uploadedBy,
	}
	d.StorageKey = d.buildKey()
	return d, nil
}

func (d *Document) buildKey() string {
	scope := "general"
	if d.VentureID != nil {
		scope = "ventures/" + d.VentureID.String()
	}
	return path.Join("documents", scope, d.ID.String(), sanitizeFilename(d.Name))
}

// Rename updates descriptive fields
func (d *Document) Rename(name string, docType Type, expiresAt *time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !docType.IsValid() {
		return shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type: "+string(docType))
	}
	d.Name = strings.TrimSpace(name)
	d.Type = docType
	d.ExpiresAt = expiresAt
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// MarkUploaded records that the object landed in storage
func (d *Document) MarkUploaded(size int64, actor *uuid.UUID) error {
	if d.Status == StatusUploaded {
		return shared.NewDomainError("INVALID_STATE", "Document is already uploaded")
	}
	if size > 0 {
		d.SizeBytes = size
	}
	d.Status = StatusUploaded
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	event := NewDocumentUploadedEvent(d)
	event.ActorID = actor
	d.AddDomainEvent(event)
	return nil
}

// IsUploaded returns true once the object is in storage
func (d *Document) IsUploaded() bool {
	return d.Status == StatusUploaded
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Document name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Document name cannot exceed 255 characters")
	}
	return nil
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
