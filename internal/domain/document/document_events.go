package document

import (
	"github.com/miv/backend/internal/domain/shared"
)

// AggregateTypeDocument is the aggregate type for documents
const AggregateTypeDocument = "Document"

// EventTypeDocumentUploaded is published when an upload is confirmed
const EventTypeDocumentUploaded = "DocumentUploaded"

// DocumentUploadedEvent is published when an upload is confirmed
type DocumentUploadedEvent struct {
	shared.BaseDomainEvent
	Name      string  `json:"name"`
	Type      Type    `json:"type"`
	VentureID *string `json:"venture_id,omitempty"`
}

// NewDocumentUploadedEvent creates a new DocumentUploadedEvent
func NewDocumentUploadedEvent(d *Document) *DocumentUploadedEvent {
	e := &DocumentUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUploaded, AggregateTypeDocument, d.ID),
		Name:            d.Name,
		Type:            d.Type,
	}
	if d.VentureID != nil {
		s := d.VentureID.String()
		e.VentureID = &s
	}
	return e
}
