package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	FindAll(ctx context.Context, filter DocumentFilter) ([]*Document, int64, error)
	FindByVenture(ctx context.Context, ventureID uuid.UUID) ([]*Document, error)
	// UploadedTypesByVenture returns the distinct types of uploaded documents per venture
	UploadedTypesByVenture(ctx context.Context, ventureIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*Document, error)
}

// DocumentFilter contains filter options for querying documents
type DocumentFilter struct {
	VentureID *uuid.UUID
	Type      *Type
	Status    *Status
	Keyword   string
	Page      int
	PageSize  int
}
