package document

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"go.uber.org/zap"
)

// Config bounds document uploads
type Config struct {
	MaxSizeBytes      int64
	PresignExpiration time.Duration
}

// DocumentService manages document metadata and presigned transfers
type DocumentService struct {
	docRepo        document.DocumentRepository
	ventureRepo    venture.VentureRepository
	storage        document.ObjectStorage
	cfg            Config
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docRepo document.DocumentRepository,
	ventureRepo venture.VentureRepository,
	storage document.ObjectStorage,
	cfg Config,
	logger *zap.Logger,
) *DocumentService {
	if cfg.PresignExpiration <= 0 {
		cfg.PresignExpiration = 15 * time.Minute
	}
	return &DocumentService{
		docRepo:     docRepo,
		ventureRepo: ventureRepo,
		storage:     storage,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher for document events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create stores the metadata and returns a presigned upload URL
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (*CreateDocumentResponse, error) {
	if req.VentureID != nil {
		if _, err := s.ventureRepo.FindByID(ctx, *req.VentureID); err != nil {
			return nil, shared.NotFoundOr(err, "Venture")
		}
	}
	d, err := document.NewDocument(req.VentureID, req.Name, document.Type(req.Type), req.MimeType, req.SizeBytes, s.cfg.MaxSizeBytes, req.UploadedBy)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) && de.Code == "FILE_TOO_LARGE" {
			return nil, shared.NewDomainError(de.Code, "Document exceeds the maximum size of "+humanSize(s.cfg.MaxSizeBytes))
		}
		return nil, err
	}
	d.ExpiresAt = req.ExpiresAt

	url, expires, err := s.storage.GenerateUploadURL(ctx, d.StorageKey, d.MimeType, s.cfg.PresignExpiration)
	if err != nil {
		return nil, err
	}
	if err := s.docRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("Document registered",
		zap.String("document_id", d.ID.String()),
		zap.String("type", string(d.Type)),
		zap.String("size", humanSize(d.SizeBytes)))
	return &CreateDocumentResponse{Document: ToDocumentResponse(d), UploadURL: url, UploadExpiresAt: expires}, nil
}

// ConfirmUpload marks the document uploaded once the object exists in storage
func (s *DocumentService) ConfirmUpload(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*DocumentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.storage.ObjectExists(ctx, d.StorageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_STATE", "The document has not been uploaded to storage yet")
	}
	if err := d.MarkUploaded(0, actor); err != nil {
		return nil, err
	}
	if err := s.docRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, d)
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Store uploads bytes produced by the service itself and records an uploaded document
func (s *DocumentService) Store(ctx context.Context, d *document.Document, data []byte) (*DocumentResponse, error) {
	if err := s.storage.Upload(ctx, d.StorageKey, data, d.MimeType); err != nil {
		return nil, err
	}
	if err := d.MarkUploaded(int64(len(data)), d.UploadedByID); err != nil {
		return nil, err
	}
	if err := s.docRepo.Create(ctx, d); err != nil {
		if delErr := s.storage.DeleteObject(ctx, d.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.String("key", d.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	s.publish(ctx, d)
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// GetByID returns one document
func (s *DocumentService) GetByID(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// GetDownloadURL presigns a download of an uploaded document
func (s *DocumentService) GetDownloadURL(ctx context.Context, id uuid.UUID) (*DownloadURLResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsUploaded() {
		return nil, shared.NewDomainError("INVALID_STATE", "Document has not been uploaded")
	}
	url, expires, err := s.storage.GenerateDownloadURL(ctx, d.StorageKey, s.cfg.PresignExpiration)
	if err != nil {
		return nil, err
	}
	return &DownloadURLResponse{URL: url, ExpiresAt: expires}, nil
}

// List returns a page of documents
func (s *DocumentService) List(ctx context.Context, q DocumentListQuery) (*shared.Paginated[DocumentResponse], error) {
	filter := document.DocumentFilter{
		Keyword:  strings.TrimSpace(q.Search),
		Page:     max(q.Page, 1),
		PageSize: q.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.VentureID != "" {
		id, err := uuid.Parse(q.VentureID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "venture_id must be a UUID")
		}
		filter.VentureID = &id
	}
	if q.Type != "" {
		t := document.Type(q.Type)
		filter.Type = &t
	}
	if q.Status != "" {
		st := document.Status(q.Status)
		filter.Status = &st
	}

	docs, total, err := s.docRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToDocumentResponses(docs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListForVenture returns every document of a venture
func (s *DocumentService) ListForVenture(ctx context.Context, ventureID uuid.UUID) ([]DocumentResponse, error) {
	docs, err := s.docRepo.FindByVenture(ctx, ventureID)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponses(docs), nil
}

// Update changes name, type and expiry
func (s *DocumentService) Update(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	name, docType, expires := d.Name, d.Type, d.ExpiresAt
	if req.Name != nil {
		name = *req.Name
	}
	if req.Type != nil {
		docType = document.Type(*req.Type)
	}
	if req.ExpiresAt != nil {
		expires = req.ExpiresAt
	}
	if req.ClearExpiry {
		expires = nil
	}
	if err := d.Rename(name, docType, expires); err != nil {
		return nil, err
	}
	if err := s.docRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Delete removes the record. The storage object is removed on a best-effort basis.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return shared.NotFoundOr(err, "Document")
	}
	if err := s.storage.DeleteObject(ctx, d.StorageKey); err != nil {
		s.logger.Warn("Failed to delete document object",
			zap.String("document_id", id.String()),
			zap.String("key", d.StorageKey),
			zap.Error(err))
	}
	s.logger.Info("Document deleted", zap.String("document_id", id.String()))
	return nil
}

func (s *DocumentService) find(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	d, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Document")
	}
	return d, nil
}

func (s *DocumentService) publish(ctx context.Context, d *document.Document) {
	events := d.GetDomainEvents()
	d.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
}

// humanSize renders a byte count in decimal units, e.g. "25MB"
func humanSize(n int64) string {
	return units.HumanSize(float64(n))
}
