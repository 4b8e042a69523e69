package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create creates a new document record
func (r *GormDocumentRepository) Create(ctx context.Context, d *document.Document) error {
	return translateError(r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(d)).Error)
}

// Update updates a document with a version check
func (r *GormDocumentRepository) Update(ctx context.Context, d *document.Document) error {
	return saveVersioned(ctx, r.db, models.DocumentModelFromDomain(d), d.ID, d.Version)
}

// Delete deletes a document record
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.DocumentModel{}, id)
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns documents matching the filter with pagination
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter document.DocumentFilter) ([]*document.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{})
	if filter.VentureID != nil {
		query = query.Where("venture_id = ?", *filter.VentureID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Keyword))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PageSize)
	var rows []models.DocumentModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDocuments(rows), total, nil
}

// FindByVenture returns every document attached to a venture
func (r *GormDocumentRepository) FindByVenture(ctx context.Context, ventureID uuid.UUID) ([]*document.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("venture_id = ?", ventureID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDocuments(rows), nil
}

// UploadedTypesByVenture returns the distinct types of uploaded documents per venture
func (r *GormDocumentRepository) UploadedTypesByVenture(ctx context.Context, ventureIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ventureIDs))
	if len(ventureIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		VentureID uuid.UUID
		Type      string
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Distinct("venture_id", "type").
		Where("venture_id IN ? AND status = ?", ventureIDs, document.StatusUploaded).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VentureID] = append(out[row.VentureID], row.Type)
	}
	return out, nil
}

// FindExpiringBetween returns documents expiring in [from, to)
func (r *GormDocumentRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*document.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("expires_at >= ? AND expires_at < ?", from, to).
		Order("expires_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDocuments(rows), nil
}

func toDocuments(rows []models.DocumentModel) []*document.Document {
	out := make([]*document.Document, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
