package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/document"
)

// DocumentModel is the persistence model for the Document aggregate.
type DocumentModel struct {
	AggregateModel
	VentureID    *uuid.UUID      `gorm:"type:uuid;index"`
	Name         string          `gorm:"type:varchar(255);not null"`
	Type         document.Type   `gorm:"type:varchar(40);not null;index"`
	MimeType     string          `gorm:"type:varchar(100)"`
	SizeBytes    int64           `gorm:"not null;default:0"`
	StorageKey   string          `gorm:"type:varchar(500);not null;uniqueIndex"`
	Status       document.Status `gorm:"type:varchar(20);not null;index"`
	UploadedByID *uuid.UUID      `gorm:"type:uuid"`
	ExpiresAt    *time.Time      `gorm:"index"`
	PageCount    int             `gorm:"not null;default:0"`

	Venture *VentureModel `gorm:"foreignKey:VentureID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *document.Document {
	return &document.Document{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VentureID:         m.VentureID,
		Name:              m.Name,
		Type:              m.Type,
		MimeType:          m.MimeType,
		SizeBytes:         m.SizeBytes,
		StorageKey:        m.StorageKey,
		Status:            m.Status,
		UploadedByID:      m.UploadedByID,
		ExpiresAt:         m.ExpiresAt,
		PageCount:         m.PageCount,
	}
}

// DocumentModelFromDomain creates a persistence model from a domain Document.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		VentureID:    d.VentureID,
		Name:         d.Name,
		Type:         d.Type,
		MimeType:     d.MimeType,
		SizeBytes:    d.SizeBytes,
		StorageKey:   d.StorageKey,
		Status:       d.Status,
		UploadedByID: d.UploadedByID,
		ExpiresAt:    d.ExpiresAt,
		PageCount:    d.PageCount,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}
