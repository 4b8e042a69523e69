package models

import (
	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
)

// ActivityModel is the persistence model for the activity feed.
type ActivityModel struct {
	BaseModel
	Type        activity.Type        `gorm:"type:varchar(30);not null;index"`
	Title       string               `gorm:"type:varchar(300);not null"`
	Description string               `gorm:"type:text"`
	UserID      *uuid.UUID           `gorm:"type:uuid;index"`
	VentureID   *uuid.UUID           `gorm:"type:uuid;index"`
	Metadata    JSON[map[string]any] `gorm:"type:jsonb"`

	Venture *VentureModel `gorm:"foreignKey:VentureID;constraint:OnDelete:SET NULL"`
	User    *UserModel    `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity.
func (m *ActivityModel) ToDomain() *activity.Activity {
	return &activity.Activity{
		BaseEntity:  m.BaseModel.ToDomain(),
		Type:        m.Type,
		Title:       m.Title,
		Description: m.Description,
		UserID:      m.UserID,
		VentureID:   m.VentureID,
		Metadata:    m.Metadata.Data,
	}
}

// ActivityModelFromDomain creates a persistence model from a domain Activity.
func ActivityModelFromDomain(a *activity.Activity) *ActivityModel {
	m := &ActivityModel{
		Type:        a.Type,
		Title:       a.Title,
		Description: a.Description,
		UserID:      a.UserID,
		VentureID:   a.VentureID,
		Metadata:    NewJSON(a.Metadata),
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
