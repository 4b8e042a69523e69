package venture

import (
	"github.com/miv/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeVenture     = "Venture"
	AggregateTypeGEDSIMetric = "GEDSIMetric"
)

// Venture domain event types
const (
	EventTypeVentureCreated       = "VentureCreated"
	EventTypeVentureUpdated       = "VentureUpdated"
	EventTypeVentureStageChanged  = "VentureStageChanged"
	EventTypeVentureStatusChanged = "VentureStatusChanged"
	EventTypeVentureAssigned      = "VentureAssigned"
	EventTypeVentureDeleted       = "VentureDeleted"
	EventTypeMetricVerified       = "GEDSIMetricVerified"
)

// VentureEvent is implemented by every event that concerns a single venture
type VentureEvent interface {
	shared.DomainEvent
	VentureRef() (id string, name string)
}

// VentureCreatedEvent is published when a venture is created
type VentureCreatedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	Sector string `json:"sector"`
	Stage  Stage  `json:"stage"`
}

// NewVentureCreatedEvent creates a new VentureCreatedEvent
func NewVentureCreatedEvent(v *Venture) *VentureCreatedEvent {
	return &VentureCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureCreated, AggregateTypeVenture, v.ID),
		Name:            v.Name,
		Sector:          v.Sector,
		Stage:           v.Stage,
	}
}

// VentureRef implements VentureEvent
func (e *VentureCreatedEvent) VentureRef() (string, string) {
	return e.AggID.String(), e.Name
}

// VentureUpdatedEvent is published when the profile of a venture changes
type VentureUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewVentureUpdatedEvent creates a new VentureUpdatedEvent
func NewVentureUpdatedEvent(v *Venture) *VentureUpdatedEvent {
	return &VentureUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureUpdated, AggregateTypeVenture, v.ID),
		Name:            v.Name,
	}
}

// VentureRef implements VentureEvent
func (e *VentureUpdatedEvent) VentureRef() (string, string) {
	return e.AggID.String(), e.Name
}

// VentureStageChangedEvent is published when a venture moves through the pipeline
type VentureStageChangedEvent struct {
	shared.BaseDomainEvent
	Name      string `json:"name"`
	FromStage Stage  `json:"from_stage"`
	ToStage   Stage  `json:"to_stage"`
}

// NewVentureStageChangedEvent creates a new VentureStageChangedEvent
func NewVentureStageChangedEvent(v *Venture, from, to Stage) *VentureStageChangedEvent {
	return &VentureStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureStageChanged, AggregateTypeVenture, v.ID),
		Name:            v.Name,
		FromStage:       from,
		ToStage:         to,
	}
}

// VentureRef implements VentureEvent
func (e *VentureStageChangedEvent) VentureRef() (string, string) {
	return e.AggID.String(), e.Name
}

// VentureStatusChangedEvent is published when the lifecycle status changes
type VentureStatusChangedEvent struct {
	shared.BaseDomainEvent
	Name       string `json:"name"`
	FromStatus Status `json:"from_status"`
	ToStatus   Status `json:"to_status"`
}

// NewVentureStatusChangedEvent creates a new VentureStatusChangedEvent
func NewVentureStatusChangedEvent(v *Venture, from, to Status) *VentureStatusChangedEvent {
	return &VentureStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureStatusChanged, AggregateTypeVenture, v.ID),
		Name:            v.Name,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// VentureRef implements VentureEvent
func (e *VentureStatusChangedEvent) VentureRef() (string, string) {
	return e.AggID.String(), e.Name
}

// VentureAssignedEvent is published when the responsible user changes
type VentureAssignedEvent struct {
	shared.BaseDomainEvent
	Name         string  `json:"name"`
	AssignedToID *string `json:"assigned_to_id,omitempty"`
}

// NewVentureAssignedEvent creates a new VentureAssignedEvent
func NewVentureAssignedEvent(v *Venture) *VentureAssignedEvent {
	e := &VentureAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureAssigned, AggregateTypeVenture, v.ID),
		Name:            v.Name,
	}
	if v.AssignedToID != nil {
		s := v.AssignedToID.String()
		e.AssignedToID = &s
	}
	return e
}

// VentureRef implements VentureEvent
func (e *VentureAssignedEvent) VentureRef() (string, string) {
	return e.AggID.String(), e.Name
}

// VentureDeletedEvent is published before a venture is removed
type VentureDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewVentureDeletedEvent creates a new VentureDeletedEvent
func NewVentureDeletedEvent(v *Venture) *VentureDeletedEvent {
	return &VentureDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVentureDeleted, AggregateTypeVenture, v.ID),
		Name:            v.Name,
	}
}

// MetricVerifiedEvent is published when a GEDSI metric is verified
type MetricVerifiedEvent struct {
	shared.BaseDomainEvent
	VentureID  string         `json:"venture_id"`
	MetricName string         `json:"metric_name"`
	Category   MetricCategory `json:"category"`
}

// NewMetricVerifiedEvent creates a new MetricVerifiedEvent
func NewMetricVerifiedEvent(m *GEDSIMetric) *MetricVerifiedEvent {
	return &MetricVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMetricVerified, AggregateTypeGEDSIMetric, m.ID),
		VentureID:       m.VentureID.String(),
		MetricName:      m.Name,
		Category:        m.Category,
	}
}
