package venture

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"go.uber.org/zap"
)

// VentureService handles venture pipeline use cases
type VentureService struct {
	ventureRepo    venture.VentureRepository
	userRepo       identity.UserRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewVentureService creates a new VentureService
func NewVentureService(ventureRepo venture.VentureRepository, userRepo identity.UserRepository, logger *zap.Logger) *VentureService {
	return &VentureService{ventureRepo: ventureRepo, userRepo: userRepo, logger: logger}
}

// SetEventPublisher sets the publisher for venture events
func (s *VentureService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a venture at the intake stage
func (s *VentureService) Create(ctx context.Context, req CreateVentureRequest) (*VentureResponse, error) {
	v, err := venture.NewVenture(req.profile(), req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if req.AssignedToID != nil {
		if err := s.ensureUser(ctx, *req.AssignedToID); err != nil {
			return nil, err
		}
		// set directly so creation emits a single event
		v.AssignedToID = req.AssignedToID
	}

	if err := s.ventureRepo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.publish(ctx, v)

	s.logger.Info("Venture created", zap.String("venture_id", v.ID.String()), zap.String("name", v.Name))
	resp := ToVentureResponse(v)
	return &resp, nil
}

// GetByID returns one venture
func (s *VentureService) GetByID(ctx context.Context, id uuid.UUID) (*VentureResponse, error) {
	v, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVentureResponse(v)
	return &resp, nil
}

// Find loads the domain venture, mapping a missing row to NOT_FOUND
func (s *VentureService) Find(ctx context.Context, id uuid.UUID) (*venture.Venture, error) {
	v, err := s.ventureRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Venture")
	}
	return v, nil
}

// List returns a page of ventures
func (s *VentureService) List(ctx context.Context, q VentureListQuery) (*shared.Paginated[VentureResponse], error) {
	filter := venture.VentureFilter{
		Keyword:   strings.TrimSpace(q.Search),
		Sector:    strings.TrimSpace(q.Sector),
		Page:      max(q.Page, 1),
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if q.Stage != "" {
		stage := venture.Stage(q.Stage)
		filter.Stage = &stage
	}
	if q.Status != "" {
		status := venture.Status(q.Status)
		filter.Status = &status
	}
	if q.FundingType != "" {
		ft := venture.FundingType(q.FundingType)
		filter.FundingType = &ft
	}
	if q.AssignedToID != "" {
		id, err := uuid.Parse(q.AssignedToID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "assigned_to_id must be a UUID")
		}
		filter.AssignedToID = &id
	}

	ventures, total, err := s.ventureRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]VentureResponse, len(ventures))
	for i, v := range ventures {
		items[i] = ToVentureResponse(v)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update changes the profile fields present in the request
func (s *VentureService) Update(ctx context.Context, id uuid.UUID, req UpdateVentureRequest, actor *uuid.UUID) (*VentureResponse, error) {
	return s.mutate(ctx, id, func(v *venture.Venture) error {
		return v.UpdateProfile(req.merge(v), actor)
	})
}

// ChangeStage moves the venture to another stage. Closed ventures are refused with INVALID_STATE.
func (s *VentureService) ChangeStage(ctx context.Context, id uuid.UUID, req ChangeStageRequest, actor *uuid.UUID) (*VentureResponse, error) {
	return s.mutate(ctx, id, func(v *venture.Venture) error {
		return v.ChangeStage(venture.Stage(req.Stage), actor)
	})
}

// ChangeStatus sets the lifecycle status
func (s *VentureService) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest, actor *uuid.UUID) (*VentureResponse, error) {
	return s.mutate(ctx, id, func(v *venture.Venture) error {
		return v.ChangeStatus(venture.Status(req.Status), actor)
	})
}

// Assign sets the responsible user, who must exist, or clears it
func (s *VentureService) Assign(ctx context.Context, id uuid.UUID, req AssignRequest, actor *uuid.UUID) (*VentureResponse, error) {
	if req.UserID != nil {
		if err := s.ensureUser(ctx, *req.UserID); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, id, func(v *venture.Venture) error {
		v.AssignTo(req.UserID, actor)
		return nil
	})
}

// Delete removes the venture; metrics and documents cascade
func (s *VentureService) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	v, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	v.MarkDeleted(actor)
	if err := s.ventureRepo.Delete(ctx, id); err != nil {
		return shared.NotFoundOr(err, "Venture")
	}
	s.publish(ctx, v)
	s.logger.Info("Venture deleted", zap.String("venture_id", id.String()))
	return nil
}

func (s *VentureService) mutate(ctx context.Context, id uuid.UUID, change func(*venture.Venture) error) (*VentureResponse, error) {
	v, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(v); err != nil {
		return nil, err
	}
	if len(v.GetDomainEvents()) == 0 {
		// nothing changed, e.g. moving to the current stage
		resp := ToVentureResponse(v)
		return &resp, nil
	}
	if err := s.ventureRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.publish(ctx, v)
	resp := ToVentureResponse(v)
	return &resp, nil
}

func (s *VentureService) ensureUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return shared.NotFoundOr(err, "Assigned user")
	}
	return nil
}

func (s *VentureService) publish(ctx context.Context, v *venture.Venture) {
	events := v.GetDomainEvents()
	v.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish venture events", zap.Error(err))
	}
}
