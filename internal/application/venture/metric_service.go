package venture

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"go.uber.org/zap"
)

// MetricService manages GEDSI metrics of ventures
type MetricService struct {
	metricRepo     venture.GEDSIMetricRepository
	ventureRepo    venture.VentureRepository
	irisRepo       venture.IRISMetricRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewMetricService creates a new MetricService
func NewMetricService(
	metricRepo venture.GEDSIMetricRepository,
	ventureRepo venture.VentureRepository,
	irisRepo venture.IRISMetricRepository,
	logger *zap.Logger,
) *MetricService {
	return &MetricService{
		metricRepo:  metricRepo,
		ventureRepo: ventureRepo,
		irisRepo:    irisRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher for metric events
func (s *MetricService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a metric to an existing venture
func (s *MetricService) Create(ctx context.Context, ventureID uuid.UUID, req CreateMetricRequest) (*MetricResponse, error) {
	if _, err := s.ventureRepo.FindByID(ctx, ventureID); err != nil {
		return nil, shared.NotFoundOr(err, "Venture")
	}
	if err := s.checkCode(ctx, req.MetricCode); err != nil {
		return nil, err
	}
	m, err := venture.NewGEDSIMetric(ventureID, req.spec())
	if err != nil {
		return nil, err
	}
	if err := s.metricRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("GEDSI metric created",
		zap.String("metric_id", m.ID.String()),
		zap.String("venture_id", ventureID.String()),
		zap.String("category", string(m.Category)))
	resp := ToMetricResponse(m)
	return &resp, nil
}

// GetByID returns one metric
func (s *MetricService) GetByID(ctx context.Context, id uuid.UUID) (*MetricResponse, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMetricResponse(m)
	return &resp, nil
}

// List returns a page of metrics
func (s *MetricService) List(ctx context.Context, q MetricListQuery) (*shared.Paginated[MetricResponse], error) {
	filter := venture.MetricFilter{Page: max(q.Page, 1), PageSize: q.PageSize}
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
	if q.Category != "" {
		c := venture.MetricCategory(q.Category)
		filter.Category = &c
	}
	if q.Status != "" {
		st := venture.MetricStatus(q.Status)
		filter.Status = &st
	}

	metrics, total, err := s.metricRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMetricResponses(metrics), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListForVenture returns every metric of a venture
func (s *MetricService) ListForVenture(ctx context.Context, ventureID uuid.UUID) ([]MetricResponse, error) {
	metrics, err := s.metricRepo.FindByVenture(ctx, ventureID)
	if err != nil {
		return nil, err
	}
	return ToMetricResponses(metrics), nil
}

// Update replaces the editable fields
func (s *MetricService) Update(ctx context.Context, id uuid.UUID, req UpdateMetricRequest) (*MetricResponse, error) {
	if err := s.checkCode(ctx, req.MetricCode); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(m *venture.GEDSIMetric) error {
		return m.Update(req.spec())
	})
}

// RecordProgress sets the current value; the status follows from it
func (s *MetricService) RecordProgress(ctx context.Context, id uuid.UUID, req RecordProgressRequest) (*MetricResponse, error) {
	return s.mutate(ctx, id, func(m *venture.GEDSIMetric) error {
		return m.RecordProgress(req.CurrentValue)
	})
}

// Verify confirms a completed metric
func (s *MetricService) Verify(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*MetricResponse, error) {
	return s.mutate(ctx, id, func(m *venture.GEDSIMetric) error {
		return m.Verify(actor)
	})
}

// Delete removes a metric
func (s *MetricService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.metricRepo.Delete(ctx, id); err != nil {
		return shared.NotFoundOr(err, "GEDSI metric")
	}
	return nil
}

func (s *MetricService) mutate(ctx context.Context, id uuid.UUID, change func(*venture.GEDSIMetric) error) (*MetricResponse, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(m); err != nil {
		return nil, err
	}
	if err := s.metricRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	events := m.GetDomainEvents()
	m.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish metric events", zap.Error(err))
		}
	}
	resp := ToMetricResponse(m)
	return &resp, nil
}

func (s *MetricService) find(ctx context.Context, id uuid.UUID) (*venture.GEDSIMetric, error) {
	m, err := s.metricRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "GEDSI metric")
	}
	return m, nil
}

// checkCode requires a non-empty IRIS+ code to exist in the catalog
func (s *MetricService) checkCode(ctx context.Context, code string) error {
	code = venture.NormalizeCode(code)
	if code == "" {
		return nil
	}
	if _, err := s.irisRepo.FindByCode(ctx, code); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_METRIC_CODE", "Unknown IRIS+ metric code: "+code)
		}
		return err
	}
	return nil
}
