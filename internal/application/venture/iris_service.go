package venture

import (
	"context"
	"strings"

	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
)

// IRISService serves the IRIS+ reference catalog
type IRISService struct {
	repo venture.IRISMetricRepository
}

// NewIRISService creates a new IRISService
func NewIRISService(repo venture.IRISMetricRepository) *IRISService {
	return &IRISService{repo: repo}
}

// List returns a page of catalog entries
func (s *IRISService) List(ctx context.Context, q IRISListQuery) (*shared.Paginated[venture.IRISMetric], error) {
	filter := venture.IRISFilter{
		Search:   strings.TrimSpace(q.Search),
		Category: strings.ToUpper(strings.TrimSpace(q.Category)),
		Page:     max(q.Page, 1),
		PageSize: q.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetByCode returns one catalog entry
func (s *IRISService) GetByCode(ctx context.Context, code string) (*venture.IRISMetric, error) {
	m, err := s.repo.FindByCode(ctx, venture.NormalizeCode(code))
	if err != nil {
		return nil, shared.NotFoundOr(err, "IRIS+ metric")
	}
	return m, nil
}
