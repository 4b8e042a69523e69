package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/activity"
	"github.com/miv/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MaxRecent caps the size of the recent feed
const MaxRecent = 100

// ActivityService reads and writes the activity feed
type ActivityService struct {
	repo   activity.ActivityRepository
	logger *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(repo activity.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Record stores a manual note
func (s *ActivityService) Record(ctx context.Context, req RecordActivityRequest) (*ActivityResponse, error) {
	t := activity.TypeNote
	if req.Type != "" {
		t = activity.Type(strings.ToUpper(req.Type))
	}
	if t != activity.TypeNote && t != activity.TypeCustom {
		return nil, shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Only NOTE and CUSTOM activities can be recorded manually")
	}
	a, err := activity.NewActivity(t, req.Title, req.Description, req.UserID, req.VentureID, req.Metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	resp := ToActivityResponse(a)
	return &resp, nil
}

// Log appends a system entry. Used by event recording and workflow steps.
func (s *ActivityService) Log(ctx context.Context, t activity.Type, title, description string, userID, ventureID *uuid.UUID, metadata map[string]any) (*activity.Activity, error) {
	a, err := activity.NewActivity(t, title, description, userID, ventureID, metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns a page of activities, newest first
func (s *ActivityService) List(ctx context.Context, q ActivityListQuery) (*shared.Paginated[ActivityResponse], error) {
	page, size := max(q.Page, 1), q.PageSize
	if size <= 0 {
		size = 20
	}
	filter := activity.Filter{VentureID: q.VentureID, UserID: q.UserID, Page: page, PageSize: size}
	if q.Type != "" {
		t := activity.Type(strings.ToUpper(q.Type))
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Unknown activity type: "+q.Type)
		}
		filter.Type = &t
	}
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToActivityResponses(items), total, page, size)
	return &result, nil
}

// Recent returns the last n activities, optionally for one venture. n is capped at MaxRecent.
func (s *ActivityService) Recent(ctx context.Context, n int, ventureID *uuid.UUID) ([]ActivityResponse, error) {
	if n <= 0 {
		n = 10
	}
	n = min(n, MaxRecent)
	items, err := s.repo.Recent(ctx, n, ventureID)
	if err != nil {
		return nil, err
	}
	return ToActivityResponses(items), nil
}
