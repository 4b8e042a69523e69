package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserRevoker invalidates every outstanding token of a user
type UserRevoker interface {
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
}

// UserService handles user management
type UserService struct {
	userRepo       identity.UserRepository
	eventPublisher shared.EventPublisher
	revoker        UserRevoker
	revokeTTL      time.Duration
	logger         *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// SetEventPublisher sets the publisher for user events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRevoker makes Deactivate reject the user's tokens for ttl, normally
// the refresh token lifetime.
func (s *UserService) SetRevoker(revoker UserRevoker, ttl time.Duration) {
	s.revoker = revoker
	s.revokeTTL = ttl
}

// Create creates a user. The email must be unused.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	if req.Organization != "" || req.Phone != "" {
		if err := user.UpdateProfile(user.Name, req.Organization, req.Phone); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, q UserListQuery) (*shared.Paginated[UserResponse], error) {
	filter := identity.NewUserFilter()
	filter.Keyword = strings.TrimSpace(q.Search)
	if q.Role != "" {
		role := identity.Role(q.Role)
		filter.Role = &role
	}
	if q.Status != "" {
		status := identity.UserStatus(q.Status)
		filter.Status = &status
	}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.SortBy != "" {
		filter.SortBy = q.SortBy
	}
	if q.SortOrder != "" {
		filter.SortOrder = q.SortOrder
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = ToUserResponse(u)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update changes profile fields and, when given, the role
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	name, org, phone := user.Name, user.Organization, user.Phone
	if req.Name != nil {
		name = *req.Name
	}
	if req.Organization != nil {
		org = *req.Organization
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if err := user.UpdateProfile(name, org, phone); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if err := user.ChangeRole(identity.Role(*req.Role)); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	resp := ToUserResponse(user)
	return &resp, nil
}

// Activate re-enables login for a user
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, id, (*identity.User).Activate)
}

// Deactivate blocks login and, when a revoker is set, every issued token
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	resp, err := s.transition(ctx, id, (*identity.User).Deactivate)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil {
		if err := s.revoker.RevokeUser(ctx, id.String(), s.revokeTTL); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated user", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *UserService) transition(ctx context.Context, id uuid.UUID, change func(*identity.User) error) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword verifies the old password and stores the new one
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User password changed", zap.String("user_id", id.String()))
	return nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return shared.NotFoundOr(err, "User")
	}
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// Count returns the number of users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NotFoundOr(err, "User")
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
