package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/infrastructure/auth"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	identity.SetPasswordCost(4)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func createTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Test User", "test@miv.local", "password123", identity.RoleManager)
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        2,
	})
}

func createAuthService(userRepo *MockUserRepository, blacklist auth.TokenBlacklist) *AuthService {
	return NewAuthService(userRepo, newJWTService(), blacklist, zap.NewNop())
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)

	userRepo.On("FindByEmail", ctx, "test@miv.local").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	result, err := createAuthService(userRepo, nil).Login(ctx, LoginRequest{
		Email:    " Test@MIV.local ",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, "MANAGER", result.User.Role)
	assert.NotNil(t, user.LastLoginAt)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", ctx, "test@miv.local").Return(createTestUser(t), nil)

		_, err := createAuthService(userRepo, nil).Login(ctx, LoginRequest{Email: "test@miv.local", Password: "wrong-password"})
		assertDomainCode(t, err, "INVALID_CREDENTIALS")
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", ctx, "nobody@miv.local").Return(nil, shared.ErrNotFound)

		_, err := createAuthService(userRepo, nil).Login(ctx, LoginRequest{Email: "nobody@miv.local", Password: "password123"})
		assertDomainCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("inactive account", func(t *testing.T) {
		user := createTestUser(t)
		require.NoError(t, user.Deactivate())
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", ctx, "test@miv.local").Return(user, nil)

		_, err := createAuthService(userRepo, nil).Login(ctx, LoginRequest{Email: "test@miv.local", Password: "password123"})
		assertDomainCode(t, err, "ACCOUNT_INACTIVE")
	})

	t.Run("repository failure is passed through", func(t *testing.T) {
		boom := errors.New("connection reset")
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", ctx, "test@miv.local").Return(nil, boom)

		_, err := createAuthService(userRepo, nil).Login(ctx, LoginRequest{Email: "test@miv.local", Password: "password123"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := createAuthService(userRepo, blacklist)

	pair, err := newJWTService().GenerateTokenPair(auth.GenerateTokenInput{UserID: user.ID, Email: user.Email, Role: string(user.Role)})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, user.ID, refreshed.User.ID)

	t.Run("used refresh token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
		assertDomainCode(t, err, "TOKEN_REVOKED")
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.AccessToken})
		assertDomainCode(t, err, "TOKEN_INVALID")
	})

	t.Run("refresh count is capped", func(t *testing.T) {
		second, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: second.RefreshToken})
		assertDomainCode(t, err, "TOKEN_MAX_REFRESH")
	})

	t.Run("deactivated user cannot refresh", func(t *testing.T) {
		inactive := createTestUser(t)
		require.NoError(t, inactive.Deactivate())
		repo := new(MockUserRepository)
		repo.On("FindByID", ctx, inactive.ID).Return(inactive, nil)

		p, err := newJWTService().GenerateTokenPair(auth.GenerateTokenInput{UserID: inactive.ID})
		require.NoError(t, err)
		_, err = createAuthService(repo, nil).Refresh(ctx, RefreshRequest{RefreshToken: p.RefreshToken})
		assertDomainCode(t, err, "ACCOUNT_INACTIVE")
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := createAuthService(new(MockUserRepository), blacklist)

	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenID: "jti-1", RemainingTTL: time.Minute}))

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// expired tokens need no entry
	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenID: "jti-2"}))
	revoked, err = blacklist.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	missing := uuid.New()
	userRepo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	svc := createAuthService(userRepo, nil)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "test@miv.local", me.Email)

	_, err = svc.Me(ctx, missing)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestMapTokenError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{auth.ErrExpiredToken, "TOKEN_EXPIRED"},
		{auth.ErrMaxRefreshExceeded, "TOKEN_MAX_REFRESH"},
		{auth.ErrTokenBlacklisted, "TOKEN_REVOKED"},
		{auth.ErrInvalidTokenType, "TOKEN_INVALID"},
		{errors.New("garbage"), "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			assertDomainCode(t, MapTokenError(tt.err), tt.code)
		})
	}
}
