package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/miv/backend/internal/application/identity"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/infrastructure/auth"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/interfaces/http/dto"
	"github.com/miv/backend/internal/interfaces/http/middleware"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// authFixture serves the auth and user handlers behind the JWT middleware
type authFixture struct {
	db        *persistence.Database
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	router    *gin.Engine
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Enabled:                true,
		Secret:                 "handler-test-secret-32-characters",
		RefreshSecret:          "handler-test-refresh-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "miv-test",
		MaxRefreshCount:        3,
	}
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := persistence.NewGormUserRepository(db.DB)
	jwtService := auth.NewJWTService(testJWTConfig())
	blacklist := auth.NewInMemoryTokenBlacklist()

	userService := appidentity.NewUserService(users, zap.NewNop())
	userService.SetRevoker(blacklist, time.Hour)
	authHandler := NewAuthHandler(appidentity.NewAuthService(users, jwtService, blacklist, zap.NewNop()))
	userHandler := NewUserHandler(userService)

	cfg := middleware.DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	router := gin.New()
	router.Use(middleware.JWTAuthMiddlewareWithConfig(cfg))
	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)
	api.PUT("/users/:id/password", userHandler.ChangePassword)
	admin := api.Group("/users", middleware.RequireRole(string(identity.RoleAdmin)))
	admin.GET("", userHandler.List)
	admin.POST("/:id/deactivate", userHandler.Deactivate)

	return &authFixture{db: db, jwt: jwtService, blacklist: blacklist, router: router}
}

func (f *authFixture) login(t *testing.T, email string) appidentity.LoginResponse {
	t.Helper()
	w := testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   appidentity.LoginRequest{Email: email, Password: "password123"},
	})
	return testutil.DecodeData[appidentity.LoginResponse](t, w, http.StatusOK)
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t)
	user := testutil.CreateUser(t, f.db, "grace@miv.test", identity.RoleAnalyst)

	resp := f.login(t, "Grace@MIV.test")

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "ANALYST", resp.User.Role)
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	f := newAuthFixture(t)
	user := testutil.CreateUser(t, f.db, "ivy@miv.test", identity.RoleAnalyst)

	w := testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   appidentity.LoginRequest{Email: "ivy@miv.test", Password: "wrong-password"},
	})
	testutil.AssertError(t, w, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials)

	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   map[string]string{"email": "not-an-email"},
	})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	require.NoError(t, user.Deactivate())
	require.NoError(t, persistence.NewGormUserRepository(f.db.DB).Update(testutil.ContextWithTimeout(t, time.Second), user))
	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   appidentity.LoginRequest{Email: "ivy@miv.test", Password: "password123"},
	})
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeAccountInactive)
}

func TestAuthHandler_RefreshAndMe(t *testing.T) {
	f := newAuthFixture(t)
	testutil.CreateUser(t, f.db, "ada@miv.test", identity.RoleManager)
	first := f.login(t, "ada@miv.test")

	w := testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/refresh",
		Body:   appidentity.RefreshRequest{RefreshToken: first.RefreshToken},
	})
	refreshed := testutil.DecodeData[appidentity.LoginResponse](t, w, http.StatusOK)
	assert.NotEmpty(t, refreshed.AccessToken)

	w = testutil.Do(t, f.router, testutil.Request{Path: "/api/auth/me", Token: refreshed.AccessToken})
	me := testutil.DecodeData[appidentity.UserResponse](t, w, http.StatusOK)
	assert.Equal(t, "ada@miv.test", me.Email)

	// an access token is not a refresh token
	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/refresh",
		Body:   appidentity.RefreshRequest{RefreshToken: first.AccessToken},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	testutil.CreateUser(t, f.db, "lin@miv.test", identity.RoleAnalyst)
	session := f.login(t, "lin@miv.test")

	w := testutil.Do(t, f.router, testutil.Request{Method: http.MethodPost, Path: "/api/auth/logout", Token: session.AccessToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, f.router, testutil.Request{Path: "/api/auth/me", Token: session.AccessToken})
	testutil.AssertError(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestUserHandler_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	owner := testutil.CreateUser(t, f.db, "owner@miv.test", identity.RoleAnalyst)
	other := testutil.CreateUser(t, f.db, "other@miv.test", identity.RoleAnalyst)
	session := f.login(t, "owner@miv.test")

	w := testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/users/" + other.ID.String() + "/password",
		Token:  session.AccessToken,
		Body:   appidentity.ChangePasswordRequest{OldPassword: "password123", NewPassword: "new-password-1"},
	})
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPut,
		Path:   "/api/users/" + owner.ID.String() + "/password",
		Token:  session.AccessToken,
		Body:   appidentity.ChangePasswordRequest{OldPassword: "password123", NewPassword: "new-password-1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   appidentity.LoginRequest{Email: "owner@miv.test", Password: "new-password-1"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserHandler_AdminOnly(t *testing.T) {
	f := newAuthFixture(t)
	testutil.CreateUser(t, f.db, "admin@miv.test", identity.RoleAdmin)
	analyst := testutil.CreateUser(t, f.db, "analyst@miv.test", identity.RoleAnalyst)
	admin := f.login(t, "admin@miv.test")
	analystSession := f.login(t, "analyst@miv.test")

	w := testutil.Do(t, f.router, testutil.Request{Path: "/api/users", Token: analystSession.AccessToken})
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = testutil.Do(t, f.router, testutil.Request{Path: "/api/users?page_size=1", Token: admin.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	env := testutil.DecodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 2, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)

	// deactivation revokes the analyst's live session
	w = testutil.Do(t, f.router, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/users/" + analyst.ID.String() + "/deactivate",
		Token:  admin.AccessToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, f.router, testutil.Request{Path: "/api/auth/me", Token: analystSession.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
