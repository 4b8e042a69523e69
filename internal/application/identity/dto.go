package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
)

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Email        string `json:"email" binding:"required,email,max=200"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	Role         string `json:"role" binding:"omitempty,oneof=ADMIN MANAGER ANALYST ENTREPRENEUR"`
	Organization string `json:"organization" binding:"max=200"`
	Phone        string `json:"phone" binding:"max=50"`
}

// UpdateUserRequest represents a request to update a user. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Organization *string `json:"organization" binding:"omitempty,max=200"`
	Phone        *string `json:"phone" binding:"omitempty,max=50"`
	Role         *string `json:"role" binding:"omitempty,oneof=ADMIN MANAGER ANALYST ENTREPRENEUR"`
}

// ChangePasswordRequest represents a password change by the user themselves
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserListQuery holds list filters bound from the query string
type UserListQuery struct {
	Search    string `form:"search"`
	Role      string `form:"role" binding:"omitempty,oneof=ADMIN MANAGER ANALYST ENTREPRENEUR"`
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// UserResponse is the public view of a user; the password hash never leaves the service
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	Organization string     `json:"organization"`
	Phone        string     `json:"phone"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Status:       string(u.Status),
		Organization: u.Organization,
		Phone:        u.Phone,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// LoginRequest represents a login by email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResponse is returned by login and refresh
type LoginResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}

// LogoutInput identifies the access token being revoked
type LogoutInput struct {
	UserID       uuid.UUID
	TokenID      string
	RemainingTTL time.Duration
}
