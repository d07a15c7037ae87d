package dto

import (
	"time"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// UserCreateRequest payload for POST /api/users. is_active is accepted but ignored.
type UserCreateRequest struct {
	Username  string  `json:"username" validate:"required,max=150,username_format"`
	Email     string  `json:"email" validate:"omitempty,email,max=254"`
	FirstName string  `json:"first_name" validate:"max=150"`
	LastName  string  `json:"last_name" validate:"max=150"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin standard"`
	IsActive  *bool   `json:"is_active"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
}

// UserUpdateRequest payload for PUT and PATCH /api/users/:id.
type UserUpdateRequest struct {
	Username  *string `json:"username" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin standard"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
}

// UserResponse is the public representation of a user. Password hashes are never exposed.
type UserResponse struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Role       domain.Role `json:"role"`
	IsActive   bool        `json:"is_active"`
	DateJoined time.Time   `json:"date_joined"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Subject,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		IsActive:   user.Active,
		DateJoined: user.CreatedAt,
	}
}

// TokenObtainRequest payload for POST /api/token/.
type TokenObtainRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenRefreshRequest payload for POST /api/token/refresh/.
type TokenRefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenPairResponse standard response for token obtain.
type TokenPairResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessTokenResponse standard response for token refresh.
type AccessTokenResponse struct {
	Access          string    `json:"access"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}
