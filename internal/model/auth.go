package model

import (
	"time"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
)

// RegisterRequest is a candidate principal.
type RegisterRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,max=72"`
	Role     policy.Role `json:"role" validate:"required,role"`
	FullName string      `json:"full_name" validate:"required,max=120"`
	Phone    *string     `json:"phone" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	UserID int64      `json:"user_id"`
	User   PublicUser `json:"user"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      PublicUser `json:"user"`
}
