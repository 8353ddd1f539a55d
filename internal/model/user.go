package model

import (
	"time"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
)

// User is a principal row as stored.
type User struct {
	ID           int64       `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         policy.Role `json:"role" db:"role"`
	FullName     string      `json:"full_name" db:"full_name"`
	Phone        *string     `json:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// PublicUser is the projection returned by the API. It never carries the secret hash.
type PublicUser struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      policy.Role `json:"role"`
	FullName  string      `json:"full_name"`
	Phone     *string     `json:"phone,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		FullName:  u.FullName,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u *User) Principal() policy.Principal {
	return policy.Principal{ID: u.ID, Role: u.Role}
}

// PublicUsers projects a slice of users.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

// UpdateUserRequest enumerates every field a user update may touch.
// Nil means unchanged.
type UpdateUserRequest struct {
	FullName *string      `json:"full_name" validate:"omitempty,min=1,max=120"`
	Phone    *string      `json:"phone" validate:"omitempty,max=30"`
	Email    *string      `json:"email" validate:"omitempty,email,max=254"`
	Role     *policy.Role `json:"role" validate:"omitempty,role"`
}

func (r *UpdateUserRequest) Empty() bool {
	return r.FullName == nil && r.Phone == nil && r.Email == nil && r.Role == nil
}
