// Package dto defines the request and response bodies of the user API.
package dto

import (
	"time"

	"blog_backend/internal/feature/user/domain/entity"
)

// CreateUserRequest is the registration form.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Verify   string `json:"verify"`
}

// LoginRequest carries local credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is a profile change. Absent fields are nil.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UserProps is the public projection of a user.
type UserProps struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserProps projects u onto the fields that are safe to expose.
func NewUserProps(u *entity.User) UserProps {
	return UserProps{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// MessageResponse is the body of every error and of logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ViewerResponse is returned after self-delete. Viewer is always null.
type ViewerResponse struct {
	Viewer *UserProps `json:"viewer"`
}
