package dto

import (
	"time"

	"github.com/noah-isme/scientia-api/internal/models"
)

// LoginRequest carries credentials. Role is optional; when present it must match the account.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// RegisterRequest creates a student account linked to a roster entry.
// Class accepts "10-A", "10 A" or "10" (section A).
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	RegNo    string `json:"reg_no" validate:"required,max=64"`
	Class    string `json:"class" validate:"required,max=32"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// NewUserResponse maps a model into its response.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Role: user.Role}
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
