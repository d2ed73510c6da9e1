package service

import "github.com/noah-isme/scientia-api/internal/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   uint
	Username string
	Role     models.Role
}

func (a Actor) requireStaff() error {
	if !a.Role.IsStaff() {
		return forbiddenError("teacher or admin role required")
	}
	return nil
}

func (a Actor) requireAdmin() error {
	if a.Role != models.RoleAdmin {
		return forbiddenError("admin role required")
	}
	return nil
}
