package models

import "strings"

// Role identifies what a signed-in user is allowed to do.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises raw input into a known role.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// IsStaff reports whether the role may manage attendance, marks and timetables.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// User is a login account. Each user owns at most one student or profile row.
type User struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Username     string `gorm:"column:username" json:"username"`
	PasswordHash string `gorm:"column:password" json:"-"`
	Role         Role   `gorm:"column:role" json:"role"`
}

// TableName binds the model to the users table.
func (User) TableName() string { return "users" }
