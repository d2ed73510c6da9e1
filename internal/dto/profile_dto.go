package dto

import "github.com/noah-isme/scientia-api/internal/models"

// ProfileResponse holds the caller's own profile; exactly one of the role fields is set
// when a profile exists.
type ProfileResponse struct {
	User    UserResponse           `json:"user"`
	Student *models.StudentProfile `json:"student,omitempty"`
	Teacher *models.TeacherProfile `json:"teacher,omitempty"`
	Admin   *models.AdminProfile   `json:"admin,omitempty"`
}
