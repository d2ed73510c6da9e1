package dto

import "github.com/noah-isme/scientia-api/internal/models"

// AttendanceSubmitRequest replaces the attendance set for one class, subject and date.
// A nil SubjectID records general attendance.
type AttendanceSubmitRequest struct {
	ClassID   uint     `json:"class_id" validate:"required"`
	SubjectID *uint    `json:"subject_id" validate:"omitempty,gt=0"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Present   []string `json:"present"`
}

// AttendanceSubmitResponse reports the stored set.
type AttendanceSubmitResponse struct {
	ClassID   uint     `json:"class_id"`
	SubjectID *uint    `json:"subject_id,omitempty"`
	Date      string   `json:"date"`
	Total     int      `json:"total"`
	Present   int      `json:"present"`
	Absent    int      `json:"absent"`
	Unknown   []string `json:"unknown"`
}

// AttendanceDeleteRequest removes one recorded day.
type AttendanceDeleteRequest struct {
	ClassID   uint   `json:"class_id" validate:"required"`
	SubjectID *uint  `json:"subject_id" validate:"omitempty,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

// AttendanceStatusRequest edits one stored attendance row.
type AttendanceStatusRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// AttendanceHistoryResponse is the reconstructed attendance register of a class.
type AttendanceHistoryResponse struct {
	Class   models.Class           `json:"class"`
	Subject *models.Subject        `json:"subject,omitempty"`
	Days    []models.AttendanceDay `json:"days"`
}
