package models

// DateLayout is the storage format for attendance and payment dates on every backend.
const DateLayout = "2006-01-02"

// Attendance is one student's mark for a (class, subject, date) key.
// A nil SubjectID is general attendance and never mixes with per-subject rows.
type Attendance struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	ClassID   uint   `gorm:"column:class_id" json:"class_id"`
	SubjectID *uint  `gorm:"column:subject_id" json:"subject_id,omitempty"`
	AttDate   string `gorm:"column:att_date" json:"att_date"`
	RegNo     string `gorm:"column:reg_no" json:"reg_no"`
	Present   bool   `gorm:"column:present" json:"present"`
}

// TableName binds the model to the attendance table.
func (Attendance) TableName() string { return "attendance" }

// AttendanceKey identifies one replace-set of attendance rows.
type AttendanceKey struct {
	ClassID   uint
	SubjectID *uint
	Date      string
}

// RosterMark is a roster entry left-joined with its attendance row, if any.
type RosterMark struct {
	RegNo        string `gorm:"column:reg_no" json:"reg_no"`
	Name         string `gorm:"column:name" json:"name"`
	Present      *bool  `gorm:"column:present" json:"present"`
	AttendanceID *uint  `gorm:"column:attendance_id" json:"attendance_id"`
}

// AttendanceDay groups the reconstructed roster for one recorded date.
type AttendanceDay struct {
	Date     string       `json:"date"`
	Students []RosterMark `json:"students"`
}
