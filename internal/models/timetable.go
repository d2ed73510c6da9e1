package models

// Timetable assigns a faculty member to a subject on a weekday for a class.
type Timetable struct {
	ID          uint   `gorm:"column:id;primaryKey" json:"id"`
	ClassID     uint   `gorm:"column:class_id" json:"class_id"`
	Day         string `gorm:"column:day" json:"day"`
	SubjectName string `gorm:"column:subject_name" json:"subject_name"`
	FacultyName string `gorm:"column:faculty_name" json:"faculty_name"`
}

// TableName binds the model to the timetables table.
func (Timetable) TableName() string { return "timetables" }
