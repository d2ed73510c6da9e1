package dto

// TimetableRequest saves one timetable slot.
type TimetableRequest struct {
	ClassID     uint   `json:"class_id" validate:"required"`
	Day         string `json:"day" validate:"required"`
	SubjectName string `json:"subject_name" validate:"required,max=128"`
	FacultyName string `json:"faculty_name" validate:"required,max=128"`
}

// SubjectAddRequest adds a comma separated list of subjects to a class named either by id
// or by number and section.
type SubjectAddRequest struct {
	ClassID     uint   `json:"class_id"`
	ClassNumber string `json:"class_number" validate:"required_without=ClassID,max=16"`
	Section     string `json:"section" validate:"required_with=ClassNumber,max=8"`
	Subjects    string `json:"subjects" validate:"required"`
}

// SubjectAddResponse reports how many names were new.
type SubjectAddResponse struct {
	ClassID    uint `json:"class_id"`
	Added      int  `json:"added"`
	Duplicates int  `json:"duplicates"`
}

// RemovalResponse reports the rows removed by a cascade.
type RemovalResponse struct {
	Entity  string           `json:"entity"`
	ID      uint             `json:"id"`
	Removed map[string]int64 `json:"removed"`
}
