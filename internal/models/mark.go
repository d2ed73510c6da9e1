package models

// Mark is one student's score for a subject in an exam. TotalMarks and PassMark are
// batch parameters copied onto every row of a submission.
type Mark struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	ClassID     uint    `gorm:"column:class_id" json:"class_id"`
	SubjectID   uint    `gorm:"column:subject_id" json:"subject_id"`
	ExamID      uint    `gorm:"column:exam_id" json:"exam_id"`
	RegNo       string  `gorm:"column:reg_no" json:"reg_no"`
	MarksScored float64 `gorm:"column:marks_scored" json:"marks_scored"`
	TotalMarks  float64 `gorm:"column:total_marks" json:"total_marks"`
	PassMark    float64 `gorm:"column:pass_mark" json:"pass_mark"`
}

// TableName binds the model to the marks table.
func (Mark) TableName() string { return "marks" }

// MarkResult is a mark joined with its subject and student.
type MarkResult struct {
	ID          uint    `gorm:"column:id" json:"id"`
	StudentName string  `gorm:"column:student_name" json:"student_name"`
	RegNo       string  `gorm:"column:reg_no" json:"reg_no"`
	SubjectName string  `gorm:"column:subject_name" json:"subject_name"`
	MarksScored float64 `gorm:"column:marks_scored" json:"marks_scored"`
	TotalMarks  float64 `gorm:"column:total_marks" json:"total_marks"`
	PassMark    float64 `gorm:"column:pass_mark" json:"pass_mark"`
}

// Passed reports whether the score reaches the pass mark.
func (r MarkResult) Passed() bool {
	return r.MarksScored >= r.PassMark
}
