package models

import "strings"

// ClassNamePrefix is prepended to the bare class number supplied by imports and forms.
const ClassNamePrefix = "Class "

// Class is a (class_name, section) pair such as "Class 10" / "A".
type Class struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	ClassName string `gorm:"column:class_name" json:"class_name"`
	Section   string `gorm:"column:section" json:"section"`
}

// TableName binds the model to the classes table.
func (Class) TableName() string { return "classes" }

// ClassName expands a bare class number into the stored class name.
func ClassName(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(number), strings.ToLower(ClassNamePrefix)) {
		return ClassNamePrefix + strings.TrimSpace(number[len(ClassNamePrefix):])
	}
	return ClassNamePrefix + number
}

// Subject belongs to a class; names are unique per class ignoring case.
type Subject struct {
	ID          uint   `gorm:"column:id;primaryKey" json:"id"`
	ClassID     uint   `gorm:"column:class_id" json:"class_id"`
	SubjectName string `gorm:"column:subject_name" json:"subject_name"`
}

// TableName binds the model to the subjects table.
func (Subject) TableName() string { return "subjects" }

// Exam is a named assessment shared by every class.
type Exam struct {
	ID       uint   `gorm:"column:id;primaryKey" json:"id"`
	ExamName string `gorm:"column:exam_name" json:"exam_name"`
}

// TableName binds the model to the exams table.
func (Exam) TableName() string { return "exams" }
