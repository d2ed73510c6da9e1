package models

// Student is keyed externally by RegNo, which attendance, marks and fees reference as text.
type Student struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	RegNo       string  `gorm:"column:reg_no" json:"reg_no"`
	Name        string  `gorm:"column:name" json:"name"`
	ClassID     *uint   `gorm:"column:class_id" json:"class_id,omitempty"`
	UserID      *uint   `gorm:"column:user_id" json:"user_id,omitempty"`
	MotherName  *string `gorm:"column:mother_name" json:"mother_name,omitempty"`
	MotherPhone *string `gorm:"column:mother_phone" json:"mother_phone,omitempty"`
	FatherName  *string `gorm:"column:father_name" json:"father_name,omitempty"`
	FatherPhone *string `gorm:"column:father_phone" json:"father_phone,omitempty"`
	Address     *string `gorm:"column:address" json:"address,omitempty"`
	DOB         *string `gorm:"column:dob" json:"dob,omitempty"`
	BloodGroup  *string `gorm:"column:blood_group" json:"blood_group,omitempty"`
}

// TableName binds the model to the students table.
func (Student) TableName() string { return "students" }

// StudentProfile is a student joined with its class labels.
type StudentProfile struct {
	Student
	ClassName *string `gorm:"column:class_name" json:"class_name,omitempty"`
	Section   *string `gorm:"column:section" json:"section,omitempty"`
}
