package models

// TeacherProfile is keyed externally by RegisterID.
type TeacherProfile struct {
	ID           uint    `gorm:"column:id;primaryKey" json:"id"`
	UserID       *uint   `gorm:"column:user_id" json:"user_id,omitempty"`
	Name         string  `gorm:"column:name" json:"name"`
	RegisterID   string  `gorm:"column:register_id" json:"register_id"`
	MainSubject  *string `gorm:"column:main_subject" json:"main_subject,omitempty"`
	ClassAdvisor *string `gorm:"column:class_advisor" json:"class_advisor,omitempty"`
}

// TableName binds the model to the teacher_profiles table.
func (TeacherProfile) TableName() string { return "teacher_profiles" }

// AdminProfile is keyed externally by RegisterID.
type AdminProfile struct {
	ID           uint    `gorm:"column:id;primaryKey" json:"id"`
	UserID       *uint   `gorm:"column:user_id" json:"user_id,omitempty"`
	Name         string  `gorm:"column:name" json:"name"`
	RegisterID   string  `gorm:"column:register_id" json:"register_id"`
	MainSubject  *string `gorm:"column:main_subject" json:"main_subject,omitempty"`
	ClassAdvisor *string `gorm:"column:class_advisor" json:"class_advisor,omitempty"`
	RoleTitle    *string `gorm:"column:role_title" json:"role_title,omitempty"`
}

// TableName binds the model to the admin_profiles table.
func (AdminProfile) TableName() string { return "admin_profiles" }
