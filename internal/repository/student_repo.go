package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// UpsertOutcome reports whether an upsert inserted or updated a row.
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

// StudentDetails carries the optional guardian and contact fields.
type StudentDetails struct {
	MotherName  *string
	MotherPhone *string
	FatherName  *string
	FatherPhone *string
	Address     *string
	DOB         *string
	BloodGroup  *string
}

// StudentRecord is an incoming student keyed by RegNo. When Details is nil the stored
// guardian fields are left untouched; otherwise they are replaced wholesale.
type StudentRecord struct {
	RegNo   string
	Name    string
	ClassID *uint
	UserID  *uint
	Details *StudentDetails
}

// ClassKey names a class by its stored name and section.
type ClassKey struct {
	Name    string
	Section string
}

// StudentRepository persists students keyed by registration number.
type StudentRepository interface {
	Upsert(ctx context.Context, record StudentRecord) (UpsertOutcome, error)
	ImportRow(ctx context.Context, class ClassKey, record StudentRecord) (UpsertOutcome, error)
	GetByRegNo(ctx context.Context, regNo string) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	ProfileByUserID(ctx context.Context, userID uint) (models.StudentProfile, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the repository implementation.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Upsert saves one student. A ClassID that names no class yields gorm.ErrRecordNotFound.
func (r *studentRepository) Upsert(ctx context.Context, record StudentRecord) (UpsertOutcome, error) {
	var outcome UpsertOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.ClassID != nil {
			var class models.Class
			if err := tx.Select("id").Where("id = ?", *record.ClassID).First(&class).Error; err != nil {
				return err
			}
		}
		var err error
		outcome, err = upsertStudent(tx, record)
		return err
	})
	return outcome, err
}

// ImportRow resolves the class and upserts the student atomically, so a failed row
// never leaves a freshly created class behind.
func (r *studentRepository) ImportRow(ctx context.Context, class ClassKey, record StudentRecord) (UpsertOutcome, error) {
	var outcome UpsertOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classID, err := resolveClass(tx, class.Name, class.Section)
		if err != nil {
			return err
		}
		record.ClassID = &classID
		outcome, err = upsertStudent(tx, record)
		return err
	})
	return outcome, err
}

func (r *studentRepository) GetByRegNo(ctx context.Context, regNo string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Where("reg_no = ?", strings.TrimSpace(regNo)).First(&student).Error
	return student, err
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error
	return student, err
}

func (r *studentRepository) ProfileByUserID(ctx context.Context, userID uint) (models.StudentProfile, error) {
	var profile models.StudentProfile
	result := r.db.WithContext(ctx).Raw(`
		SELECT s.*, c.class_name, c.section
		FROM students s
		LEFT JOIN classes c ON s.class_id = c.id
		WHERE s.user_id = ?`, userID).Scan(&profile)
	if result.Error != nil {
		return models.StudentProfile{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.StudentProfile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (r *studentRepository) ListByClass(ctx context.Context, classID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).Where("class_id = ?", classID).Order("name, reg_no").Find(&students).Error
	return students, err
}

func upsertStudent(tx *gorm.DB, record StudentRecord) (UpsertOutcome, error) {
	var existing models.Student
	err := tx.Select("id").Where("reg_no = ?", record.RegNo).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"name":     record.Name,
			"class_id": record.ClassID,
		}
		if record.UserID != nil {
			updates["user_id"] = record.UserID
		}
		if d := record.Details; d != nil {
			updates["mother_name"] = d.MotherName
			updates["mother_phone"] = d.MotherPhone
			updates["father_name"] = d.FatherName
			updates["father_phone"] = d.FatherPhone
			updates["address"] = d.Address
			updates["dob"] = d.DOB
			updates["blood_group"] = d.BloodGroup
		}
		if err := tx.Model(&models.Student{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return "", err
		}
		return OutcomeUpdated, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		student := models.Student{
			RegNo:   record.RegNo,
			Name:    record.Name,
			ClassID: record.ClassID,
			UserID:  record.UserID,
		}
		if d := record.Details; d != nil {
			student.MotherName = d.MotherName
			student.MotherPhone = d.MotherPhone
			student.FatherName = d.FatherName
			student.FatherPhone = d.FatherPhone
			student.Address = d.Address
			student.DOB = d.DOB
			student.BloodGroup = d.BloodGroup
		}
		if err := tx.Create(&student).Error; err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	default:
		return "", err
	}
}
