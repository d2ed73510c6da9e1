package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scientia-api/internal/models"
)

// IdentityRepository finds or creates the dimension rows that imports refer to by name.
type IdentityRepository interface {
	ResolveClass(ctx context.Context, name, section string) (uint, error)
	GetClass(ctx context.Context, id uint) (models.Class, error)
	GetSubject(ctx context.Context, id uint) (models.Subject, error)
	GetExam(ctx context.Context, id uint) (models.Exam, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	ListSubjects(ctx context.Context, classID uint) ([]models.Subject, error)
	ListExams(ctx context.Context) ([]models.Exam, error)
	AddSubjects(ctx context.Context, classID uint, names []string) (added int, duplicates int, err error)
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository constructs the repository implementation.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) ResolveClass(ctx context.Context, name, section string) (uint, error) {
	return resolveClass(r.db.WithContext(ctx), name, section)
}

func (r *identityRepository) GetClass(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&class).Error
	return class, err
}

func (r *identityRepository) GetSubject(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&subject).Error
	return subject, err
}

func (r *identityRepository) GetExam(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&exam).Error
	return exam, err
}

func (r *identityRepository) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).Order("class_name, section").Find(&classes).Error
	return classes, err
}

func (r *identityRepository) ListSubjects(ctx context.Context, classID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	err := r.db.WithContext(ctx).Where("class_id = ?", classID).Order("subject_name").Find(&subjects).Error
	return subjects, err
}

func (r *identityRepository) ListExams(ctx context.Context) ([]models.Exam, error) {
	var exams []models.Exam
	err := r.db.WithContext(ctx).Order("exam_name").Find(&exams).Error
	return exams, err
}

// AddSubjects inserts each name that the class does not already have, ignoring case.
func (r *identityRepository) AddSubjects(ctx context.Context, classID uint, names []string) (int, int, error) {
	added, duplicates := 0, 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			subject := models.Subject{ClassID: classID, SubjectName: strings.TrimSpace(name)}
			if subject.SubjectName == "" {
				continue
			}
			inserted, err := insertIgnoringConflict(tx, &subject)
			if err != nil {
				return err
			}
			if inserted {
				added++
			} else {
				duplicates++
			}
		}
		return nil
	})
	return added, duplicates, err
}

func resolveClass(tx *gorm.DB, name, section string) (uint, error) {
	name = strings.TrimSpace(name)
	section = strings.TrimSpace(section)
	lookup := func() (uint, error) {
		var class models.Class
		err := tx.Select("id").Where("class_name = ? AND section = ?", name, section).First(&class).Error
		return class.ID, err
	}
	return findOrCreate(tx, lookup, &models.Class{ClassName: name, Section: section})
}

func resolveSubject(tx *gorm.DB, classID uint, name string) (uint, error) {
	name = strings.TrimSpace(name)
	lookup := func() (uint, error) {
		var subject models.Subject
		err := tx.Select("id").
			Where("class_id = ? AND LOWER(subject_name) = LOWER(?)", classID, name).
			Order("id").
			First(&subject).Error
		return subject.ID, err
	}
	return findOrCreate(tx, lookup, &models.Subject{ClassID: classID, SubjectName: name})
}

func resolveExam(tx *gorm.DB, name string) (uint, error) {
	name = strings.TrimSpace(name)
	lookup := func() (uint, error) {
		var exam models.Exam
		err := tx.Select("id").Where("LOWER(exam_name) = LOWER(?)", name).Order("id").First(&exam).Error
		return exam.ID, err
	}
	return findOrCreate(tx, lookup, &models.Exam{ExamName: name})
}

// findOrCreate looks the key up, inserts it when absent and reads it back. Losing an
// insert race to another writer surfaces as a skipped insert or a unique violation,
// both of which resolve to the row the winner created.
func findOrCreate(tx *gorm.DB, lookup func() (uint, error), row interface{}) (uint, error) {
	id, err := lookup()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if _, err := insertIgnoringConflict(tx, row); err != nil {
		return 0, err
	}

	return lookup()
}

func insertIgnoringConflict(tx *gorm.DB, row interface{}) (bool, error) {
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
