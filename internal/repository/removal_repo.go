package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// ErrSharedRegNo means a registration number is held by more than one student row, so
// cascading on it would touch another student's history.
var ErrSharedRegNo = errors.New("registration number is shared by multiple students")

// RemovalSummary counts the rows a cascade removed.
type RemovalSummary struct {
	Students   int64 `json:"students"`
	Users      int64 `json:"users"`
	Attendance int64 `json:"attendance"`
	Marks      int64 `json:"marks"`
	Fees       int64 `json:"fees"`
	Subjects   int64 `json:"subjects"`
	Timetables int64 `json:"timetables"`
	Exams      int64 `json:"exams"`
	Classes    int64 `json:"classes"`
}

// RemovalRepository deletes entities together with every row that depends on them.
// Each call is a single transaction.
type RemovalRepository interface {
	DeleteStudent(ctx context.Context, id uint) (RemovalSummary, error)
	DeleteClass(ctx context.Context, id uint) (RemovalSummary, error)
	DeleteSubject(ctx context.Context, id uint) (RemovalSummary, error)
	DeleteExam(ctx context.Context, id uint) (RemovalSummary, error)
}

type removalRepository struct {
	db *gorm.DB
}

// NewRemovalRepository constructs the repository implementation.
func NewRemovalRepository(db *gorm.DB) RemovalRepository {
	return &removalRepository{db: db}
}

func (r *removalRepository) DeleteStudent(ctx context.Context, id uint) (RemovalSummary, error) {
	var summary RemovalSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Where("id = ?", id).First(&student).Error; err != nil {
			return err
		}
		if err := ensureUniqueRegNos(tx, []string{student.RegNo}); err != nil {
			return err
		}
		return removeStudent(tx, student, &summary)
	})
	return summary, err
}

func (r *removalRepository) DeleteClass(ctx context.Context, id uint) (RemovalSummary, error) {
	var summary RemovalSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.Where("id = ?", id).First(&class).Error; err != nil {
			return err
		}

		var students []models.Student
		if err := tx.Where("class_id = ?", id).Find(&students).Error; err != nil {
			return err
		}
		regNos := make([]string, 0, len(students))
		for _, student := range students {
			regNos = append(regNos, student.RegNo)
		}
		if err := ensureUniqueRegNos(tx, regNos); err != nil {
			return err
		}

		for _, student := range students {
			if err := removeStudent(tx, student, &summary); err != nil {
				return err
			}
		}

		// Rows recorded against the class for students who have since moved away.
		steps := []struct {
			model   interface{}
			counter *int64
		}{
			{&models.Attendance{}, &summary.Attendance},
			{&models.Mark{}, &summary.Marks},
			{&models.Fee{}, &summary.Fees},
			{&models.Timetable{}, &summary.Timetables},
			{&models.Subject{}, &summary.Subjects},
		}
		for _, step := range steps {
			result := tx.Where("class_id = ?", id).Delete(step.model)
			if result.Error != nil {
				return result.Error
			}
			*step.counter += result.RowsAffected
		}

		result := tx.Where("id = ?", id).Delete(&models.Class{})
		if result.Error != nil {
			return result.Error
		}
		summary.Classes = result.RowsAffected
		return nil
	})
	return summary, err
}

func (r *removalRepository) DeleteSubject(ctx context.Context, id uint) (RemovalSummary, error) {
	var summary RemovalSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject models.Subject
		if err := tx.Where("id = ?", id).First(&subject).Error; err != nil {
			return err
		}

		marks := tx.Where("subject_id = ?", id).Delete(&models.Mark{})
		if marks.Error != nil {
			return marks.Error
		}
		attendance := tx.Where("subject_id = ?", id).Delete(&models.Attendance{})
		if attendance.Error != nil {
			return attendance.Error
		}
		subjects := tx.Where("id = ?", id).Delete(&models.Subject{})
		if subjects.Error != nil {
			return subjects.Error
		}

		summary.Marks = marks.RowsAffected
		summary.Attendance = attendance.RowsAffected
		summary.Subjects = subjects.RowsAffected
		return nil
	})
	return summary, err
}

func (r *removalRepository) DeleteExam(ctx context.Context, id uint) (RemovalSummary, error) {
	var summary RemovalSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam models.Exam
		if err := tx.Where("id = ?", id).First(&exam).Error; err != nil {
			return err
		}

		marks := tx.Where("exam_id = ?", id).Delete(&models.Mark{})
		if marks.Error != nil {
			return marks.Error
		}
		exams := tx.Where("id = ?", id).Delete(&models.Exam{})
		if exams.Error != nil {
			return exams.Error
		}

		summary.Marks = marks.RowsAffected
		summary.Exams = exams.RowsAffected
		return nil
	})
	return summary, err
}

// removeStudent deletes attendance, marks and fees by reg_no, then the linked user, then
// the student row. The user link is cleared first so legacy foreign keys without
// ON DELETE SET NULL do not block the user delete.
func removeStudent(tx *gorm.DB, student models.Student, summary *RemovalSummary) error {
	for _, step := range []struct {
		model   interface{}
		counter *int64
	}{
		{&models.Attendance{}, &summary.Attendance},
		{&models.Mark{}, &summary.Marks},
		{&models.Fee{}, &summary.Fees},
	} {
		result := tx.Where("reg_no = ?", student.RegNo).Delete(step.model)
		if result.Error != nil {
			return result.Error
		}
		*step.counter += result.RowsAffected
	}

	if student.UserID != nil {
		if err := tx.Model(&models.Student{}).Where("id = ?", student.ID).Update("user_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", *student.UserID).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		summary.Users += result.RowsAffected
	}

	result := tx.Where("id = ?", student.ID).Delete(&models.Student{})
	if result.Error != nil {
		return result.Error
	}
	summary.Students += result.RowsAffected
	return nil
}

func ensureUniqueRegNos(tx *gorm.DB, regNos []string) error {
	if len(regNos) == 0 {
		return nil
	}
	var shared []string
	err := tx.Model(&models.Student{}).
		Select("reg_no").
		Where("reg_no IN ?", regNos).
		Group("reg_no").
		Having("COUNT(*) > 1").
		Pluck("reg_no", &shared).Error
	if err != nil {
		return err
	}
	if len(shared) > 0 {
		return ErrSharedRegNo
	}
	return nil
}
