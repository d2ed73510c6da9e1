package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scientia-api/internal/models"
)

// TimetableRepository persists weekly timetable entries.
type TimetableRepository interface {
	Save(ctx context.Context, entry *models.Timetable) error
	List(ctx context.Context, classID uint, day string) ([]models.Timetable, error)
	Delete(ctx context.Context, id uint) error
}

type timetableRepository struct {
	db *gorm.DB
}

// NewTimetableRepository constructs the repository implementation.
func NewTimetableRepository(db *gorm.DB) TimetableRepository {
	return &timetableRepository{db: db}
}

// Save inserts the entry or replaces the faculty of the existing (class, day, subject) slot.
func (r *timetableRepository) Save(ctx context.Context, entry *models.Timetable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "day"}, {Name: "subject_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"faculty_name"}),
		}).Create(entry).Error
		if err != nil {
			return err
		}
		var saved models.Timetable
		err = tx.Where("class_id = ? AND day = ? AND subject_name = ?", entry.ClassID, entry.Day, entry.SubjectName).
			First(&saved).Error
		if err != nil {
			return err
		}
		*entry = saved
		return nil
	})
}

func (r *timetableRepository) List(ctx context.Context, classID uint, day string) ([]models.Timetable, error) {
	query := r.db.WithContext(ctx).Where("class_id = ?", classID)
	if day != "" {
		query = query.Where("day = ?", day)
	}
	var entries []models.Timetable
	err := query.Order("day, subject_name").Find(&entries).Error
	return entries, err
}

func (r *timetableRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Timetable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
