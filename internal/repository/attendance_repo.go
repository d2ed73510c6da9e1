package repository

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// ReplaceSummary describes the rows written by an attendance replace-set.
type ReplaceSummary struct {
	Total   int
	Present int
	// Unknown lists present-list entries that are not enrolled in the class.
	Unknown []string
}

// AttendanceRepository stores attendance as per-day replace-sets and rebuilds history.
type AttendanceRepository interface {
	ReplaceDay(ctx context.Context, key models.AttendanceKey, present []string) (ReplaceSummary, error)
	DeleteDay(ctx context.Context, key models.AttendanceKey) (int64, error)
	UpdateStatus(ctx context.Context, id uint, present bool) error
	History(ctx context.Context, classID uint, subjectID *uint) ([]models.AttendanceDay, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the repository implementation.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ReplaceDay deletes every row for the key and writes one row per student currently in
// the class, so the stored set always matches the roster at submission time.
func (r *attendanceRepository) ReplaceDay(ctx context.Context, key models.AttendanceKey, present []string) (ReplaceSummary, error) {
	marked := make(map[string]bool, len(present))
	for _, regNo := range present {
		if trimmed := strings.TrimSpace(regNo); trimmed != "" {
			marked[trimmed] = true
		}
	}

	var summary ReplaceSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scopeAttendanceKey(tx, key).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}

		var roster []string
		if err := tx.Model(&models.Student{}).Where("class_id = ?", key.ClassID).Order("reg_no").Pluck("reg_no", &roster).Error; err != nil {
			return err
		}

		rows := make([]models.Attendance, 0, len(roster))
		enrolled := make(map[string]bool, len(roster))
		for _, regNo := range roster {
			enrolled[regNo] = true
			rows = append(rows, models.Attendance{
				ClassID:   key.ClassID,
				SubjectID: key.SubjectID,
				AttDate:   key.Date,
				RegNo:     regNo,
				Present:   marked[regNo],
			})
			if marked[regNo] {
				summary.Present++
			}
		}
		summary.Total = len(rows)

		for regNo := range marked {
			if !enrolled[regNo] {
				summary.Unknown = append(summary.Unknown, regNo)
			}
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, 200).Error
	})
	if err != nil {
		return ReplaceSummary{}, err
	}
	slices.Sort(summary.Unknown)
	return summary, nil
}

func (r *attendanceRepository) DeleteDay(ctx context.Context, key models.AttendanceKey) (int64, error) {
	result := scopeAttendanceKey(r.db.WithContext(ctx), key).Delete(&models.Attendance{})
	return result.RowsAffected, result.Error
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, id uint, present bool) error {
	result := r.db.WithContext(ctx).Model(&models.Attendance{}).Where("id = ?", id).Update("present", present)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// History returns one entry per recorded date, newest first, each listing every student
// currently enrolled. Students without a row for that date carry a nil Present.
func (r *attendanceRepository) History(ctx context.Context, classID uint, subjectID *uint) ([]models.AttendanceDay, error) {
	db := r.db.WithContext(ctx)

	var dates []string
	dateQuery := db.Model(&models.Attendance{}).Distinct("att_date").Where("class_id = ?", classID)
	if subjectID != nil {
		dateQuery = dateQuery.Where("subject_id = ?", *subjectID)
	} else {
		dateQuery = dateQuery.Where("subject_id IS NULL")
	}
	if err := dateQuery.Order("att_date DESC").Pluck("att_date", &dates).Error; err != nil {
		return nil, err
	}

	days := make([]models.AttendanceDay, 0, len(dates))
	for _, date := range dates {
		subjectClause := "a.subject_id IS NULL"
		args := []interface{}{date, classID}
		if subjectID != nil {
			subjectClause = "a.subject_id = ?"
			args = append(args, *subjectID)
		}
		args = append(args, classID)

		var roster []models.RosterMark
		err := db.Raw(`
			SELECT s.reg_no, s.name, a.present, a.id AS attendance_id
			FROM students s
			LEFT JOIN attendance a
				ON a.reg_no = s.reg_no AND a.att_date = ? AND a.class_id = ? AND `+subjectClause+`
			WHERE s.class_id = ?
			ORDER BY s.reg_no`, args...).Scan(&roster).Error
		if err != nil {
			return nil, err
		}
		if roster == nil {
			roster = []models.RosterMark{}
		}
		days = append(days, models.AttendanceDay{Date: date, Students: roster})
	}

	return days, nil
}

func scopeAttendanceKey(db *gorm.DB, key models.AttendanceKey) *gorm.DB {
	db = db.Where("class_id = ? AND att_date = ?", key.ClassID, key.Date)
	if key.SubjectID != nil {
		return db.Where("subject_id = ?", *key.SubjectID)
	}
	return db.Where("subject_id IS NULL")
}
