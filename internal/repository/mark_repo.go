package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// MarkScore is one student's score within a batch.
type MarkScore struct {
	RegNo string
	Score float64
}

// MarkBatch is a mark submission. TotalMarks and PassMark apply to every score.
type MarkBatch struct {
	ClassID     uint
	SubjectName string
	ExamName    string
	TotalMarks  float64
	PassMark    float64
	Scores      []MarkScore
}

// MarkBatchResult reports how each score was applied.
type MarkBatchResult struct {
	SubjectID uint
	ExamID    uint
	Inserted  int
	Replaced  int
	// NotEnrolled lists reg_nos that are not students of the class; they were not written.
	NotEnrolled []string
}

// MarkFilter scopes a mark deletion. An empty RegNo removes the whole subject for the exam.
type MarkFilter struct {
	ClassID     uint
	ExamID      uint
	SubjectName string
	RegNo       string
}

// MarkRepository stores exam marks and rebuilds result sheets.
type MarkRepository interface {
	ReplaceBatch(ctx context.Context, batch MarkBatch) (MarkBatchResult, error)
	GetByID(ctx context.Context, id uint) (models.Mark, error)
	UpdateScore(ctx context.Context, id uint, score float64) error
	Delete(ctx context.Context, filter MarkFilter) (int64, error)
	ClassResults(ctx context.Context, examID, classID uint) ([]models.MarkResult, error)
	StudentResults(ctx context.Context, examID uint, regNo string) ([]models.MarkResult, error)
}

type markRepository struct {
	db *gorm.DB
}

// NewMarkRepository constructs the repository implementation.
func NewMarkRepository(db *gorm.DB) MarkRepository {
	return &markRepository{db: db}
}

// ReplaceBatch filters the scores to students enrolled in the class, resolves the subject
// and exam, then for each student deletes the old mark and inserts the new one. The whole
// batch commits or rolls back together. When no score is enrolled nothing is written and
// SubjectID and ExamID stay zero.
func (r *markRepository) ReplaceBatch(ctx context.Context, batch MarkBatch) (MarkBatchResult, error) {
	var result MarkBatchResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roster []string
		if err := tx.Model(&models.Student{}).Where("class_id = ?", batch.ClassID).Pluck("reg_no", &roster).Error; err != nil {
			return err
		}
		enrolled := make(map[string]bool, len(roster))
		for _, regNo := range roster {
			enrolled[regNo] = true
		}

		writable := make([]MarkScore, 0, len(batch.Scores))
		for _, score := range batch.Scores {
			regNo := strings.TrimSpace(score.RegNo)
			if !enrolled[regNo] {
				result.NotEnrolled = append(result.NotEnrolled, regNo)
				continue
			}
			writable = append(writable, MarkScore{RegNo: regNo, Score: score.Score})
		}
		if len(writable) == 0 {
			return nil
		}

		subjectID, err := resolveSubject(tx, batch.ClassID, batch.SubjectName)
		if err != nil {
			return err
		}
		examID, err := resolveExam(tx, batch.ExamName)
		if err != nil {
			return err
		}
		result.SubjectID = subjectID
		result.ExamID = examID

		for _, score := range writable {
			deleted := tx.Where("class_id = ? AND subject_id = ? AND exam_id = ? AND reg_no = ?", batch.ClassID, subjectID, examID, score.RegNo).
				Delete(&models.Mark{})
			if deleted.Error != nil {
				return deleted.Error
			}

			mark := models.Mark{
				ClassID:     batch.ClassID,
				SubjectID:   subjectID,
				ExamID:      examID,
				RegNo:       score.RegNo,
				MarksScored: score.Score,
				TotalMarks:  batch.TotalMarks,
				PassMark:    batch.PassMark,
			}
			if err := tx.Create(&mark).Error; err != nil {
				return err
			}

			if deleted.RowsAffected > 0 {
				result.Replaced++
			} else {
				result.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return MarkBatchResult{}, err
	}
	return result, nil
}

func (r *markRepository) GetByID(ctx context.Context, id uint) (models.Mark, error) {
	var mark models.Mark
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&mark).Error
	return mark, err
}

func (r *markRepository) UpdateScore(ctx context.Context, id uint, score float64) error {
	result := r.db.WithContext(ctx).Model(&models.Mark{}).Where("id = ?", id).Update("marks_scored", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *markRepository) Delete(ctx context.Context, filter MarkFilter) (int64, error) {
	query := r.db.WithContext(ctx).
		Where("class_id = ? AND exam_id = ?", filter.ClassID, filter.ExamID).
		Where("subject_id IN (?)", r.db.Model(&models.Subject{}).Select("id").
			Where("class_id = ? AND LOWER(subject_name) = LOWER(?)", filter.ClassID, strings.TrimSpace(filter.SubjectName)))
	if regNo := strings.TrimSpace(filter.RegNo); regNo != "" {
		query = query.Where("reg_no = ?", regNo)
	}
	result := query.Delete(&models.Mark{})
	return result.RowsAffected, result.Error
}

func (r *markRepository) ClassResults(ctx context.Context, examID, classID uint) ([]models.MarkResult, error) {
	var results []models.MarkResult
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id, std.name AS student_name, std.reg_no, s.subject_name,
			m.marks_scored, m.total_marks, m.pass_mark
		FROM marks m
		JOIN subjects s ON m.subject_id = s.id
		JOIN students std ON m.reg_no = std.reg_no
		WHERE m.exam_id = ? AND m.class_id = ?
		ORDER BY std.reg_no, s.subject_name`, examID, classID).Scan(&results).Error
	return results, err
}

func (r *markRepository) StudentResults(ctx context.Context, examID uint, regNo string) ([]models.MarkResult, error) {
	var results []models.MarkResult
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id, std.name AS student_name, std.reg_no, s.subject_name,
			m.marks_scored, m.total_marks, m.pass_mark
		FROM marks m
		JOIN subjects s ON m.subject_id = s.id
		JOIN students std ON m.reg_no = std.reg_no
		WHERE m.exam_id = ? AND m.reg_no = ?
		ORDER BY s.subject_name`, examID, strings.TrimSpace(regNo)).Scan(&results).Error
	return results, err
}
