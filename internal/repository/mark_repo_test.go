package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scientia-api/internal/models"
)

func TestMarkReplaceBatchKeepsLatestTotals(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewMarkRepository(db)
	ctx := context.Background()

	class := createClass(t, db, "Class 1", "A")
	createStudent(t, db, "R1", "Asha", class.ID)
	createStudent(t, db, "R2", "Bilal", class.ID)

	batch := MarkBatch{
		ClassID:     class.ID,
		SubjectName: "Math",
		ExamName:    "Midterm",
		TotalMarks:  50,
		PassMark:    20,
		Scores:      []MarkScore{{RegNo: "R1", Score: 40}, {RegNo: "R2", Score: 18}, {RegNo: "OUT", Score: 10}},
	}
	result, err := repo.ReplaceBatch(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Zero(t, result.Replaced)
	require.Equal(t, []string{"OUT"}, result.NotEnrolled)

	batch.SubjectName = "math"
	batch.TotalMarks = 100
	batch.PassMark = 35
	batch.Scores = []MarkScore{{RegNo: "R1", Score: 81}, {RegNo: "R2", Score: 30}}
	result, err = repo.ReplaceBatch(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, result.Replaced)

	for _, regNo := range []string{"R1", "R2"} {
		require.Equal(t, int64(1), countWhere(t, db, &models.Mark{}, "reg_no = ?", regNo))
	}

	results, err := repo.ClassResults(ctx, result.ExamID, class.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "R1", results[0].RegNo)
	require.Equal(t, float64(100), results[0].TotalMarks)
	require.Equal(t, float64(81), results[0].MarksScored)
	require.True(t, results[0].Passed())
	require.False(t, results[1].Passed())

	own, err := repo.StudentResults(ctx, result.ExamID, "R2")
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "Math", own[0].SubjectName)
}

func TestMarkReplaceBatchWithoutEnrolledScoresCreatesNothing(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewMarkRepository(db)

	class := createClass(t, db, "Class 5", "B")
	createStudent(t, db, "R1", "Asha", class.ID)

	result, err := repo.ReplaceBatch(context.Background(), MarkBatch{
		ClassID:     class.ID,
		SubjectName: "Geography",
		ExamName:    "Finals",
		TotalMarks:  100,
		PassMark:    35,
		Scores:      []MarkScore{{RegNo: "X1", Score: 50}, {RegNo: " X2 ", Score: 60}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"X1", "X2"}, result.NotEnrolled)
	require.Zero(t, result.Inserted)
	require.Zero(t, result.SubjectID)
	require.Zero(t, result.ExamID)

	require.Zero(t, countWhere(t, db, &models.Subject{}, "class_id = ?", class.ID))
	require.Zero(t, countWhere(t, db, &models.Exam{}, "1 = 1"))
	require.Zero(t, countWhere(t, db, &models.Mark{}, "class_id = ?", class.ID))
}

func TestMarkUpdateAndDelete(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewMarkRepository(db)
	ctx := context.Background()

	class := createClass(t, db, "Class 2", "A")
	createStudent(t, db, "R1", "Asha", class.ID)
	createStudent(t, db, "R2", "Bilal", class.ID)

	result, err := repo.ReplaceBatch(ctx, MarkBatch{
		ClassID: class.ID, SubjectName: "Science", ExamName: "Final", TotalMarks: 100, PassMark: 40,
		Scores: []MarkScore{{RegNo: "R1", Score: 55}, {RegNo: "R2", Score: 65}},
	})
	require.NoError(t, err)

	var mark models.Mark
	require.NoError(t, db.Where("reg_no = ?", "R1").First(&mark).Error)
	require.NoError(t, repo.UpdateScore(ctx, mark.ID, 60))
	updated, err := repo.GetByID(ctx, mark.ID)
	require.NoError(t, err)
	require.Equal(t, float64(60), updated.MarksScored)
	require.ErrorIs(t, repo.UpdateScore(ctx, 9999, 1), errRecordNotFound)

	removed, err := repo.Delete(ctx, MarkFilter{ClassID: class.ID, ExamID: result.ExamID, SubjectName: "SCIENCE", RegNo: "R1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	removed, err = repo.Delete(ctx, MarkFilter{ClassID: class.ID, ExamID: result.ExamID, SubjectName: "Science"})
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	require.Equal(t, int64(0), countWhere(t, db, &models.Mark{}, "class_id = ?", class.ID))
}
