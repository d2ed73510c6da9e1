package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/scientia-api/internal/models"
)

func TestResolveClassConcurrentCallsShareOneRow(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewIdentityRepository(db)

	const workers = 8
	ids := make([]uint, workers)
	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < workers; i++ {
		i := i
		group.Go(func() error {
			id, err := repo.ResolveClass(ctx, "Class 5", "A")
			ids[i] = id
			return err
		})
	}
	require.NoError(t, group.Wait())

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	require.NotZero(t, ids[0])
	require.Equal(t, int64(1), countWhere(t, db, &models.Class{}, "class_name = ? AND section = ?", "Class 5", "A"))
}

func TestResolveSubjectAndExamIgnoreCase(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()
	tx := db.WithContext(ctx)

	class := createClass(t, db, "Class 6", "A")

	first, err := resolveSubject(tx, class.ID, "Math")
	require.NoError(t, err)
	second, err := resolveSubject(tx, class.ID, " math ")
	require.NoError(t, err)
	require.Equal(t, first, second)

	other := createClass(t, db, "Class 6", "B")
	third, err := resolveSubject(tx, other.ID, "Math")
	require.NoError(t, err)
	require.NotEqual(t, first, third, "subjects are scoped per class")

	midterm, err := resolveExam(tx, "Midterm")
	require.NoError(t, err)
	again, err := resolveExam(tx, "MIDTERM")
	require.NoError(t, err)
	require.Equal(t, midterm, again)

	exams, err := repo.ListExams(ctx)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	require.Equal(t, "Midterm", exams[0].ExamName)
}

func TestAddSubjectsCountsDuplicates(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	class := createClass(t, db, "Class 9", "A")
	added, duplicates, err := repo.AddSubjects(ctx, class.ID, []string{"Physics", "Chemistry", " ", "physics"})
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, 1, duplicates)

	subjects, err := repo.ListSubjects(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.Equal(t, "Chemistry", subjects[0].SubjectName)
}
