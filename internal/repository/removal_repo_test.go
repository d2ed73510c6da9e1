package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/database"
	"github.com/noah-isme/scientia-api/internal/models"
)

type removalFixture struct {
	db      *gorm.DB
	class   models.Class
	subject models.Subject
	exam    models.Exam
	user    models.User
	student models.Student
}

func buildRemovalFixture(t *testing.T) (removalFixture, RemovalRepository, func(model interface{}, query string, args ...interface{}) int64) {
	t.Helper()
	db := setupRecordsDB(t)
	ctx := context.Background()

	fx := removalFixture{db: db}
	fx.class = createClass(t, db, "Class 2", "A")
	fx.user = models.User{Username: "r9", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&fx.user).Error)
	fx.student = models.Student{RegNo: "R9", Name: "Alicia", ClassID: &fx.class.ID, UserID: &fx.user.ID}
	require.NoError(t, db.Create(&fx.student).Error)
	createStudent(t, db, "R10", "Ben", fx.class.ID)

	_, err := NewAttendanceRepository(db).ReplaceDay(ctx, models.AttendanceKey{ClassID: fx.class.ID, Date: "2025-03-01"}, []string{"R9"})
	require.NoError(t, err)
	marks, err := NewMarkRepository(db).ReplaceBatch(ctx, MarkBatch{
		ClassID: fx.class.ID, SubjectName: "History", ExamName: "Unit 1", TotalMarks: 25, PassMark: 10,
		Scores: []MarkScore{{RegNo: "R9", Score: 20}, {RegNo: "R10", Score: 12}},
	})
	require.NoError(t, err)
	require.NoError(t, db.Where("id = ?", marks.SubjectID).First(&fx.subject).Error)
	require.NoError(t, db.Where("id = ?", marks.ExamID).First(&fx.exam).Error)

	_, err = NewAttendanceRepository(db).ReplaceDay(ctx, models.AttendanceKey{ClassID: fx.class.ID, SubjectID: &fx.subject.ID, Date: "2025-03-01"}, nil)
	require.NoError(t, err)
	require.NoError(t, NewFeeRepository(db).Create(ctx, &models.Fee{
		StudentName: "Alicia", RegNo: "R9", Month: "March", PaymentDate: "2025-03-02", PaymentMode: "cash", ClassID: fx.class.ID,
	}))
	require.NoError(t, NewTimetableRepository(db).Save(ctx, &models.Timetable{
		ClassID: fx.class.ID, Day: "Monday", SubjectName: "History", FacultyName: "Mr. Obi",
	}))

	count := func(model interface{}, query string, args ...interface{}) int64 {
		return countWhere(t, db, model, query, args...)
	}
	return fx, NewRemovalRepository(db), count
}

func TestDeleteClassCascadesEverything(t *testing.T) {
	fx, repo, count := buildRemovalFixture(t)

	summary, err := repo.DeleteClass(context.Background(), fx.class.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.Students)
	require.Equal(t, int64(1), summary.Users)
	require.Equal(t, int64(1), summary.Classes)

	for _, model := range []interface{}{&models.Attendance{}, &models.Mark{}, &models.Fee{}} {
		require.Zero(t, count(model, "reg_no = ?", "R9"))
	}
	require.Zero(t, count(&models.Subject{}, "class_id = ?", fx.class.ID))
	require.Zero(t, count(&models.Timetable{}, "class_id = ?", fx.class.ID))
	require.Zero(t, count(&models.Student{}, "class_id = ?", fx.class.ID))
	require.Zero(t, count(&models.User{}, "id = ?", fx.user.ID))
	require.Zero(t, count(&models.Class{}, "id = ?", fx.class.ID))
	require.Equal(t, int64(1), count(&models.Exam{}, "id = ?", fx.exam.ID), "exams are shared across classes")
}

func TestDeleteStudentRemovesLinkedUser(t *testing.T) {
	fx, repo, count := buildRemovalFixture(t)

	summary, err := repo.DeleteStudent(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.Students)
	require.Equal(t, int64(1), summary.Users)
	require.Equal(t, int64(1), summary.Fees)

	require.Zero(t, count(&models.Attendance{}, "reg_no = ?", "R9"))
	require.Zero(t, count(&models.Mark{}, "reg_no = ?", "R9"))
	require.Equal(t, int64(1), count(&models.Mark{}, "reg_no = ?", "R10"))
	require.Zero(t, count(&models.User{}, "id = ?", fx.user.ID))

	_, err = repo.DeleteStudent(context.Background(), fx.student.ID)
	require.ErrorIs(t, err, errRecordNotFound)
}

func TestDeleteRollsBackWhenStudentRowCannotBeRemoved(t *testing.T) {
	fx, repo, count := buildRemovalFixture(t)
	require.NoError(t, fx.db.Exec(`CREATE TRIGGER lock_students BEFORE DELETE ON students
		BEGIN SELECT RAISE(ABORT, 'students are locked'); END`).Error)

	assertIntact := func() {
		t.Helper()
		require.Equal(t, int64(2), count(&models.Attendance{}, "reg_no = ?", "R9"))
		require.Equal(t, int64(1), count(&models.Mark{}, "reg_no = ?", "R9"))
		require.Equal(t, int64(1), count(&models.Fee{}, "reg_no = ?", "R9"))
		require.Equal(t, int64(1), count(&models.User{}, "id = ?", fx.user.ID))
		require.Equal(t, int64(1), count(&models.Student{}, "id = ? AND user_id = ?", fx.student.ID, fx.user.ID))
		require.Equal(t, int64(1), count(&models.Subject{}, "id = ?", fx.subject.ID))
		require.Equal(t, int64(1), count(&models.Timetable{}, "class_id = ?", fx.class.ID))
		require.Equal(t, int64(1), count(&models.Class{}, "id = ?", fx.class.ID))
	}

	_, err := repo.DeleteStudent(context.Background(), fx.student.ID)
	require.ErrorContains(t, err, "students are locked")
	assertIntact()

	_, err = repo.DeleteClass(context.Background(), fx.class.ID)
	require.ErrorContains(t, err, "students are locked")
	assertIntact()
}

func TestDeleteSubjectAndExam(t *testing.T) {
	fx, repo, count := buildRemovalFixture(t)
	ctx := context.Background()

	summary, err := repo.DeleteSubject(ctx, fx.subject.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.Marks)
	require.Equal(t, int64(2), summary.Attendance)
	require.Zero(t, count(&models.Subject{}, "id = ?", fx.subject.ID))
	require.Equal(t, int64(2), count(&models.Attendance{}, "subject_id IS NULL"), "general attendance survives")

	summary, err = repo.DeleteExam(ctx, fx.exam.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.Exams)
	require.Zero(t, summary.Marks)

	_, err = repo.DeleteExam(ctx, fx.exam.ID)
	require.ErrorIs(t, err, errRecordNotFound)
}

func TestDeleteRefusesSharedRegNo(t *testing.T) {
	db, dialect, err := database.Open(filepath.Join(t.TempDir(), "legacy.db"), database.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// legacy deployments created students without the reg_no constraint
	require.NoError(t, db.Exec(`CREATE TABLE students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reg_no TEXT NOT NULL,
		name TEXT NOT NULL,
		class_id INTEGER,
		user_id INTEGER
	)`).Error)
	require.NoError(t, database.EnsureSchema(context.Background(), db, dialect, zerolog.Nop()))

	class := createClass(t, db, "Class 3", "A")
	first := createStudent(t, db, "DUP", "One", class.ID)
	createStudent(t, db, "DUP", "Two", class.ID)

	repo := NewRemovalRepository(db)
	_, err = repo.DeleteStudent(context.Background(), first.ID)
	require.ErrorIs(t, err, ErrSharedRegNo)
	_, err = repo.DeleteClass(context.Background(), class.ID)
	require.ErrorIs(t, err, ErrSharedRegNo)

	require.Equal(t, int64(2), countWhere(t, db, &models.Student{}, "reg_no = ?", "DUP"))
	require.Equal(t, int64(1), countWhere(t, db, &models.Class{}, "id = ?", class.ID))
}
