package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/database"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
)

var (
	adminActor   = Actor{UserID: 1, Username: "admin1", Role: models.RoleAdmin}
	teacherActor = Actor{UserID: 2, Username: "teacher1", Role: models.RoleTeacher}
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordsStore struct {
	db         *gorm.DB
	identity   repository.IdentityRepository
	students   repository.StudentRepository
	profiles   repository.ProfileRepository
	users      repository.UserRepository
	attendance repository.AttendanceRepository
	marks      repository.MarkRepository
	fees       repository.FeeRepository
	timetables repository.TimetableRepository
	validate   *validator.Validate
}

func newRecordsStore(t *testing.T) recordsStore {
	t.Helper()

	db, dialect, err := database.Open(filepath.Join(t.TempDir(), "service.db"), database.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db, dialect, zerolog.Nop()))

	return recordsStore{
		db:         db,
		identity:   repository.NewIdentityRepository(db),
		students:   repository.NewStudentRepository(db),
		profiles:   repository.NewProfileRepository(db),
		users:      repository.NewUserRepository(db),
		attendance: repository.NewAttendanceRepository(db),
		marks:      repository.NewMarkRepository(db),
		fees:       repository.NewFeeRepository(db),
		timetables: repository.NewTimetableRepository(db),
		validate:   validator.New(),
	}
}

func (s recordsStore) class(t *testing.T, name, section string) models.Class {
	t.Helper()
	class := models.Class{ClassName: name, Section: section}
	require.NoError(t, s.db.Create(&class).Error)
	return class
}

func (s recordsStore) student(t *testing.T, regNo, name string, classID uint, userID *uint) models.Student {
	t.Helper()
	student := models.Student{RegNo: regNo, Name: name, ClassID: &classID, UserID: userID}
	require.NoError(t, s.db.Create(&student).Error)
	return student
}

func (s recordsStore) user(t *testing.T, username string, role models.Role) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, s.db.Create(&user).Error)
	return user
}

func strPtr(value string) *string { return &value }
