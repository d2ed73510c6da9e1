package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

func openTestDB(t *testing.T) (*gorm.DB, Dialect) {
	t.Helper()
	db, dialect, err := Open(filepath.Join(t.TempDir(), "schema.db"), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, dialect
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func TestEnsureSchemaAndSeedAreIdempotent(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, EnsureSchema(ctx, db, dialect, zerolog.Nop()))
		require.NoError(t, Seed(ctx, db, zerolog.Nop()))
	}

	require.Equal(t, int64(2), countRows(t, db, &models.User{}))
	require.Equal(t, int64(24), countRows(t, db, &models.Class{}))
	require.Equal(t, int64(24), countRows(t, db, &models.Student{}), "two students per section A class")

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin1").First(&admin).Error)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	var student models.Student
	require.NoError(t, db.Where("reg_no LIKE ?", "REG-%-2").Order("id").First(&student).Error)
	require.NotNil(t, student.ClassID)
}

func TestEnsureSchemaAddsColumnsToLegacyTables(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`CREATE TABLE students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reg_no TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		class_id INTEGER,
		user_id INTEGER UNIQUE
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO students (reg_no, name) VALUES (?, ?)`, "OLD-1", "Legacy Learner").Error)

	exists, err := HasColumn(db, dialect, "students", "blood_group")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, EnsureSchema(ctx, db, dialect, zerolog.Nop()))
	require.NoError(t, EnsureSchema(ctx, db, dialect, zerolog.Nop()))

	for _, column := range []string{"mother_name", "mother_phone", "father_name", "father_phone", "address", "dob", "blood_group"} {
		exists, err := HasColumn(db, dialect, "students", column)
		require.NoError(t, err)
		require.True(t, exists, column)
	}

	var legacy models.Student
	require.NoError(t, db.Where("reg_no = ?", "OLD-1").First(&legacy).Error)
	require.Equal(t, "Legacy Learner", legacy.Name)
	require.Nil(t, legacy.BloodGroup)
}

func TestEnsureSchemaSkipsConflictingUniqueIndex(t *testing.T) {
	db, dialect := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`CREATE TABLE exams (id INTEGER PRIMARY KEY AUTOINCREMENT, exam_name TEXT NOT NULL, UNIQUE (exam_name))`).Error)
	require.NoError(t, db.Exec(`INSERT INTO exams (exam_name) VALUES (?), (?)`, "Midterm", "MIDTERM").Error)

	require.NoError(t, EnsureSchema(ctx, db, dialect, zerolog.Nop()))
	require.Equal(t, int64(2), countRows(t, db, &models.Exam{}))

	// tables created after the failed index must still exist
	require.True(t, db.Migrator().HasTable("fees"))
}
