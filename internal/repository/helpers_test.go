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

func setupRecordsDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, dialect, err := database.Open(filepath.Join(t.TempDir(), "records.db"), database.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.EnsureSchema(context.Background(), db, dialect, zerolog.Nop()))
	return db
}

func createClass(t *testing.T, db *gorm.DB, name, section string) models.Class {
	t.Helper()
	class := models.Class{ClassName: name, Section: section}
	require.NoError(t, db.Create(&class).Error)
	return class
}

func createStudent(t *testing.T, db *gorm.DB, regNo, name string, classID uint) models.Student {
	t.Helper()
	student := models.Student{RegNo: regNo, Name: name, ClassID: &classID}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func countWhere(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

var errRecordNotFound = gorm.ErrRecordNotFound
