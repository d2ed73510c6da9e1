package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scientia-api/internal/models"
)

func strPtr(value string) *string { return &value }

func TestStudentUpsertKeepsOneRowPerRegNo(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	two := createClass(t, db, "Class 2", "A")
	three := createClass(t, db, "Class 3", "A")

	outcome, err := repo.Upsert(ctx, StudentRecord{RegNo: "R9", Name: "Alice", ClassID: &two.ID})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	outcome, err = repo.Upsert(ctx, StudentRecord{RegNo: "R9", Name: "Alicia", ClassID: &three.ID})
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, outcome)

	require.Equal(t, int64(1), countWhere(t, db, &models.Student{}, "reg_no = ?", "R9"))
	student, err := repo.GetByRegNo(ctx, "R9")
	require.NoError(t, err)
	require.Equal(t, "Alicia", student.Name)
	require.NotNil(t, student.ClassID)
	require.Equal(t, three.ID, *student.ClassID)
}

func TestStudentUpsertDetailsAreReplacedOnlyWhenSupplied(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	class := createClass(t, db, "Class 4", "B")
	_, err := repo.Upsert(ctx, StudentRecord{
		RegNo:   "R5",
		Name:    "Dana",
		ClassID: &class.ID,
		Details: &StudentDetails{MotherName: strPtr("Maya"), BloodGroup: strPtr("O+")},
	})
	require.NoError(t, err)

	// a sheet import carries no guardian fields
	_, err = repo.Upsert(ctx, StudentRecord{RegNo: "R5", Name: "Dana K", ClassID: &class.ID})
	require.NoError(t, err)
	student, err := repo.GetByRegNo(ctx, "R5")
	require.NoError(t, err)
	require.Equal(t, "Dana K", student.Name)
	require.Equal(t, "Maya", *student.MotherName)

	_, err = repo.Upsert(ctx, StudentRecord{
		RegNo:   "R5",
		Name:    "Dana K",
		ClassID: &class.ID,
		Details: &StudentDetails{FatherName: strPtr("Omar")},
	})
	require.NoError(t, err)
	student, err = repo.GetByRegNo(ctx, "R5")
	require.NoError(t, err)
	require.Nil(t, student.MotherName)
	require.Nil(t, student.BloodGroup)
	require.Equal(t, "Omar", *student.FatherName)
}

func TestStudentUpsertRequiresExistingClass(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewStudentRepository(db)

	missing := uint(404)
	_, err := repo.Upsert(context.Background(), StudentRecord{RegNo: "R404", Name: "Ghost", ClassID: &missing})
	require.ErrorIs(t, err, errRecordNotFound)
	require.Zero(t, countWhere(t, db, &models.Student{}, "reg_no = ?", "R404"))
}

func TestStudentImportRowCreatesClassOnDemand(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	key := ClassKey{Name: "Class 7", Section: "C"}
	outcome, err := repo.ImportRow(ctx, key, StudentRecord{RegNo: "R70", Name: "Esi"})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)
	_, err = repo.ImportRow(ctx, key, StudentRecord{RegNo: "R71", Name: "Femi"})
	require.NoError(t, err)

	require.Equal(t, int64(1), countWhere(t, db, &models.Class{}, "class_name = ? AND section = ?", "Class 7", "C"))

	var class models.Class
	require.NoError(t, db.Where("class_name = ?", "Class 7").First(&class).Error)
	students, err := repo.ListByClass(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "Esi", students[0].Name)
}

func TestStudentProfileByUserIDJoinsClass(t *testing.T) {
	db := setupRecordsDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	user := models.User{Username: "esi", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	class := createClass(t, db, "Class 8", "A")
	_, err := repo.Upsert(ctx, StudentRecord{RegNo: "R80", Name: "Esi", ClassID: &class.ID, UserID: &user.ID})
	require.NoError(t, err)

	profile, err := repo.ProfileByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "R80", profile.RegNo)
	require.Equal(t, "Class 8", *profile.ClassName)
	require.Equal(t, "A", *profile.Section)

	_, err = repo.ProfileByUserID(ctx, user.ID+100)
	require.ErrorIs(t, err, errRecordNotFound)
}
