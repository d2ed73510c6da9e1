package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
)

func newTestRosterService(t *testing.T, store recordsStore, maxErrors int) RosterService {
	t.Helper()
	svc, err := NewRosterService(store.students, store.profiles, store.users, store.validate, maxErrors, testLogger())
	require.NoError(t, err)
	return svc
}

func TestImportCSVSkipsHeaderAndCollectsRowErrors(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	data := strings.Join([]string{
		"class,section,name,reg_no",
		"10,a,Asha,R1",
		"10,A,Bilal,R2",
		"10,A,,R3",
		"9,B,Chen",
		"10,A,Asha Rao,R1",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), adminActor, []byte(data))
	require.NoError(t, err)
	require.Equal(t, 2, result.Added)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 2, result.Skipped)
	require.Equal(t, 2, result.ErrorCount)
	require.Len(t, result.Errors, 2)
	require.True(t, strings.HasPrefix(result.Errors[0], "row 4:"), result.Errors[0])
	require.True(t, strings.HasPrefix(result.Errors[1], "row 5:"), result.Errors[1])

	var class models.Class
	require.NoError(t, store.db.Where("class_name = ? AND section = ?", "Class 10", "A").First(&class).Error)
	roster, err := store.students.ListByClass(context.Background(), class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	asha, err := store.students.GetByRegNo(context.Background(), "R1")
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", asha.Name, "later rows win")
}

func TestImportCSVCapsErrorMessages(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	lines := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		lines = append(lines, fmt.Sprintf("10,A,,R%d", i))
	}
	result, err := svc.ImportCSV(context.Background(), adminActor, []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Equal(t, 7, result.ErrorCount)
	require.Len(t, result.Errors, DefaultMaxImportErrors)
	require.Zero(t, result.Added)
}

func TestImportCSVRejectsNonTextAndNonAdmins(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 3)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	_, err := svc.ImportCSV(context.Background(), adminActor, png)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.ImportCSV(context.Background(), adminActor, []byte("  \n"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.ImportCSV(context.Background(), teacherActor, []byte("10,A,Asha,R1"))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestImportSheetSanitisesNames(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	result, err := svc.ImportSheet(context.Background(), adminActor, dto.SheetImportRequest{
		ClassNumber: "4",
		Section:     "b",
		Rows: []json.RawMessage{
			json.RawMessage(`{"regNo": "S1", "studentName": "<b>Dana</b>"}`),
			json.RawMessage(`{"regNo": "", "studentName": "Nobody"}`),
			json.RawMessage(`{"regNo": "S2", "studentName": "O'Neil"}`),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Added)
	require.Equal(t, 1, result.Skipped)

	dana, err := store.students.GetByRegNo(context.Background(), "S1")
	require.NoError(t, err)
	require.Equal(t, "Dana", dana.Name)
	oneil, err := store.students.GetByRegNo(context.Background(), "S2")
	require.NoError(t, err)
	require.Equal(t, "O'Neil", oneil.Name)

	class, err := store.identity.GetClass(context.Background(), *dana.ClassID)
	require.NoError(t, err)
	require.Equal(t, "Class 4", class.ClassName)
	require.Equal(t, "B", class.Section)
}

func TestImportProfilesValidatesEachEntry(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	profiles := []json.RawMessage{
		json.RawMessage(`{"register_number": "P1", "name": "Esi", "class": "7", "mother_name": "Ama", "blood_group": "B+"}`),
		json.RawMessage(`{"register_number": "P2", "class": "7"}`),
		json.RawMessage(`{"register_number": 42, "name": "Kojo", "class": 7}`),
		json.RawMessage(`{"register_number": "P3", "name": "Yaw", "class": "7", "section": "c"}`),
	}
	result, err := svc.ImportProfiles(context.Background(), adminActor, dto.ProfileImportRequest{Type: "student", Profiles: profiles})
	require.NoError(t, err)
	require.Equal(t, 3, result.Added)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "row 2:")

	kojo, err := store.students.GetByRegNo(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "Kojo", kojo.Name)

	esi, err := store.students.GetByRegNo(context.Background(), "P1")
	require.NoError(t, err)
	require.Equal(t, "Ama", *esi.MotherName)
	require.Equal(t, "B+", *esi.BloodGroup)
	class, err := store.identity.GetClass(context.Background(), *esi.ClassID)
	require.NoError(t, err)
	require.Equal(t, "A", class.Section, "section defaults to A")

	yaw, err := store.students.GetByRegNo(context.Background(), "P3")
	require.NoError(t, err)
	class, err = store.identity.GetClass(context.Background(), *yaw.ClassID)
	require.NoError(t, err)
	require.Equal(t, "C", class.Section)
}

func TestImportProfilesAcceptsNumericKeys(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	profiles := []json.RawMessage{
		json.RawMessage(`{"register_number": 1001, "name": "Ama", "class": 7}`),
		json.RawMessage(`{"register_number": 1002, "name": "Kofi", "class": "7", "section": "b"}`),
		json.RawMessage(`{"register_number": 10.5, "name": "Half", "class": 7}`),
	}
	result, err := svc.ImportProfiles(context.Background(), adminActor, dto.ProfileImportRequest{Type: "student", Profiles: profiles})
	require.NoError(t, err)
	require.Equal(t, 2, result.Added)
	require.Equal(t, 1, result.Skipped)
	require.Contains(t, result.Errors[0], "row 3: register_number")

	ama, err := store.students.GetByRegNo(context.Background(), "1001")
	require.NoError(t, err)
	class, err := store.identity.GetClass(context.Background(), *ama.ClassID)
	require.NoError(t, err)
	require.Equal(t, "Class 7", class.ClassName)
	require.Equal(t, "A", class.Section)

	staff, err := svc.ImportProfiles(context.Background(), adminActor, dto.ProfileImportRequest{
		Type:     "teacher",
		Profiles: []json.RawMessage{json.RawMessage(`{"register_id": 77, "name": "Ravi"}`)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, staff.Added)
	var teacher models.TeacherProfile
	require.NoError(t, store.db.Where("register_id = ?", "77").First(&teacher).Error)
	require.Equal(t, "Ravi", teacher.Name)
}

func TestImportSheetConvertsNumericCells(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	result, err := svc.ImportSheet(context.Background(), adminActor, dto.SheetImportRequest{
		ClassNumber: "6",
		Section:     "A",
		Rows: []json.RawMessage{
			json.RawMessage(`{"regNo": "S-1", "studentName": "Lina"}`),
			json.RawMessage(`{"regNo": 1002, "studentName": "Tomas"}`),
			json.RawMessage(`{"regNo": {"nested": true}, "studentName": "Broken"}`),
			json.RawMessage(`"not an object"`),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Added)
	require.Equal(t, 2, result.Skipped)
	require.Contains(t, result.Errors[0], "row 3:")
	require.Contains(t, result.Errors[1], "row 4:")

	_, err = store.students.GetByRegNo(context.Background(), "S-1")
	require.NoError(t, err)
	tomas, err := store.students.GetByRegNo(context.Background(), "1002")
	require.NoError(t, err)
	require.Equal(t, "Tomas", tomas.Name)
}

func TestImportProfilesLinksStaffAccounts(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)

	teacher := store.user(t, "teacher9", models.RoleTeacher)
	store.user(t, "pupil", models.RoleStudent)

	profiles := []json.RawMessage{
		json.RawMessage(`{"register_id": "T-9", "name": "Ravi", "main_subject": "Math", "username": "teacher9"}`),
		json.RawMessage(`{"register_id": "T-10", "name": "Lena", "username": "ghost"}`),
		json.RawMessage(`{"register_id": "T-11", "name": "Omar", "username": "pupil"}`),
		json.RawMessage(`{"register_id": "T-9", "name": "Ravi Kumar"}`),
	}
	result, err := svc.ImportProfiles(context.Background(), adminActor, dto.ProfileImportRequest{Type: "teacher", Profiles: profiles})
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 2, result.Skipped)

	profile, err := store.profiles.TeacherByUserID(context.Background(), teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "Ravi Kumar", profile.Name)
	require.Nil(t, profile.MainSubject, "profile imports replace optional fields")
}

func TestSaveStudentCreatesThenUpdates(t *testing.T) {
	store := newRecordsStore(t)
	svc := newTestRosterService(t, store, 0)
	ctx := context.Background()
	five := store.class(t, "Class 5", "A")
	six := store.class(t, "Class 6", "A")

	created, err := svc.SaveStudent(ctx, adminActor, " R50 ", dto.StudentSaveRequest{
		Name:       "<i>Zara</i>",
		ClassID:    five.ID,
		MotherName: strPtr("Halima"),
	})
	require.NoError(t, err)
	require.True(t, created.Created)
	require.Equal(t, "R50", created.Student.RegNo)
	require.Equal(t, "Zara", created.Student.Name)
	require.Equal(t, "Halima", *created.Student.MotherName)

	updated, err := svc.SaveStudent(ctx, adminActor, "R50", dto.StudentSaveRequest{Name: "Zara B", ClassID: six.ID})
	require.NoError(t, err)
	require.False(t, updated.Created)
	require.Equal(t, six.ID, *updated.Student.ClassID)
	require.Nil(t, updated.Student.MotherName, "guardian fields are replaced as a set")

	_, err = svc.SaveStudent(ctx, adminActor, "R51", dto.StudentSaveRequest{Name: "Nobody", ClassID: six.ID + 100})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "class not found", PublicMessage(err))

	_, err = svc.SaveStudent(ctx, adminActor, "  ", dto.StudentSaveRequest{Name: "Blank", ClassID: five.ID})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.SaveStudent(ctx, adminActor, "R52", dto.StudentSaveRequest{Name: "<b></b>", ClassID: five.ID})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.SaveStudent(ctx, teacherActor, "R53", dto.StudentSaveRequest{Name: "Kemi", ClassID: five.ID})
	require.ErrorIs(t, err, ErrForbidden)
}
