package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/scientia-api/internal/models"
)

// ImportResult summarises a bulk import. Errors holds at most the configured number of
// row messages; ErrorCount is the full count.
type ImportResult struct {
	Added      int      `json:"added"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors"`
}

// Text is a key cell that spreadsheets export either as a string or as a number.
// Numbers keep their literal form, so 1002 becomes "1002". null decodes as "".
type Text string

// UnmarshalJSON accepts a JSON string, number or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*t = Text(value)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("expected text or number, got %s", data)
	}
	*t = Text(number.String())
	return nil
}

func (t Text) String() string { return string(t) }

// SheetRow is one pasted spreadsheet row.
type SheetRow struct {
	RegNo       Text `json:"regNo"`
	StudentName Text `json:"studentName"`
}

// SheetImportRequest imports pasted rows into one class. Rows are decoded one at a
// time so a malformed row is reported without failing the batch.
type SheetImportRequest struct {
	ClassNumber Text              `json:"class_number" validate:"required,max=16"`
	Section     string            `json:"section" validate:"required,max=8"`
	Rows        []json.RawMessage `json:"rows" validate:"required,min=1"`
}

// ProfileImportRequest carries a JSON array of profiles of one type.
type ProfileImportRequest struct {
	Type     string            `json:"type" validate:"required,oneof=student teacher admin"`
	Profiles []json.RawMessage `json:"profiles" validate:"required,min=1"`
}

// StudentProfileRow is one student entry of a profile import.
type StudentProfileRow struct {
	RegisterNumber Text    `json:"register_number"`
	Name           string  `json:"name"`
	Class          Text    `json:"class"`
	Section        *string `json:"section"`
	MotherName     *string `json:"mother_name"`
	MotherPhone    *string `json:"mother_phone"`
	FatherName     *string `json:"father_name"`
	FatherPhone    *string `json:"father_phone"`
	Address        *string `json:"address"`
	DOB            *string `json:"dob"`
	BloodGroup     *string `json:"blood_group"`
}

// StaffProfileRow is one teacher or admin entry of a profile import. Role only applies to admins.
type StaffProfileRow struct {
	RegisterID   Text    `json:"register_id"`
	Name         string  `json:"name"`
	MainSubject  *string `json:"main_subject"`
	ClassAdvisor *string `json:"class_advisor"`
	Role         *string `json:"role"`
	Username     *string `json:"username"`
}

// StudentSaveRequest creates or updates the student whose register number is in the path.
// Guardian fields are replaced as a set.
type StudentSaveRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	ClassID     uint    `json:"class_id" validate:"required"`
	MotherName  *string `json:"mother_name"`
	MotherPhone *string `json:"mother_phone"`
	FatherName  *string `json:"father_name"`
	FatherPhone *string `json:"father_phone"`
	Address     *string `json:"address"`
	DOB         *string `json:"dob"`
	BloodGroup  *string `json:"blood_group"`
}

// StudentSaveResult reports whether the student was created and its stored state.
type StudentSaveResult struct {
	Created bool           `json:"created"`
	Student models.Student `json:"student"`
}
