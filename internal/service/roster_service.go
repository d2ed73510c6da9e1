package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/observability"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// DefaultMaxImportErrors caps the row messages returned by an import.
const DefaultMaxImportErrors = 5

const (
	csvColumnCount      = 4
	defaultSheetSection = "A"
)

// RosterService applies bulk student and profile imports row by row and saves single students.
type RosterService interface {
	SaveStudent(ctx context.Context, actor Actor, regNo string, req dto.StudentSaveRequest) (dto.StudentSaveResult, error)
	ImportCSV(ctx context.Context, actor Actor, data []byte) (dto.ImportResult, error)
	ImportSheet(ctx context.Context, actor Actor, req dto.SheetImportRequest) (dto.ImportResult, error)
	ImportProfiles(ctx context.Context, actor Actor, req dto.ProfileImportRequest) (dto.ImportResult, error)
}

type rosterService struct {
	students  repository.StudentRepository
	profiles  repository.ProfileRepository
	users     repository.UserRepository
	validator *validator.Validate
	policy    *bluemonday.Policy
	schemas   map[string]*jsonschema.Schema
	maxErrors int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRosterService constructs the import service. maxErrors <= 0 uses DefaultMaxImportErrors.
func NewRosterService(
	students repository.StudentRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	maxErrors int,
	logger zerolog.Logger,
) (RosterService, error) {
	schemas, err := compileProfileSchemas()
	if err != nil {
		return nil, err
	}
	if maxErrors <= 0 {
		maxErrors = DefaultMaxImportErrors
	}

	return &rosterService{
		students:  students,
		profiles:  profiles,
		users:     users,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		schemas:   schemas,
		maxErrors: maxErrors,
		logger:    logger.With().Str("component", "roster_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/scientia-api/internal/service/roster"),
	}, nil
}

// SaveStudent creates or updates one student in an existing class.
func (s *rosterService) SaveStudent(ctx context.Context, actor Actor, regNo string, req dto.StudentSaveRequest) (dto.StudentSaveResult, error) {
	ctx, span := s.tracer.Start(ctx, "roster.save_student")
	defer span.End()

	if err := actor.requireAdmin(); err != nil {
		return dto.StudentSaveResult{}, err
	}
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return dto.StudentSaveResult{}, validationError("register number is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentSaveResult{}, classify(err, "")
	}
	name := s.clean(req.Name)
	if name == "" {
		return dto.StudentSaveResult{}, validationError("name is required")
	}

	outcome, err := s.students.Upsert(ctx, repository.StudentRecord{
		RegNo:   regNo,
		Name:    name,
		ClassID: &req.ClassID,
		Details: &repository.StudentDetails{
			MotherName:  s.cleanOptional(req.MotherName),
			MotherPhone: s.cleanOptional(req.MotherPhone),
			FatherName:  s.cleanOptional(req.FatherName),
			FatherPhone: s.cleanOptional(req.FatherPhone),
			Address:     s.cleanOptional(req.Address),
			DOB:         s.cleanOptional(req.DOB),
			BloodGroup:  s.cleanOptional(req.BloodGroup),
		},
	})
	if err != nil {
		span.RecordError(err)
		return dto.StudentSaveResult{}, classify(err, "class not found")
	}
	student, err := s.students.GetByRegNo(ctx, regNo)
	if err != nil {
		return dto.StudentSaveResult{}, classify(err, "student not found")
	}

	s.logger.Info().Str("reg_no", regNo).Str("outcome", string(outcome)).Msg("student saved")
	return dto.StudentSaveResult{Created: outcome == repository.OutcomeCreated, Student: student}, nil
}

// ImportCSV reads rows of (class number, section, student name, reg no). A leading header
// row whose first cell is "class" is ignored.
func (s *rosterService) ImportCSV(ctx context.Context, actor Actor, data []byte) (dto.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "roster.import_csv")
	defer span.End()

	if err := actor.requireAdmin(); err != nil {
		return dto.ImportResult{}, err
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return dto.ImportResult{}, validationError("uploaded file is empty")
	}
	if detected := mimetype.Detect(data); !isTextual(detected) {
		span.SetStatus(codes.Error, "unsupported file type")
		return dto.ImportResult{}, validationError(fmt.Sprintf("expected a CSV file, got %s", detected.String()))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	tally := newImportTally("csv", s.maxErrors)
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			tally.skip(row, "malformed CSV line")
			continue
		}
		if err != nil {
			span.RecordError(err)
			return tally.result, classify(err, "")
		}

		if row == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "class") {
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		if len(record) < csvColumnCount {
			tally.skip(row, fmt.Sprintf("expected %d columns, got %d", csvColumnCount, len(record)))
			continue
		}

		classNumber := strings.TrimSpace(record[0])
		section := strings.ToUpper(strings.TrimSpace(record[1]))
		name := s.clean(record[2])
		regNo := strings.TrimSpace(record[3])
		if classNumber == "" || section == "" || name == "" || regNo == "" {
			tally.skip(row, "class, section, name and reg no are required")
			continue
		}

		key := repository.ClassKey{Name: models.ClassName(classNumber), Section: section}
		if err := s.applyStudent(ctx, tally, row, key, repository.StudentRecord{RegNo: regNo, Name: name}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "import aborted")
			return tally.result, err
		}
	}

	s.finish(span, tally)
	return tally.result, nil
}

// ImportSheet upserts pasted (regNo, studentName) rows into a single class.
func (s *rosterService) ImportSheet(ctx context.Context, actor Actor, req dto.SheetImportRequest) (dto.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "roster.import_sheet")
	defer span.End()

	if err := actor.requireAdmin(); err != nil {
		return dto.ImportResult{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ImportResult{}, classify(err, "")
	}

	key := repository.ClassKey{
		Name:    models.ClassName(req.ClassNumber.String()),
		Section: strings.ToUpper(strings.TrimSpace(req.Section)),
	}
	tally := newImportTally("sheet", s.maxErrors)
	for i, raw := range req.Rows {
		row := i + 1
		var sheetRow dto.SheetRow
		if err := json.Unmarshal(raw, &sheetRow); err != nil {
			tally.skip(row, "regNo and studentName must be text or numbers")
			continue
		}
		regNo := strings.TrimSpace(sheetRow.RegNo.String())
		name := s.clean(sheetRow.StudentName.String())
		if regNo == "" || name == "" {
			tally.skip(row, "regNo and studentName are required")
			continue
		}
		if err := s.applyStudent(ctx, tally, row, key, repository.StudentRecord{RegNo: regNo, Name: name}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "import aborted")
			return tally.result, err
		}
	}

	s.finish(span, tally)
	return tally.result, nil
}

// ImportProfiles validates each entry against the schema for its type and upserts it.
// Student entries carry guardian details, which replace the stored ones.
func (s *rosterService) ImportProfiles(ctx context.Context, actor Actor, req dto.ProfileImportRequest) (dto.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "roster.import_profiles")
	defer span.End()
	span.SetAttributes(attribute.String("profile.type", req.Type))

	if err := actor.requireAdmin(); err != nil {
		return dto.ImportResult{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ImportResult{}, classify(err, "")
	}

	schema := s.schemas[req.Type]
	tally := newImportTally("profiles_"+req.Type, s.maxErrors)
	for i, raw := range req.Profiles {
		row := i + 1

		doc, err := decodeJSONValue(raw)
		if err != nil {
			tally.skip(row, "entry is not valid JSON")
			continue
		}
		if err := schema.Validate(doc); err != nil {
			tally.skip(row, schemaViolation(err))
			continue
		}

		var applyErr error
		switch req.Type {
		case string(models.RoleStudent):
			applyErr = s.applyStudentProfile(ctx, tally, row, raw)
		default:
			applyErr = s.applyStaffProfile(ctx, tally, row, models.Role(req.Type), raw)
		}
		if applyErr != nil {
			span.RecordError(applyErr)
			span.SetStatus(codes.Error, "import aborted")
			return tally.result, applyErr
		}
	}

	s.finish(span, tally)
	return tally.result, nil
}

func (s *rosterService) applyStudentProfile(ctx context.Context, tally *importTally, row int, raw json.RawMessage) error {
	var entry dto.StudentProfileRow
	if err := json.Unmarshal(raw, &entry); err != nil {
		tally.skip(row, "entry does not match the student profile format")
		return nil
	}

	section := defaultSheetSection
	if entry.Section != nil && strings.TrimSpace(*entry.Section) != "" {
		section = strings.ToUpper(strings.TrimSpace(*entry.Section))
	}
	key := repository.ClassKey{Name: models.ClassName(entry.Class.String()), Section: section}
	record := repository.StudentRecord{
		RegNo: strings.TrimSpace(entry.RegisterNumber.String()),
		Name:  s.clean(entry.Name),
		Details: &repository.StudentDetails{
			MotherName:  s.cleanOptional(entry.MotherName),
			MotherPhone: s.cleanOptional(entry.MotherPhone),
			FatherName:  s.cleanOptional(entry.FatherName),
			FatherPhone: s.cleanOptional(entry.FatherPhone),
			Address:     s.cleanOptional(entry.Address),
			DOB:         s.cleanOptional(entry.DOB),
			BloodGroup:  s.cleanOptional(entry.BloodGroup),
		},
	}
	if record.RegNo == "" || record.Name == "" || key.Name == "" {
		tally.skip(row, "register_number, name and class are required")
		return nil
	}
	return s.applyStudent(ctx, tally, row, key, record)
}

func (s *rosterService) applyStaffProfile(ctx context.Context, tally *importTally, row int, role models.Role, raw json.RawMessage) error {
	var entry dto.StaffProfileRow
	if err := json.Unmarshal(raw, &entry); err != nil {
		tally.skip(row, fmt.Sprintf("entry does not match the %s profile format", role))
		return nil
	}
	registerID := strings.TrimSpace(entry.RegisterID.String())
	name := s.clean(entry.Name)
	if registerID == "" || name == "" {
		tally.skip(row, "register_id and name are required")
		return nil
	}

	var userID *uint
	if entry.Username != nil && strings.TrimSpace(*entry.Username) != "" {
		user, err := s.users.FindByUsername(ctx, *entry.Username)
		if err != nil {
			classified := classify(err, "user not found")
			if errors.Is(classified, ErrNotFound) {
				tally.skip(row, fmt.Sprintf("user %q does not exist", strings.TrimSpace(*entry.Username)))
				return nil
			}
			return s.rowFailure(tally, row, classified)
		}
		if user.Role != role {
			tally.skip(row, fmt.Sprintf("user %q is not a %s", user.Username, role))
			return nil
		}
		userID = &user.ID
	}

	var (
		outcome repository.UpsertOutcome
		err     error
	)
	if role == models.RoleAdmin {
		outcome, err = s.profiles.UpsertAdmin(ctx, models.AdminProfile{
			UserID:       userID,
			Name:         name,
			RegisterID:   registerID,
			MainSubject:  s.cleanOptional(entry.MainSubject),
			ClassAdvisor: s.cleanOptional(entry.ClassAdvisor),
			RoleTitle:    s.cleanOptional(entry.Role),
		})
	} else {
		outcome, err = s.profiles.UpsertTeacher(ctx, models.TeacherProfile{
			UserID:       userID,
			Name:         name,
			RegisterID:   registerID,
			MainSubject:  s.cleanOptional(entry.MainSubject),
			ClassAdvisor: s.cleanOptional(entry.ClassAdvisor),
		})
	}
	if err != nil {
		return s.rowFailure(tally, row, classify(err, ""))
	}
	tally.record(outcome)
	return nil
}

func (s *rosterService) applyStudent(ctx context.Context, tally *importTally, row int, key repository.ClassKey, record repository.StudentRecord) error {
	outcome, err := s.students.ImportRow(ctx, key, record)
	if err != nil {
		return s.rowFailure(tally, row, classify(err, ""))
	}
	tally.record(outcome)
	return nil
}

// rowFailure turns a failed row into a row error. Only a cancelled or expired request
// stops the batch.
func (s *rosterService) rowFailure(tally *importTally, row int, err error) error {
	if IsTransient(err) {
		return err
	}
	s.logger.Warn().Err(err).Int("row", row).Str("source", tally.source).Msg("import row rejected")
	if errors.Is(err, ErrConflict) {
		tally.skip(row, "conflicts with an existing record")
		return nil
	}
	tally.skip(row, "could not be saved")
	return nil
}

func (s *rosterService) finish(span trace.Span, tally *importTally) {
	result := tally.result
	span.SetAttributes(
		attribute.Int("import.added", result.Added),
		attribute.Int("import.updated", result.Updated),
		attribute.Int("import.skipped", result.Skipped),
	)
	s.logger.Info().
		Str("source", tally.source).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("import finished")
}

// clean strips markup from free text and trims it.
func (s *rosterService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func (s *rosterService) cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := s.clean(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

type importTally struct {
	source string
	max    int
	result dto.ImportResult
}

func newImportTally(source string, max int) *importTally {
	return &importTally{source: source, max: max, result: dto.ImportResult{Errors: []string{}}}
}

func (t *importTally) record(outcome repository.UpsertOutcome) {
	switch outcome {
	case repository.OutcomeCreated:
		t.result.Added++
		observability.ImportRows().WithLabelValues(t.source, "added").Inc()
	case repository.OutcomeUpdated:
		t.result.Updated++
		observability.ImportRows().WithLabelValues(t.source, "updated").Inc()
	}
}

func (t *importTally) skip(row int, message string) {
	t.result.Skipped++
	t.result.ErrorCount++
	if len(t.result.Errors) < t.max {
		t.result.Errors = append(t.result.Errors, fmt.Sprintf("row %d: %s", row, message))
	}
	observability.ImportRows().WithLabelValues(t.source, "skipped").Inc()
}

func isTextual(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
