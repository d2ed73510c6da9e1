package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/observability"
	"github.com/noah-isme/scientia-api/internal/repository"
)

const attendanceSheet = "Attendance"

// AttendanceExport is a rendered attendance workbook.
type AttendanceExport struct {
	Filename string
	Content  []byte
}

// AttendanceService records attendance replace-sets and rebuilds the register.
type AttendanceService interface {
	Submit(ctx context.Context, actor Actor, req dto.AttendanceSubmitRequest) (dto.AttendanceSubmitResponse, error)
	DeleteDay(ctx context.Context, actor Actor, req dto.AttendanceDeleteRequest) (int64, error)
	UpdateStatus(ctx context.Context, actor Actor, id uint, req dto.AttendanceStatusRequest) error
	History(ctx context.Context, actor Actor, classID uint, subjectID *uint) (dto.AttendanceHistoryResponse, error)
	Export(ctx context.Context, actor Actor, classID uint, subjectID *uint) (AttendanceExport, error)
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	identity   repository.IdentityRepository
	students   repository.StudentRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	identity repository.IdentityRepository,
	students repository.StudentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceService{
		attendance: attendance,
		identity:   identity,
		students:   students,
		validator:  validate,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/scientia-api/internal/service/attendance"),
	}
}

func (s *attendanceService) Submit(ctx context.Context, actor Actor, req dto.AttendanceSubmitRequest) (dto.AttendanceSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.replace_day")
	defer span.End()

	if err := actor.requireStaff(); err != nil {
		return dto.AttendanceSubmitResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.AttendanceSubmitResponse{}, classify(err, "")
	}

	key, err := s.attendanceKey(ctx, req.ClassID, req.SubjectID, req.Date)
	if err != nil {
		return dto.AttendanceSubmitResponse{}, err
	}
	span.SetAttributes(
		attribute.Int("attendance.class_id", int(key.ClassID)),
		attribute.String("attendance.date", key.Date),
	)

	summary, err := s.attendance.ReplaceDay(ctx, key, req.Present)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		observability.ReplaceSets().WithLabelValues("attendance", "error").Inc()
		return dto.AttendanceSubmitResponse{}, classify(err, "")
	}
	observability.ReplaceSets().WithLabelValues("attendance", "ok").Inc()

	unknown := summary.Unknown
	if unknown == nil {
		unknown = []string{}
	}
	if len(unknown) > 0 {
		s.logger.Warn().Uint("class_id", key.ClassID).Strs("reg_nos", unknown).Msg("present list names students outside the class")
	}

	return dto.AttendanceSubmitResponse{
		ClassID:   key.ClassID,
		SubjectID: key.SubjectID,
		Date:      key.Date,
		Total:     summary.Total,
		Present:   summary.Present,
		Absent:    summary.Total - summary.Present,
		Unknown:   unknown,
	}, nil
}

func (s *attendanceService) DeleteDay(ctx context.Context, actor Actor, req dto.AttendanceDeleteRequest) (int64, error) {
	if err := actor.requireStaff(); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, classify(err, "")
	}

	key, err := s.attendanceKey(ctx, req.ClassID, req.SubjectID, req.Date)
	if err != nil {
		return 0, err
	}
	removed, err := s.attendance.DeleteDay(ctx, key)
	if err != nil {
		return 0, classify(err, "")
	}
	if removed == 0 {
		return 0, notFoundError("no attendance recorded for that day")
	}
	return removed, nil
}

func (s *attendanceService) UpdateStatus(ctx context.Context, actor Actor, id uint, req dto.AttendanceStatusRequest) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return classify(err, "")
	}
	return classify(s.attendance.UpdateStatus(ctx, id, *req.Present), "attendance record not found")
}

// History lists every recorded date for the class, newest first. Students may only read
// the register of their own class.
func (s *attendanceService) History(ctx context.Context, actor Actor, classID uint, subjectID *uint) (dto.AttendanceHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.history")
	defer span.End()

	class, subject, err := s.scope(ctx, actor, classID, subjectID)
	if err != nil {
		return dto.AttendanceHistoryResponse{}, err
	}

	days, err := s.attendance.History(ctx, class.ID, subjectID)
	if err != nil {
		span.RecordError(err)
		return dto.AttendanceHistoryResponse{}, classify(err, "")
	}
	span.SetAttributes(attribute.Int("attendance.days", len(days)))

	return dto.AttendanceHistoryResponse{Class: class, Subject: subject, Days: days}, nil
}

// Export renders the register as a workbook: one row per enrolled student and one
// column per recorded date, oldest first.
func (s *attendanceService) Export(ctx context.Context, actor Actor, classID uint, subjectID *uint) (AttendanceExport, error) {
	history, err := s.History(ctx, actor, classID, subjectID)
	if err != nil {
		return AttendanceExport{}, err
	}
	roster, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return AttendanceExport{}, classify(err, "")
	}

	days := slices.Clone(history.Days)
	slices.Reverse(days)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), attendanceSheet); err != nil {
		return AttendanceExport{}, fmt.Errorf("prepare workbook: %w", err)
	}

	headers := []string{"Reg No", "Name"}
	for _, day := range days {
		headers = append(headers, day.Date)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(attendanceSheet, cell, header); err != nil {
			return AttendanceExport{}, fmt.Errorf("write header: %w", err)
		}
	}

	marks := make([]map[string]*bool, len(days))
	for i, day := range days {
		marks[i] = make(map[string]*bool, len(day.Students))
		for _, student := range day.Students {
			marks[i][student.RegNo] = student.Present
		}
	}

	for r, student := range roster {
		row := r + 2
		values := []interface{}{student.RegNo, student.Name}
		for i := range days {
			values = append(values, presenceLabel(marks[i][student.RegNo]))
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(attendanceSheet, cell, &values); err != nil {
			return AttendanceExport{}, fmt.Errorf("write row: %w", err)
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return AttendanceExport{}, fmt.Errorf("render workbook: %w", err)
	}

	name := strings.ToLower(strings.ReplaceAll(history.Class.ClassName, " ", "_"))
	filename := fmt.Sprintf("attendance_%s_%s_%s.xlsx", name, strings.ToLower(history.Class.Section), time.Now().Format("20060102"))
	return AttendanceExport{Filename: filename, Content: buffer.Bytes()}, nil
}

func (s *attendanceService) scope(ctx context.Context, actor Actor, classID uint, subjectID *uint) (models.Class, *models.Subject, error) {
	class, err := s.identity.GetClass(ctx, classID)
	if err != nil {
		return models.Class{}, nil, classify(err, "class not found")
	}

	if actor.Role == models.RoleStudent {
		own, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return models.Class{}, nil, classify(err, "no student record is linked to this account")
		}
		if own.ClassID == nil || *own.ClassID != class.ID {
			return models.Class{}, nil, forbiddenError("students may only view their own class")
		}
	}

	if subjectID == nil {
		return class, nil, nil
	}
	subject, err := s.subjectOf(ctx, class.ID, *subjectID)
	if err != nil {
		return models.Class{}, nil, err
	}
	return class, &subject, nil
}

func (s *attendanceService) attendanceKey(ctx context.Context, classID uint, subjectID *uint, date string) (models.AttendanceKey, error) {
	parsed, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return models.AttendanceKey{}, validationError("date must be YYYY-MM-DD")
	}
	if _, err := s.identity.GetClass(ctx, classID); err != nil {
		return models.AttendanceKey{}, classify(err, "class not found")
	}
	if subjectID != nil {
		if _, err := s.subjectOf(ctx, classID, *subjectID); err != nil {
			return models.AttendanceKey{}, err
		}
	}
	return models.AttendanceKey{ClassID: classID, SubjectID: subjectID, Date: parsed.Format(models.DateLayout)}, nil
}

func (s *attendanceService) subjectOf(ctx context.Context, classID, subjectID uint) (models.Subject, error) {
	subject, err := s.identity.GetSubject(ctx, subjectID)
	if err != nil {
		return models.Subject{}, classify(err, "subject not found")
	}
	if subject.ClassID != classID {
		return models.Subject{}, validationError("subject does not belong to the class")
	}
	return subject, nil
}

func presenceLabel(present *bool) string {
	switch {
	case present == nil:
		return ""
	case *present:
		return "P"
	default:
		return "A"
	}
}
