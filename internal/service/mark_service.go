package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/observability"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// MarkService uploads exam marks and builds result sheets.
type MarkService interface {
	Upload(ctx context.Context, actor Actor, req dto.MarkUploadRequest) (dto.MarkUploadResponse, error)
	UpdateScore(ctx context.Context, actor Actor, id uint, req dto.MarkUpdateRequest) (models.Mark, error)
	Delete(ctx context.Context, actor Actor, req dto.MarkDeleteRequest) (int64, error)
	Results(ctx context.Context, actor Actor, examID, classID uint, regNo string) (dto.ExamResultsResponse, error)
}

type markService struct {
	marks     repository.MarkRepository
	identity  repository.IdentityRepository
	students  repository.StudentRepository
	validator *validator.Validate
	maxErrors int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewMarkService constructs the mark service. maxErrors caps the row messages of an upload.
func NewMarkService(
	marks repository.MarkRepository,
	identity repository.IdentityRepository,
	students repository.StudentRepository,
	validate *validator.Validate,
	maxErrors int,
	logger zerolog.Logger,
) MarkService {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxImportErrors
	}
	return &markService{
		marks:     marks,
		identity:  identity,
		students:  students,
		validator: validate,
		maxErrors: maxErrors,
		logger:    logger.With().Str("component", "mark_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/scientia-api/internal/service/marks"),
	}
}

// Upload replaces the subject's marks for each listed student. Blank scores are skipped
// quietly; malformed scores, out of range scores and students outside the class are
// reported per row. Valid rows are applied in one transaction.
func (s *markService) Upload(ctx context.Context, actor Actor, req dto.MarkUploadRequest) (dto.MarkUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "marks.replace_batch")
	defer span.End()

	if err := actor.requireStaff(); err != nil {
		return dto.MarkUploadResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.MarkUploadResponse{}, classify(err, "")
	}
	if req.PassMark > req.TotalMarks {
		return dto.MarkUploadResponse{}, validationError("pass mark cannot exceed total marks")
	}
	if _, err := s.identity.GetClass(ctx, req.ClassID); err != nil {
		return dto.MarkUploadResponse{}, classify(err, "class not found")
	}

	response := dto.MarkUploadResponse{Errors: []string{}}
	rowError := func(row int, message string) {
		response.ErrorCount++
		if len(response.Errors) < s.maxErrors {
			response.Errors = append(response.Errors, fmt.Sprintf("row %d: %s", row, message))
		}
	}

	// later rows for the same student win
	rowOf := make(map[string]int, len(req.Scores))
	scores := make(map[string]float64, len(req.Scores))
	order := make([]string, 0, len(req.Scores))
	for i, entry := range req.Scores {
		row := i + 1
		regNo := strings.TrimSpace(entry.RegNo)
		raw := strings.TrimSpace(entry.Score)
		if raw == "" {
			response.Skipped++
			continue
		}
		if regNo == "" {
			rowError(row, "reg no is required")
			continue
		}
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			rowError(row, fmt.Sprintf("score %q is not a number", raw))
			continue
		}
		if score < 0 || score > req.TotalMarks {
			rowError(row, fmt.Sprintf("score %g is outside 0-%g", score, req.TotalMarks))
			continue
		}
		if _, seen := scores[regNo]; !seen {
			order = append(order, regNo)
		}
		scores[regNo] = score
		rowOf[regNo] = row
	}

	if len(order) == 0 {
		return response, nil
	}

	batch := repository.MarkBatch{
		ClassID:     req.ClassID,
		SubjectName: strings.TrimSpace(req.SubjectName),
		ExamName:    strings.TrimSpace(req.ExamName),
		TotalMarks:  req.TotalMarks,
		PassMark:    req.PassMark,
		Scores:      make([]repository.MarkScore, 0, len(order)),
	}
	for _, regNo := range order {
		batch.Scores = append(batch.Scores, repository.MarkScore{RegNo: regNo, Score: scores[regNo]})
	}

	result, err := s.marks.ReplaceBatch(ctx, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		observability.ReplaceSets().WithLabelValues("marks", "error").Inc()
		return dto.MarkUploadResponse{}, classify(err, "")
	}
	observability.ReplaceSets().WithLabelValues("marks", "ok").Inc()

	for _, regNo := range result.NotEnrolled {
		rowError(rowOf[regNo], fmt.Sprintf("%s is not enrolled in the class", regNo))
	}

	response.SubjectID = result.SubjectID
	response.ExamID = result.ExamID
	response.Inserted = result.Inserted
	response.Replaced = result.Replaced
	span.SetAttributes(
		attribute.Int("marks.inserted", result.Inserted),
		attribute.Int("marks.replaced", result.Replaced),
	)
	return response, nil
}

func (s *markService) UpdateScore(ctx context.Context, actor Actor, id uint, req dto.MarkUpdateRequest) (models.Mark, error) {
	if err := actor.requireStaff(); err != nil {
		return models.Mark{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Mark{}, classify(err, "")
	}

	mark, err := s.marks.GetByID(ctx, id)
	if err != nil {
		return models.Mark{}, classify(err, "mark not found")
	}
	if *req.Score > mark.TotalMarks {
		return models.Mark{}, validationError(fmt.Sprintf("score cannot exceed total marks (%g)", mark.TotalMarks))
	}
	if err := s.marks.UpdateScore(ctx, id, *req.Score); err != nil {
		return models.Mark{}, classify(err, "mark not found")
	}

	mark.MarksScored = *req.Score
	return mark, nil
}

func (s *markService) Delete(ctx context.Context, actor Actor, req dto.MarkDeleteRequest) (int64, error) {
	if err := actor.requireStaff(); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, classify(err, "")
	}

	removed, err := s.marks.Delete(ctx, repository.MarkFilter{
		ClassID:     req.ClassID,
		ExamID:      req.ExamID,
		SubjectName: req.SubjectName,
		RegNo:       req.RegNo,
	})
	if err != nil {
		return 0, classify(err, "")
	}
	if removed == 0 {
		return 0, notFoundError("no marks matched")
	}
	return removed, nil
}

// Results returns a class result sheet, or a single student's results when regNo is set.
// Students always receive their own results.
func (s *markService) Results(ctx context.Context, actor Actor, examID, classID uint, regNo string) (dto.ExamResultsResponse, error) {
	exam, err := s.identity.GetExam(ctx, examID)
	if err != nil {
		return dto.ExamResultsResponse{}, classify(err, "exam not found")
	}

	if actor.Role == models.RoleStudent {
		own, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return dto.ExamResultsResponse{}, classify(err, "no student record is linked to this account")
		}
		regNo = own.RegNo
	}

	var results []models.MarkResult
	switch {
	case strings.TrimSpace(regNo) != "":
		results, err = s.marks.StudentResults(ctx, exam.ID, regNo)
	case classID != 0:
		if _, lookupErr := s.identity.GetClass(ctx, classID); lookupErr != nil {
			return dto.ExamResultsResponse{}, classify(lookupErr, "class not found")
		}
		results, err = s.marks.ClassResults(ctx, exam.ID, classID)
	default:
		return dto.ExamResultsResponse{}, validationError("class_id or reg_no is required")
	}
	if err != nil {
		return dto.ExamResultsResponse{}, classify(err, "")
	}

	return dto.ExamResultsResponse{Exam: exam, Results: dto.NewMarkResultResponses(results)}, nil
}
