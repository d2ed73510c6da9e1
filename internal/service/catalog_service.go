package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// CatalogService exposes classes, subjects, exams and class rosters.
type CatalogService interface {
	ListClasses(ctx context.Context) ([]models.Class, error)
	ListSubjects(ctx context.Context, classID uint) ([]models.Subject, error)
	ListExams(ctx context.Context) ([]models.Exam, error)
	ClassStudents(ctx context.Context, actor Actor, classID uint) ([]models.Student, error)
	AddSubjects(ctx context.Context, actor Actor, req dto.SubjectAddRequest) (dto.SubjectAddResponse, error)
}

type catalogService struct {
	identity  repository.IdentityRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(identity repository.IdentityRepository, students repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	return &catalogService{
		identity:  identity,
		students:  students,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes, err := s.identity.ListClasses(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

func (s *catalogService) ListSubjects(ctx context.Context, classID uint) ([]models.Subject, error) {
	if _, err := s.identity.GetClass(ctx, classID); err != nil {
		return nil, classify(err, "class not found")
	}
	subjects, err := s.identity.ListSubjects(ctx, classID)
	if err != nil {
		return nil, classify(err, "")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

func (s *catalogService) ListExams(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.identity.ListExams(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	if exams == nil {
		exams = []models.Exam{}
	}
	return exams, nil
}

func (s *catalogService) ClassStudents(ctx context.Context, actor Actor, classID uint) ([]models.Student, error) {
	if err := actor.requireStaff(); err != nil {
		return nil, err
	}
	if _, err := s.identity.GetClass(ctx, classID); err != nil {
		return nil, classify(err, "class not found")
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, classify(err, "")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// AddSubjects adds each comma separated name the class does not already have. A class
// named by number and section is created when missing.
func (s *catalogService) AddSubjects(ctx context.Context, actor Actor, req dto.SubjectAddRequest) (dto.SubjectAddResponse, error) {
	if err := actor.requireAdmin(); err != nil {
		return dto.SubjectAddResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SubjectAddResponse{}, classify(err, "")
	}

	names := splitList(req.Subjects)
	if len(names) == 0 {
		return dto.SubjectAddResponse{}, validationError("at least one subject name is required")
	}

	classID := req.ClassID
	if classID != 0 {
		if _, err := s.identity.GetClass(ctx, classID); err != nil {
			return dto.SubjectAddResponse{}, classify(err, "class not found")
		}
	} else {
		resolved, err := s.identity.ResolveClass(ctx, models.ClassName(req.ClassNumber), strings.ToUpper(strings.TrimSpace(req.Section)))
		if err != nil {
			return dto.SubjectAddResponse{}, classify(err, "")
		}
		classID = resolved
	}

	added, duplicates, err := s.identity.AddSubjects(ctx, classID, names)
	if err != nil {
		return dto.SubjectAddResponse{}, classify(err, "")
	}

	s.logger.Info().Uint("class_id", classID).Int("added", added).Int("duplicates", duplicates).Msg("subjects added")
	return dto.SubjectAddResponse{ClassID: classID, Added: added, Duplicates: duplicates}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
