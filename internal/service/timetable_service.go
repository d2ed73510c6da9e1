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

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// TimetableService manages weekly class timetables.
type TimetableService interface {
	Save(ctx context.Context, actor Actor, req dto.TimetableRequest) (models.Timetable, error)
	List(ctx context.Context, classID uint, day string) ([]models.Timetable, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type timetableService struct {
	timetables repository.TimetableRepository
	identity   repository.IdentityRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(timetables repository.TimetableRepository, identity repository.IdentityRepository, validate *validator.Validate, logger zerolog.Logger) TimetableService {
	return &timetableService{
		timetables: timetables,
		identity:   identity,
		validator:  validate,
		logger:     logger.With().Str("component", "timetable_service").Logger(),
	}
}

// Save creates the slot or replaces the faculty assigned to it.
func (s *timetableService) Save(ctx context.Context, actor Actor, req dto.TimetableRequest) (models.Timetable, error) {
	if err := actor.requireStaff(); err != nil {
		return models.Timetable{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Timetable{}, classify(err, "")
	}
	day, ok := normalizeWeekday(req.Day)
	if !ok {
		return models.Timetable{}, validationError("day must be a weekday name")
	}
	if _, err := s.identity.GetClass(ctx, req.ClassID); err != nil {
		return models.Timetable{}, classify(err, "class not found")
	}

	entry := models.Timetable{
		ClassID:     req.ClassID,
		Day:         day,
		SubjectName: strings.TrimSpace(req.SubjectName),
		FacultyName: strings.TrimSpace(req.FacultyName),
	}
	if err := s.timetables.Save(ctx, &entry); err != nil {
		return models.Timetable{}, classify(err, "")
	}
	return entry, nil
}

func (s *timetableService) List(ctx context.Context, classID uint, day string) ([]models.Timetable, error) {
	if _, err := s.identity.GetClass(ctx, classID); err != nil {
		return nil, classify(err, "class not found")
	}
	if strings.TrimSpace(day) != "" {
		normalized, ok := normalizeWeekday(day)
		if !ok {
			return nil, validationError("day must be a weekday name")
		}
		day = normalized
	}

	entries, err := s.timetables.List(ctx, classID, day)
	if err != nil {
		return nil, classify(err, "")
	}
	if entries == nil {
		entries = []models.Timetable{}
	}
	return entries, nil
}

func (s *timetableService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.requireStaff(); err != nil {
		return err
	}
	return classify(s.timetables.Delete(ctx, id), "timetable entry not found")
}

func normalizeWeekday(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, day := range weekdays {
		if strings.EqualFold(day, raw) {
			return day, true
		}
	}
	return "", false
}
