package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/observability"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// RemovalService deletes records together with everything that depends on them.
type RemovalService interface {
	DeleteStudent(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error)
	DeleteClass(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error)
	DeleteSubject(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error)
	DeleteExam(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error)
}

type removalService struct {
	repo   repository.RemovalRepository
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewRemovalService constructs the removal service.
func NewRemovalService(repo repository.RemovalRepository, logger zerolog.Logger) RemovalService {
	return &removalService{
		repo:   repo,
		logger: logger.With().Str("component", "removal_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/scientia-api/internal/service/removal"),
	}
}

func (s *removalService) DeleteStudent(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error) {
	return s.remove(ctx, actor, "student", id, s.repo.DeleteStudent)
}

func (s *removalService) DeleteClass(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error) {
	return s.remove(ctx, actor, "class", id, s.repo.DeleteClass)
}

func (s *removalService) DeleteSubject(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error) {
	return s.remove(ctx, actor, "subject", id, s.repo.DeleteSubject)
}

func (s *removalService) DeleteExam(ctx context.Context, actor Actor, id uint) (dto.RemovalResponse, error) {
	return s.remove(ctx, actor, "exam", id, s.repo.DeleteExam)
}

func (s *removalService) remove(
	ctx context.Context,
	actor Actor,
	entity string,
	id uint,
	cascade func(context.Context, uint) (repository.RemovalSummary, error),
) (dto.RemovalResponse, error) {
	ctx, span := s.tracer.Start(ctx, "removal."+entity)
	defer span.End()
	span.SetAttributes(attribute.Int("removal.id", int(id)))

	if err := actor.requireAdmin(); err != nil {
		return dto.RemovalResponse{}, err
	}

	summary, err := cascade(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cascade failed")
		observability.CascadeDeletes().WithLabelValues(entity, "error").Inc()
		if errors.Is(err, repository.ErrSharedRegNo) {
			return dto.RemovalResponse{}, conflictError("a registration number is shared by several students; resolve the duplicate first", err)
		}
		return dto.RemovalResponse{}, classify(err, entity+" not found")
	}
	observability.CascadeDeletes().WithLabelValues(entity, "ok").Inc()

	removed := summaryCounts(summary)
	s.logger.Info().Str("entity", entity).Uint("id", id).Interface("removed", removed).Msg("cascade delete completed")
	return dto.RemovalResponse{Entity: entity, ID: id, Removed: removed}, nil
}

func summaryCounts(summary repository.RemovalSummary) map[string]int64 {
	counts := map[string]int64{
		"students":   summary.Students,
		"users":      summary.Users,
		"attendance": summary.Attendance,
		"marks":      summary.Marks,
		"fees":       summary.Fees,
		"subjects":   summary.Subjects,
		"timetables": summary.Timetables,
		"exams":      summary.Exams,
		"classes":    summary.Classes,
	}
	for key, value := range counts {
		if value == 0 {
			delete(counts, key)
		}
	}
	return counts
}
