package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// RemovalHandler exposes the cascading deletes.
type RemovalHandler struct {
	service service.RemovalService
	logger  zerolog.Logger
}

// NewRemovalHandler constructs the handler.
func NewRemovalHandler(service service.RemovalService, logger zerolog.Logger) *RemovalHandler {
	return &RemovalHandler{
		service: service,
		logger:  logger.With().Str("component", "removal_handler").Logger(),
	}
}

type removeFunc func(ctx context.Context, actor service.Actor, id uint) (dto.RemovalResponse, error)

// Register attaches routes.
func (h *RemovalHandler) Register(router fiber.Router) {
	admin := middleware.RequireRole(models.RoleAdmin)
	router.Delete("/students/:id", admin, h.remove("student", h.service.DeleteStudent))
	router.Delete("/classes/:id", admin, h.remove("class", h.service.DeleteClass))
	router.Delete("/subjects/:id", admin, h.remove("subject", h.service.DeleteSubject))
	router.Delete("/exams/:id", admin, h.remove("exam", h.service.DeleteExam))
}

func (h *RemovalHandler) remove(entity string, fn removeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		resp, err := fn(requestContext(c), actorFrom(c), id)
		if err != nil {
			return writeError(c, h.logger, err, "delete "+entity)
		}
		return utils.SendSuccess(c, entity+" deleted", resp)
	}
}
