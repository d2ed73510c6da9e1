package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// TimetableHandler exposes class timetables.
type TimetableHandler struct {
	service service.TimetableService
	logger  zerolog.Logger
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service service.TimetableService, logger zerolog.Logger) *TimetableHandler {
	return &TimetableHandler{
		service: service,
		logger:  logger.With().Str("component", "timetable_handler").Logger(),
	}
}

// Register attaches routes.
func (h *TimetableHandler) Register(router fiber.Router) {
	router.Get("/timetables", h.list)
	router.Post("/timetables", middleware.RequireStaff(), h.save)
	router.Delete("/timetables/:id", middleware.RequireStaff(), h.delete)
}

func (h *TimetableHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil || classID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "class_id is required")
	}

	entries, err := h.service.List(requestContext(c), classID, c.Query("day"))
	if err != nil {
		return writeError(c, h.logger, err, "list timetable")
	}
	return utils.SendSuccess(c, "timetable retrieved", entries)
}

func (h *TimetableHandler) save(c *fiber.Ctx) error {
	var req dto.TimetableRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	entry, err := h.service.Save(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "save timetable")
	}
	return utils.SendSuccess(c, "timetable saved", entry)
}

func (h *TimetableHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFrom(c), id); err != nil {
		return writeError(c, h.logger, err, "delete timetable")
	}
	return utils.SendSuccess(c, "timetable entry deleted", nil)
}
