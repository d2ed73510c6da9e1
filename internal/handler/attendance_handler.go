package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler exposes attendance submission, editing and history.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("/classes/:id/attendance", h.history)
	router.Get("/classes/:id/attendance/export", h.export)
	router.Post("/attendance", middleware.RequireStaff(), h.submit)
	router.Delete("/attendance", middleware.RequireStaff(), h.deleteDay)
	router.Patch("/attendance/:id", middleware.RequireRole(models.RoleAdmin), h.updateStatus)
}

func (h *AttendanceHandler) submit(c *fiber.Ctx) error {
	var req dto.AttendanceSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.service.Submit(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "submit attendance")
	}
	return utils.SendSuccess(c, "attendance saved", resp)
}

func (h *AttendanceHandler) deleteDay(c *fiber.Ctx) error {
	var req dto.AttendanceDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	removed, err := h.service.DeleteDay(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "delete attendance")
	}
	return utils.SendSuccess(c, "attendance deleted", fiber.Map{"removed": removed})
}

func (h *AttendanceHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.AttendanceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.service.UpdateStatus(requestContext(c), actorFrom(c), id, req); err != nil {
		return writeError(c, h.logger, err, "update attendance")
	}
	return utils.SendSuccess(c, "attendance updated", fiber.Map{"id": id, "present": *req.Present})
}

func (h *AttendanceHandler) history(c *fiber.Ctx) error {
	classID, subjectID, err := attendanceScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.service.History(requestContext(c), actorFrom(c), classID, subjectID)
	if err != nil {
		return writeError(c, h.logger, err, "attendance history")
	}
	return utils.SendSuccess(c, "attendance history retrieved", resp)
}

func (h *AttendanceHandler) export(c *fiber.Ctx) error {
	classID, subjectID, err := attendanceScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := h.service.Export(requestContext(c), actorFrom(c), classID, subjectID)
	if err != nil {
		return writeError(c, h.logger, err, "attendance export")
	}
	return utils.SendAttachment(c, xlsxContentType, file.Filename, file.Content)
}

func attendanceScope(c *fiber.Ctx) (uint, *uint, error) {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	subjectID, err := optionalQueryUint(c, "subject_id")
	if err != nil {
		return 0, nil, err
	}
	return classID, subjectID, nil
}
