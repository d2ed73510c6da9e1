package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// MarkHandler exposes mark uploads and exam results.
type MarkHandler struct {
	service service.MarkService
	logger  zerolog.Logger
}

// NewMarkHandler constructs the handler.
func NewMarkHandler(service service.MarkService, logger zerolog.Logger) *MarkHandler {
	return &MarkHandler{
		service: service,
		logger:  logger.With().Str("component", "mark_handler").Logger(),
	}
}

// Register attaches routes.
func (h *MarkHandler) Register(router fiber.Router) {
	router.Get("/exams/:id/results", h.results)
	router.Post("/marks", middleware.RequireStaff(), h.upload)
	router.Patch("/marks/:id", middleware.RequireStaff(), h.update)
	router.Delete("/marks", middleware.RequireStaff(), h.delete)
}

func (h *MarkHandler) upload(c *fiber.Ctx) error {
	var req dto.MarkUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.service.Upload(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "upload marks")
	}
	return utils.SendSuccess(c, "marks saved", resp)
}

func (h *MarkHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.MarkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	mark, err := h.service.UpdateScore(requestContext(c), actorFrom(c), id, req)
	if err != nil {
		return writeError(c, h.logger, err, "update mark")
	}
	return utils.SendSuccess(c, "mark updated", mark)
}

func (h *MarkHandler) delete(c *fiber.Ctx) error {
	var req dto.MarkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	removed, err := h.service.Delete(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "delete marks")
	}
	return utils.SendSuccess(c, "marks deleted", fiber.Map{"removed": removed})
}

func (h *MarkHandler) results(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Results(requestContext(c), actorFrom(c), examID, classID, strings.TrimSpace(c.Query("reg_no")))
	if err != nil {
		return writeError(c, h.logger, err, "exam results")
	}
	return utils.SendSuccess(c, "results retrieved", resp)
}
