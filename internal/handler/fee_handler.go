package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// FeeHandler exposes the fee ledger.
type FeeHandler struct {
	service service.FeeService
	logger  zerolog.Logger
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(service service.FeeService, logger zerolog.Logger) *FeeHandler {
	return &FeeHandler{
		service: service,
		logger:  logger.With().Str("component", "fee_handler").Logger(),
	}
}

// Register attaches routes.
func (h *FeeHandler) Register(router fiber.Router) {
	admin := middleware.RequireRole(models.RoleAdmin)
	router.Get("/fees", h.list)
	router.Post("/fees", admin, h.create)
	router.Patch("/fees/:id", admin, h.update)
	router.Delete("/fees/:id", admin, h.delete)
}

func (h *FeeHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	query := dto.FeeListQuery{
		ClassID: classID,
		Month:   strings.TrimSpace(c.Query("month")),
		RegNo:   strings.TrimSpace(c.Query("reg_no")),
	}

	fees, err := h.service.List(requestContext(c), actorFrom(c), query)
	if err != nil {
		return writeError(c, h.logger, err, "list fees")
	}
	return utils.SendSuccess(c, "fees retrieved", fees)
}

func (h *FeeHandler) create(c *fiber.Ctx) error {
	var req dto.FeeCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	fee, err := h.service.Create(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "create fee")
	}
	return utils.SendCreated(c, "fee recorded", fee)
}

func (h *FeeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.FeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	fee, err := h.service.Update(requestContext(c), actorFrom(c), id, req)
	if err != nil {
		return writeError(c, h.logger, err, "update fee")
	}
	return utils.SendSuccess(c, "fee updated", fee)
}

func (h *FeeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFrom(c), id); err != nil {
		return writeError(c, h.logger, err, "delete fee")
	}
	return utils.SendSuccess(c, "fee deleted", nil)
}
