package handler

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// DefaultMaxUploadBytes caps CSV uploads.
const DefaultMaxUploadBytes = 5 << 20

// RosterHandler exposes the bulk student and profile imports and single student saves.
type RosterHandler struct {
	service   service.RosterService
	maxUpload int64
	logger    zerolog.Logger
}

// NewRosterHandler constructs the handler. maxUpload <= 0 selects DefaultMaxUploadBytes.
func NewRosterHandler(service service.RosterService, maxUpload int64, logger zerolog.Logger) *RosterHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &RosterHandler{
		service:   service,
		maxUpload: maxUpload,
		logger:    logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register attaches routes.
func (h *RosterHandler) Register(router fiber.Router) {
	imports := router.Group("/imports", middleware.RequireRole(models.RoleAdmin))
	imports.Post("/students/csv", h.importCSV)
	imports.Post("/students/sheet", h.importSheet)
	imports.Post("/profiles", h.importProfiles)

	router.Put("/students/:regNo", middleware.RequireRole(models.RoleAdmin), h.saveStudent)
}

func (h *RosterHandler) saveStudent(c *fiber.Ctx) error {
	var req dto.StudentSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.service.SaveStudent(requestContext(c), actorFrom(c), c.Params("regNo"), req)
	if err != nil {
		return writeError(c, h.logger, err, "save student")
	}
	if result.Created {
		return utils.SendCreated(c, "student created", result)
	}
	return utils.SendSuccess(c, "student updated", result)
}

func (h *RosterHandler) importCSV(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart field \"file\" is required")
	}
	if header.Size > h.maxUpload {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUpload))
	}

	file, err := header.Open()
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to open upload")
		return utils.SendError(c, fiber.StatusBadRequest, "could not read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to read upload")
		return utils.SendError(c, fiber.StatusBadRequest, "could not read uploaded file")
	}
	if int64(len(data)) > h.maxUpload {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUpload))
	}

	result, err := h.service.ImportCSV(requestContext(c), actorFrom(c), data)
	if err != nil {
		return writeError(c, h.logger, err, "import csv")
	}
	return utils.SendSuccess(c, "students imported", result)
}

func (h *RosterHandler) importSheet(c *fiber.Ctx) error {
	var req dto.SheetImportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.service.ImportSheet(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "import sheet")
	}
	return utils.SendSuccess(c, "students imported", result)
}

func (h *RosterHandler) importProfiles(c *fiber.Ctx) error {
	var req dto.ProfileImportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.service.ImportProfiles(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "import profiles")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s profiles imported", req.Type), result)
}
