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

// CatalogHandler exposes classes, subjects, exams and class rosters.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register attaches routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("/classes", h.classes)
	router.Get("/classes/:id/subjects", h.subjects)
	router.Get("/classes/:id/students", middleware.RequireStaff(), h.students)
	router.Get("/exams", h.exams)
	router.Post("/subjects", middleware.RequireRole(models.RoleAdmin), h.addSubjects)
}

func (h *CatalogHandler) classes(c *fiber.Ctx) error {
	classes, err := h.service.ListClasses(requestContext(c))
	if err != nil {
		return writeError(c, h.logger, err, "list classes")
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *CatalogHandler) subjects(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subjects, err := h.service.ListSubjects(requestContext(c), classID)
	if err != nil {
		return writeError(c, h.logger, err, "list subjects")
	}
	return utils.SendSuccess(c, "subjects retrieved", subjects)
}

func (h *CatalogHandler) students(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	students, err := h.service.ClassStudents(requestContext(c), actorFrom(c), classID)
	if err != nil {
		return writeError(c, h.logger, err, "list class students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *CatalogHandler) exams(c *fiber.Ctx) error {
	exams, err := h.service.ListExams(requestContext(c))
	if err != nil {
		return writeError(c, h.logger, err, "list exams")
	}
	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *CatalogHandler) addSubjects(c *fiber.Ctx) error {
	var req dto.SubjectAddRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.service.AddSubjects(requestContext(c), actorFrom(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "add subjects")
	}
	return utils.SendSuccess(c, "subjects added", resp)
}
