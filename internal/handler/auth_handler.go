package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// AuthHandler exposes login and student self-registration.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches routes. guards run before both endpoints.
func (h *AuthHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := func(final fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), final)
	}
	router.Post("/login", handlers(h.login)...)
	router.Post("/register", handlers(h.register)...)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.service.Login(requestContext(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "login")
	}
	return utils.SendSuccess(c, "login successful", resp)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.service.Register(requestContext(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "register")
	}
	return utils.SendCreated(c, "registration successful", resp)
}
