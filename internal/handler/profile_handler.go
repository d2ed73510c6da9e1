package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/profile", h.me)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	profile, err := h.service.Me(requestContext(c), actorFrom(c))
	if err != nil {
		return writeError(c, h.logger, err, "profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}
