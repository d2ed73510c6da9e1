package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/service"
	"github.com/noah-isme/scientia-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(parsed), nil
}

// parseQueryUint returns 0 when the key is absent.
func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func optionalQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value, err := parseQueryUint(c, key)
	if err != nil || value == 0 {
		return nil, err
	}
	return &value, nil
}

func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		actor.UserID = id
	}
	if raw, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		if role, known := models.ParseRole(raw); known {
			actor.Role = role
		}
	}
	if username, ok := c.Locals(middleware.LocalUsername).(string); ok {
		actor.Username = username
	}
	return actor
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// writeError maps a service failure onto a status code and a caller-safe message.
// Store failures are logged with their cause; the cause never reaches the response.
func writeError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case service.IsTransient(err):
		status = fiber.StatusServiceUnavailable
	}

	log := requestLogger(logger, c)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("action", action).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("action", action).Int("status", status).Msg("request rejected")
	}

	return utils.SendError(c, status, service.PublicMessage(err))
}

func invalidBody(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
}
