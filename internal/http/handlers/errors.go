package handlers

import (
	"errors"
	"strconv"

	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/middleware"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/adstudio/backend/internal/siteparser"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var perr *generation.ProviderError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrNothingToGenerate),
		errors.Is(err, siteparser.ErrInvalidURL):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrCampaignGenerating),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrQueueFull),
		errors.Is(err, services.ErrNotConfigured),
		errors.Is(err, generation.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &perr), errors.Is(err, siteparser.ErrUnreachable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		msg = "internal error"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: requestID(c)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: requestID(c)})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.CtxRequestID).(string)
	return id
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ErrorHandler is the app-level fallback for errors returned by handlers.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message, RequestID: requestID(c)})
		}
		return respondError(c, log, err)
	}
}
