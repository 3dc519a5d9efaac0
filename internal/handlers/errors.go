package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
)

// AccessDeniedMessage is the single reply for every failed tracking lookup.
const AccessDeniedMessage = "Complaint not found or the passcode is incorrect."

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as a bare 500.
func respondError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return fail(c, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrAccessDenied):
		return fail(c, fiber.StatusNotFound, AccessDeniedMessage)
	case errors.Is(err, services.ErrComplaintNotFound):
		return fail(c, fiber.StatusNotFound, "Complaint not found")
	case errors.Is(err, services.ErrNoAttachment):
		return fail(c, fiber.StatusNotFound, "This complaint has no attachment")
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Your role does not allow this action")
	case errors.Is(err, services.ErrVersionConflict):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrUnsupportedFormat):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrUploadFailed):
		slog.Error("evidence upload failed", "error", err, "request_id", c.Locals("requestid"))
		return fail(c, fiber.StatusBadGateway, "Evidence upload failed. Please try again.")
	default:
		slog.Error("request failed", "error", err, "path", c.Path(), "request_id", c.Locals("requestid"))
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "Invalid request body")
}
