package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

// Require rejects viewers whose role lacks action. Record-level visibility
// is still enforced by the store.
func Require(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := identity.GetViewer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !policy.Can(v, action, nil) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Your role does not allow this action",
			})
		}
		return c.Next()
	}
}
