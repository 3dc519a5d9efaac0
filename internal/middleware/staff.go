package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

// StaffContext resolves the viewer from the verified JWT. The role is
// re-read from the staff store so a demoted or removed account loses access
// before its token expires.
func StaffContext(staff store.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := identity.FromToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		user, err := staff.GetStaff(c.UserContext(), v.UID)
		if err != nil {
			slog.Warn("token for unknown staff member", "staff_uid", v.UID, "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !user.Role.Valid() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Staff role not recognised",
			})
		}

		v.Role = user.Role
		identity.SetViewer(c, v)
		c.Locals("staff_uid", v.UID)
		return c.Next()
	}
}
