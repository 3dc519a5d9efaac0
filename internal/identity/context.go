// Package identity carries the authenticated staff viewer through a request.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

const viewerKey = "viewer"

var ErrNoViewer = errors.New("no authenticated staff member")

// FromToken reads the viewer from the JWT placed in locals by the jwt middleware.
func FromToken(c *fiber.Ctx) (policy.Viewer, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return policy.Viewer{}, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return policy.Viewer{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return policy.Viewer{}, errors.New("missing sub claim")
	}
	role, _ := claims["role"].(string)

	return policy.Viewer{UID: sub, Role: models.Role(role)}, nil
}

func SetViewer(c *fiber.Ctx, v policy.Viewer) {
	c.Locals(viewerKey, v)
}

// GetViewer returns the viewer resolved earlier in the chain.
func GetViewer(c *fiber.Ctx) (policy.Viewer, error) {
	if v, ok := c.Locals(viewerKey).(policy.Viewer); ok {
		return v, nil
	}
	return policy.Viewer{}, ErrNoViewer
}
