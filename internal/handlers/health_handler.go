package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

type HealthHandler struct {
	store        store.Store
	workflowMode string
}

func NewHealthHandler(st store.Store, workflowMode string) *HealthHandler {
	return &HealthHandler{store: st, workflowMode: workflowMode}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status, storeStatus := "ok", "ok"
	if err := h.store.Ping(c.UserContext()); err != nil {
		status, storeStatus = "degraded", "unhealthy"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Store:        storeStatus,
		WorkflowMode: h.workflowMode,
	})
}
