package handlers

import (
	"bufio"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/passcode"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
)

type TrackingHandler struct {
	tracking *services.TrackingService
}

func NewTrackingHandler(tracking *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// Track takes the ID and passcode in the body so the passcode stays out of URLs.
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	view, err := h.tracking.Track(c.UserContext(), req.ComplaintID, req.Passcode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *TrackingHandler) Get(c *fiber.Ctx) error {
	view, err := h.tracking.Track(c.UserContext(), c.Params("id"), c.Get(middleware.PasscodeHeader))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *TrackingHandler) Receipt(c *fiber.Ctx) error {
	var req dto.TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	pdf, err := h.tracking.Receipt(c.UserContext(), req.ComplaintID, req.Passcode)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, passcode.NormalizeID(req.ComplaintID)))
	return c.Send(pdf)
}

// Events streams the tracking view. A denial frame ends the stream.
func (h *TrackingHandler) Events(c *fiber.Ctx) error {
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := h.tracking.Watch(ctx, c.Params("id"), c.Get(middleware.PasscodeHeader))
	if err != nil {
		cancel()
		return respondError(c, err)
	}

	stream(c, cancel, updates, func(w *bufio.Writer, u services.TrackingUpdate) (bool, error) {
		if u.Denied {
			return true, writeEvent(w, "denied", dto.ErrorResponse{Error: true, Message: AccessDeniedMessage})
		}
		return false, writeEvent(w, "complaint", u.View)
	})
	return nil
}
