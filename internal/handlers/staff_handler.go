package handlers

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type StaffHandler struct {
	cases *services.CaseService
}

func NewStaffHandler(cases *services.CaseService) *StaffHandler {
	return &StaffHandler{cases: cases}
}

func viewer(c *fiber.Ctx) (policy.Viewer, bool) {
	v, err := identity.GetViewer(c)
	return v, err == nil
}

func unauthorized(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "Unauthorized")
}

func listQuery(c *fiber.Ctx) store.ListQuery {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return store.ListQuery{
		Status:   models.ComplaintStatus(c.Query("status")),
		Category: c.Query("category"),
		Severity: c.Query("severity"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	}
}

func (h *StaffHandler) List(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	q := listQuery(c)
	complaints, total, err := h.cases.List(c.UserContext(), v, q)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"complaints": complaints,
		"total":      total,
		"limit":      q.Limit,
		"offset":     q.Offset,
	})
}

func (h *StaffHandler) Get(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	complaint, err := h.cases.Get(c.UserContext(), v, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(complaint)
}

func (h *StaffHandler) SetStatus(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	complaint, err := h.cases.SetStatus(c.UserContext(), v, c.Params("id"), models.ComplaintStatus(req.Status), req.ExpectedVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(complaint)
}

func (h *StaffHandler) Assign(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	complaint, err := h.cases.Assign(c.UserContext(), v, c.Params("id"), req.AssignedTo, req.ExpectedVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(complaint)
}

func (h *StaffHandler) AddPublicUpdate(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.PublicUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	complaint, err := h.cases.AppendPublicUpdate(c.UserContext(), v, c.Params("id"), req.Message, req.ExpectedVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(complaint)
}

func (h *StaffHandler) AddNote(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	note, err := h.cases.AddInternalNote(c.UserContext(), v, c.Params("id"), req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *StaffHandler) ListNotes(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	notes, err := h.cases.ListInternalNotes(c.UserContext(), v, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notes": notes})
}

func (h *StaffHandler) Audit(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	entries, err := h.cases.AuditTrail(c.UserContext(), v, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"audit": entries})
}

func (h *StaffHandler) Attachment(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	rc, name, err := h.cases.Attachment(c.UserContext(), v, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, name))
	return c.SendStream(rc)
}

// Export downloads the viewer's filtered complaint list as csv, xlsx or pdf.
func (h *StaffHandler) Export(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	file, err := h.cases.Export(c.UserContext(), v, c.Query("format", services.FormatCSV), listQuery(c))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	return c.Send(file.Data)
}

func (h *StaffHandler) Users(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	users, err := h.cases.Roster(c.UserContext(), v)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]dto.StaffResponse, 0, len(users))
	for i := range users {
		out = append(out, services.ToStaffResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"users": out})
}

// Events streams dashboard changes the viewer is allowed to see.
func (h *StaffHandler) Events(c *fiber.Ctx) error {
	v, ok := viewer(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := h.cases.Watch(ctx, v)
	if err != nil {
		cancel()
		return respondError(c, err)
	}

	stream(c, cancel, updates, func(w *bufio.Writer, u services.CaseUpdate) (bool, error) {
		return false, writeEvent(w, u.Kind, u)
	})
	return nil
}
