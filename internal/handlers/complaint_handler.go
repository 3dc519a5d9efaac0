package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
)

// incidentDateLayouts are tried in order; the second is what an HTML
// datetime-local input sends.
var incidentDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

type ComplaintHandler struct {
	complaints *services.ComplaintService
}

func NewComplaintHandler(complaints *services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

// Submit accepts the multipart complaint form with an optional "attachment" file.
func (h *ComplaintHandler) Submit(c *fiber.Ctx) error {
	in := services.SubmitInput{
		Category:      c.FormValue("category"),
		OtherCategory: c.FormValue("other_category"),
		Severity:      c.FormValue("severity"),
		Location:      c.FormValue("location"),
		Perpetrator:   c.FormValue("perpetrator"),
		Witnesses:     c.FormValue("witnesses"),
		Description:   c.FormValue("description"),
		Passcode:      c.FormValue("passcode"),
	}
	if raw := strings.TrimSpace(c.FormValue("incident_date")); raw != "" {
		when, ok := parseIncidentDate(raw)
		if !ok {
			return fail(c, fiber.StatusBadRequest, "Please select a valid date and time for the incident.")
		}
		in.IncidentDate = &when
	}

	var att *services.Attachment
	fh, err := c.FormFile("attachment")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return respondError(c, err)
		}
		defer f.Close()
		att = &services.Attachment{Filename: fh.Filename, Content: f}
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
	default:
		return badBody(c)
	}

	complaint, err := h.complaints.Submit(c.UserContext(), in, att)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitResponse{
		ComplaintID:       complaint.ComplaintID,
		PasscodeProtected: complaint.HasPasscode(),
		SubmittedAt:       complaint.CreatedAt,
	})
}

func parseIncidentDate(raw string) (time.Time, bool) {
	for _, layout := range incidentDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
