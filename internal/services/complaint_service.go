package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/passcode"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

const MinDescriptionLength = 20

// SubmitInput is the complainant form.
type SubmitInput struct {
	Category      string
	OtherCategory string
	Severity      string
	IncidentDate  *time.Time
	Location      string
	Perpetrator   string
	Witnesses     string
	Description   string
	Passcode      string
}

// Attachment is the optional evidence file chosen on the form.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// ComplaintService handles anonymous complaint submission.
type ComplaintService struct {
	store store.ComplaintStore
	blobs blob.Store
	bus   realtime.Bus
	now   func() time.Time
	newID func() (string, error)
}

func NewComplaintService(st store.ComplaintStore, blobs blob.Store, bus realtime.Bus) *ComplaintService {
	return &ComplaintService{
		store: st,
		blobs: blobs,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
		newID: passcode.GenerateID,
	}
}

// Validate checks the form in the order the complainant fills it in and
// returns the first problem found.
func (s *ComplaintService) Validate(in *SubmitInput, att *Attachment) error {
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return invalid("category", "Please select a category")
	}
	if !models.ValidCategory(in.Category) {
		return invalid("category", "Unknown category")
	}
	if in.Category == models.CategoryOther && strings.TrimSpace(in.OtherCategory) == "" {
		return invalid("other_category", "Please specify the 'Other' category detail.")
	}
	if in.Category == models.CategoryOther && utf8.RuneCountInString(models.OtherCategory(in.OtherCategory)) > models.MaxCategoryLength {
		return invalid("other_category", fmt.Sprintf("The 'Other' category detail must be at most %d characters.", models.MaxCategoryLength-len(models.OtherCategory(""))))
	}
	if in.IncidentDate == nil || in.IncidentDate.IsZero() {
		return invalid("incident_date", "Please select the date and time of the incident.")
	}
	if strings.TrimSpace(in.Location) == "" {
		return invalid("location", "Please specify the location.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Location)) > models.MaxLocationLength {
		return invalid("location", fmt.Sprintf("Location must be at most %d characters.", models.MaxLocationLength))
	}
	if strings.TrimSpace(in.Perpetrator) == "" {
		return invalid("perpetrator", "Please provide details about the subject/perpetrator.")
	}
	if strings.TrimSpace(in.Witnesses) == "" {
		return invalid("witnesses", "Please provide witness details (or type 'None').")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < MinDescriptionLength {
		return invalid("description", fmt.Sprintf("Description must be at least %d characters.", MinDescriptionLength))
	}
	if in.Severity == "" {
		in.Severity = models.SeverityLow
	}
	if !models.ValidSeverity(in.Severity) {
		return invalid("severity", "Unknown severity level")
	}
	if att != nil {
		if _, err := attachmentName(att.Filename); err != nil {
			return err
		}
	}
	return nil
}

// Submit validates and stores a complaint. When evidence is attached it is
// uploaded first; the record is only written once the upload succeeded, and
// the upload is removed again if the record cannot be written.
func (s *ComplaintService) Submit(ctx context.Context, in SubmitInput, att *Attachment) (*models.Complaint, error) {
	if err := s.Validate(&in, att); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := s.now()

	category := in.Category
	if category == models.CategoryOther {
		category = models.OtherCategory(in.OtherCategory)
	}
	c := &models.Complaint{
		ComplaintID:  id,
		Category:     category,
		Severity:     in.Severity,
		Status:       models.StatusSubmitted,
		Description:  in.Description,
		Location:     strings.TrimSpace(in.Location),
		Perpetrator:  strings.TrimSpace(in.Perpetrator),
		Witnesses:    strings.TrimSpace(in.Witnesses),
		IncidentDate: in.IncidentDate.UTC(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Passcode != "" {
		hash, err := passcode.Hash(in.Passcode)
		if err != nil {
			return nil, err
		}
		c.PasscodeHash = &hash
	}

	var key string
	if att != nil {
		name, _ := attachmentName(att.Filename)
		key = fmt.Sprintf("%s%s/%d_%s", blob.PublicPrefix, id, now.UnixMilli(), name)
		obj, err := s.blobs.Put(ctx, key, att.Content)
		if err != nil {
			if errors.Is(err, blob.ErrTooLarge) {
				return nil, invalid("attachment", "Attachment exceeds the maximum upload size.")
			}
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		c.StoragePath = &obj.Key
		if u := s.blobs.URL(obj.Key); u != "" {
			c.AttachmentURL = &u
		}
	}

	audit := models.NewAuditLog(id, models.AuditSubmitted, models.AnonymousPerformedBy, "")
	audit.Timestamp = now
	if err := s.store.CreateComplaint(ctx, c, audit); err != nil {
		if key != "" {
			if derr := s.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
				slog.Error("failed to remove evidence after aborted submission", "complaint_id", id, "key", key, "error", derr)
			}
		}
		if errors.Is(err, store.ErrDuplicate) {
			slog.Error("complaint id collision", "complaint_id", id)
			return nil, ErrDuplicateComplaint
		}
		return nil, err
	}

	slog.Info("complaint submitted", "complaint_id", id, "category", c.Category, "severity", c.Severity, "has_attachment", key != "")
	publish(ctx, s.bus, id, realtime.KindCreated)
	return c, nil
}

// attachmentName validates the evidence file name and rewrites it into the
// bucket's accepted form: safe characters only, always ending in .jpg.
func attachmentName(filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	if ext != ".jpg" && ext != ".jpeg" {
		return "", invalid("attachment", "Security Policy: Only .jpg images are allowed.")
	}

	stem := strings.TrimSuffix(base, path.Ext(base))
	var sb strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("evidence")
	}
	return sb.String() + blob.AllowedExtension, nil
}
