package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/workflow"
)

const maxMessageLength = 5000

var errUnchanged = errors.New("unchanged")

// CaseService is everything staff do with complaints. Every method checks
// the viewer's role grant, then reads through the viewer's visibility filter.
type CaseService struct {
	complaints store.ComplaintStore
	staff      store.StaffStore
	blobs      blob.Store
	bus        realtime.Bus
	workflow   *workflow.Machine
	exporter   *ExportService
	now        func() time.Time
}

func NewCaseService(complaints store.ComplaintStore, staff store.StaffStore, blobs blob.Store, bus realtime.Bus, wf *workflow.Machine, exporter *ExportService) *CaseService {
	return &CaseService{
		complaints: complaints,
		staff:      staff,
		blobs:      blobs,
		bus:        bus,
		workflow:   wf,
		exporter:   exporter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func authorize(v policy.Viewer, action policy.Action) error {
	if !policy.Can(v, action, nil) {
		return ErrForbidden
	}
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrComplaintNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return ErrVersionConflict
	default:
		return err
	}
}

func auditMetadata(fields map[string]interface{}) datatypes.JSON {
	raw, err := json.Marshal(fields)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func (s *CaseService) List(ctx context.Context, v policy.Viewer, q store.ListQuery) ([]models.Complaint, int64, error) {
	if err := authorize(v, policy.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.complaints.ListComplaints(ctx, policy.VisibilityFor(v), q)
}

func (s *CaseService) Get(ctx context.Context, v policy.Viewer, id string) (*models.Complaint, error) {
	if err := authorize(v, policy.ActionRead); err != nil {
		return nil, err
	}
	c, err := s.complaints.FindVisible(ctx, policy.VisibilityFor(v), id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// mutate applies m after checking the grant for action, both in general
// and against the locked record.
func (s *CaseService) mutate(ctx context.Context, v policy.Viewer, action policy.Action, id string, m store.Mutation) (*models.Complaint, error) {
	if err := authorize(v, action); err != nil {
		return nil, err
	}
	prepare := m.Prepare
	m.Prepare = func(current *models.Complaint) (*models.AuditLog, error) {
		if !policy.Can(v, action, current) {
			return nil, store.ErrNotFound
		}
		if prepare == nil {
			return nil, nil
		}
		return prepare(current)
	}
	c, err := s.complaints.Mutate(ctx, policy.VisibilityFor(v), id, m)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// SetStatus moves a complaint to status. Writing the current status again
// changes nothing.
func (s *CaseService) SetStatus(ctx context.Context, v policy.Viewer, id string, status models.ComplaintStatus, expectedVersion *int) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("Unknown status %q", status))
	}

	var from models.ComplaintStatus
	c, err := s.mutate(ctx, v, policy.ActionMutateStatus, id, store.Mutation{
		ExpectedVersion: expectedVersion,
		Status:          &status,
		Prepare: func(current *models.Complaint) (*models.AuditLog, error) {
			from = current.Status
			if current.Status == status {
				return nil, errUnchanged
			}
			if err := s.workflow.Check(current.Status, status); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
			}
			entry := s.audit(id, models.AuditStatusChanged, v.UID, fmt.Sprintf("%s -> %s", current.Status, status))
			entry.Metadata = auditMetadata(map[string]interface{}{"from": current.Status, "to": status})
			return entry, nil
		},
	})
	if errors.Is(err, errUnchanged) {
		return s.Get(ctx, v, id)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("complaint status changed", "complaint_id", id, "from", from, "to", status, "staff_uid", v.UID)
	publish(ctx, s.bus, id, realtime.KindStatus)
	return c, nil
}

// Assign hands a complaint to an action taker. An empty assignee unassigns.
func (s *CaseService) Assign(ctx context.Context, v policy.Viewer, id, assignee string, expectedVersion *int) (*models.Complaint, error) {
	if err := authorize(v, policy.ActionAssign); err != nil {
		return nil, err
	}
	assignee = strings.TrimSpace(assignee)

	action, details := models.AuditUnassigned, "Unassigned"
	if assignee != "" {
		u, err := s.staff.GetStaff(ctx, assignee)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrInvalidAssignee
			}
			return nil, err
		}
		if u.Role != models.RoleActionTaker {
			return nil, ErrInvalidAssignee
		}
		action, details = models.AuditAssigned, "Assigned to "+u.Name
	}

	c, err := s.mutate(ctx, v, policy.ActionAssign, id, store.Mutation{
		ExpectedVersion: expectedVersion,
		AssignedTo:      &assignee,
		Prepare: func(current *models.Complaint) (*models.AuditLog, error) {
			var from string
			if current.AssignedTo != nil {
				from = *current.AssignedTo
			}
			entry := s.audit(id, action, v.UID, details)
			entry.Metadata = auditMetadata(map[string]interface{}{"from": from, "to": assignee})
			return entry, nil
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Info("complaint assignment changed", "complaint_id", id, "assigned_to", assignee, "staff_uid", v.UID)
	publish(ctx, s.bus, id, realtime.KindAssignment)
	return c, nil
}

// AppendPublicUpdate adds a message to the complainant-visible timeline.
func (s *CaseService) AppendPublicUpdate(ctx context.Context, v policy.Viewer, id, message string, expectedVersion *int) (*models.Complaint, error) {
	message = strings.TrimSpace(message)
	if err := checkMessage("message", message); err != nil {
		return nil, err
	}

	c, err := s.mutate(ctx, v, policy.ActionAppendUpdate, id, store.Mutation{
		ExpectedVersion: expectedVersion,
		PublicUpdate: &models.PublicUpdate{
			AuthorID: v.UID,
			Date:     s.now(),
			Message:  message,
		},
		Prepare: func(*models.Complaint) (*models.AuditLog, error) {
			return s.audit(id, models.AuditPublicUpdate, v.UID, ""), nil
		},
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.bus, id, realtime.KindPublicUpdate)
	return c, nil
}

func (s *CaseService) AddInternalNote(ctx context.Context, v policy.Viewer, id, note string) (*models.InternalNote, error) {
	note = strings.TrimSpace(note)
	if err := checkMessage("note", note); err != nil {
		return nil, err
	}

	entry := &models.InternalNote{AuthorID: v.UID, Note: note, Date: s.now()}
	_, err := s.mutate(ctx, v, policy.ActionAddNote, id, store.Mutation{
		Note: entry,
		Prepare: func(*models.Complaint) (*models.AuditLog, error) {
			return s.audit(id, models.AuditInternalNote, v.UID, ""), nil
		},
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.bus, id, realtime.KindNote)
	return entry, nil
}

func checkMessage(field, text string) error {
	if text == "" {
		return invalid(field, "Message cannot be empty")
	}
	if len(text) > maxMessageLength {
		return invalid(field, fmt.Sprintf("Message must be at most %d characters", maxMessageLength))
	}
	return nil
}

func (s *CaseService) ListInternalNotes(ctx context.Context, v policy.Viewer, id string) ([]models.InternalNote, error) {
	if _, err := s.Get(ctx, v, id); err != nil {
		return nil, err
	}
	return s.complaints.ListInternalNotes(ctx, id)
}

func (s *CaseService) AuditTrail(ctx context.Context, v policy.Viewer, id string) ([]models.AuditLog, error) {
	if err := authorize(v, policy.ActionReadAudit); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, v, id); err != nil {
		return nil, err
	}
	return s.complaints.ListAudit(ctx, id)
}

// Attachment opens the evidence file of a visible complaint. The caller
// closes the reader.
func (s *CaseService) Attachment(ctx context.Context, v policy.Viewer, id string) (io.ReadCloser, string, error) {
	c, err := s.Get(ctx, v, id)
	if err != nil {
		return nil, "", err
	}
	if c.StoragePath == nil || *c.StoragePath == "" {
		return nil, "", ErrNoAttachment
	}
	rc, err := s.blobs.Open(ctx, *c.StoragePath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, "", ErrNoAttachment
		}
		return nil, "", err
	}
	return rc, path.Base(*c.StoragePath), nil
}

func (s *CaseService) Roster(ctx context.Context, v policy.Viewer) ([]models.StaffUser, error) {
	if err := authorize(v, policy.ActionListStaff); err != nil {
		return nil, err
	}
	return s.staff.ListStaff(ctx)
}

// Export renders every complaint matching q that the viewer can see.
func (s *CaseService) Export(ctx context.Context, v policy.Viewer, format string, q store.ListQuery) (*ExportFile, error) {
	if err := authorize(v, policy.ActionExport); err != nil {
		return nil, err
	}
	q.Limit, q.Offset = 0, 0
	complaints, _, err := s.complaints.ListComplaints(ctx, policy.VisibilityFor(v), q)
	if err != nil {
		return nil, err
	}
	roster, err := s.staff.ListStaff(ctx)
	if err != nil {
		return nil, err
	}

	file, err := s.exporter.Export(format, complaints, roster)
	if err != nil {
		return nil, err
	}

	entry := s.audit("", models.AuditExported, v.UID, file.Filename)
	entry.Metadata = auditMetadata(map[string]interface{}{"format": format, "count": len(complaints)})
	if err := s.complaints.AppendAudit(ctx, entry); err != nil {
		slog.Error("failed to record export", "staff_uid", v.UID, "error", err)
	}
	return file, nil
}

// CaseUpdate is one frame of the staff dashboard stream.
type CaseUpdate struct {
	Kind      string            `json:"kind"`
	Complaint *models.Complaint `json:"complaint"`
}

// Watch streams changes to complaints the viewer can see. Events for
// complaints outside the viewer's filter are dropped.
func (s *CaseService) Watch(ctx context.Context, v policy.Viewer) (<-chan CaseUpdate, error) {
	if err := authorize(v, policy.ActionRead); err != nil {
		return nil, err
	}
	events, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	vis := policy.VisibilityFor(v)
	out := make(chan CaseUpdate)
	go func() {
		defer close(out)
		for ev := range events {
			c, err := s.complaints.FindVisible(ctx, vis, ev.ComplaintID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.Warn("staff stream lookup failed", "complaint_id", ev.ComplaintID, "error", err)
				}
				continue
			}
			select {
			case out <- CaseUpdate{Kind: ev.Kind, Complaint: c}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *CaseService) audit(id, action, by, details string) *models.AuditLog {
	entry := models.NewAuditLog(id, action, by, details)
	entry.Timestamp = s.now()
	return entry
}
