package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/passcode"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

// TrackingService is the complainant's read-only window onto a complaint.
type TrackingService struct {
	store store.ComplaintStore
	bus   realtime.Bus
	now   func() time.Time
}

func NewTrackingService(st store.ComplaintStore, bus realtime.Bus) *TrackingService {
	return &TrackingService{
		store: st,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// unlock is the tracking gate. Unknown IDs, wrong or missing passcodes, and
// backend failures all come back as ErrAccessDenied.
func (s *TrackingService) unlock(ctx context.Context, id, code string) (*models.Complaint, error) {
	id = passcode.NormalizeID(id)
	if !passcode.LooksLikeID(id) {
		return nil, ErrAccessDenied
	}
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("tracking lookup failed", "complaint_id", id, "error", err)
		}
		return nil, ErrAccessDenied
	}
	if !passcode.Verify(c.PasscodeHash, code) {
		return nil, ErrAccessDenied
	}
	return c, nil
}

func (s *TrackingService) Track(ctx context.Context, id, code string) (*dto.TrackingView, error) {
	c, err := s.unlock(ctx, id, code)
	if err != nil {
		return nil, err
	}
	return ToTrackingView(c), nil
}

// Receipt renders a PDF confirmation for an unlocked complaint.
func (s *TrackingService) Receipt(ctx context.Context, id, code string) ([]byte, error) {
	c, err := s.unlock(ctx, id, code)
	if err != nil {
		return nil, err
	}
	return RenderReceipt(c, s.now())
}

// TrackingUpdate is one frame of a live tracking stream. Denied is set on
// the final frame when the complaint can no longer be unlocked.
type TrackingUpdate struct {
	View   *dto.TrackingView
	Denied bool
}

// Watch streams the tracking view: once immediately, then again after every
// change to the complaint. Each frame re-runs the tracking gate.
func (s *TrackingService) Watch(ctx context.Context, id, code string) (<-chan TrackingUpdate, error) {
	subCtx, cancel := context.WithCancel(ctx)
	events, err := s.bus.Subscribe(subCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	first, err := s.Track(ctx, id, code)
	if err != nil {
		cancel()
		return nil, err
	}

	id = passcode.NormalizeID(id)
	out := make(chan TrackingUpdate, 1)
	out <- TrackingUpdate{View: first}
	go func() {
		defer cancel()
		defer close(out)
		for ev := range events {
			if ev.ComplaintID != id {
				continue
			}
			update := TrackingUpdate{}
			if view, err := s.Track(ctx, id, code); err != nil {
				update.Denied = true
			} else {
				update.View = view
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
			if update.Denied {
				return
			}
		}
	}()
	return out, nil
}

// ToTrackingView projects a complaint onto the fields a complainant may see.
func ToTrackingView(c *models.Complaint) *dto.TrackingView {
	timeline := c.Timeline()
	updates := make([]dto.PublicUpdateView, 0, len(timeline))
	for _, u := range timeline {
		updates = append(updates, dto.PublicUpdateView{Date: u.Date, Message: u.Message})
	}
	view := &dto.TrackingView{
		ComplaintID:   c.ComplaintID,
		Category:      c.Category,
		Severity:      c.Severity,
		Status:        string(c.Status),
		Description:   c.Description,
		IncidentDate:  c.IncidentDate,
		HasAttachment: c.StoragePath != nil && *c.StoragePath != "",
		PublicUpdates: updates,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if view.HasAttachment && c.AttachmentURL != nil {
		view.AttachmentURL = *c.AttachmentURL
	}
	return view
}
