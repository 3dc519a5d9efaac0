package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/workflow"
)

type fixture struct {
	store      *store.MemoryStore
	blobs      *blob.DiskStore
	blobDir    string
	bus        *realtime.LocalBus
	submission *ComplaintService
	tracking   *TrackingService
	cases      *CaseService
	auth       *AuthService

	admin     policy.Viewer
	committee policy.Viewer
	taker     policy.Viewer
	other     policy.Viewer
}

func newFixture(t *testing.T, mode workflow.Mode) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	dir := t.TempDir()
	blobs, err := blob.NewDiskStore(dir, "http://files.test", 1<<20)
	require.NoError(t, err)
	bus := realtime.NewLocalBus()
	t.Cleanup(func() { _ = bus.Close() })

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	f := &fixture{
		store:      st,
		blobs:      blobs,
		blobDir:    dir,
		bus:        bus,
		submission: NewComplaintService(st, blobs, bus),
		tracking:   NewTrackingService(st, bus),
		cases:      NewCaseService(st, st, blobs, bus, workflow.New(mode), NewExportService()),
		auth:       NewAuthService(st, cfg),
	}

	f.admin = f.staffViewer(t, "admin@school.test", "Ada Admin", models.RoleAdmin)
	f.committee = f.staffViewer(t, "committee@school.test", "Cora Committee", models.RoleCommittee)
	f.taker = f.staffViewer(t, "taker@school.test", "Tom Taker", models.RoleActionTaker)
	f.other = f.staffViewer(t, "other@school.test", "Olga Other", models.RoleActionTaker)
	return f
}

func (f *fixture) staffViewer(t *testing.T, email, name string, role models.Role) policy.Viewer {
	t.Helper()
	u, err := f.auth.CreateStaff(context.Background(), email, name, "correct-horse", role, "Student Affairs")
	require.NoError(t, err)
	return policy.Viewer{UID: u.UID, Role: u.Role}
}

func validInput() SubmitInput {
	when := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	return SubmitInput{
		Category:     models.CategoryBullying,
		Severity:     models.SeverityHigh,
		IncidentDate: &when,
		Location:     "Library, second floor",
		Perpetrator:  "Two students from class 10B",
		Witnesses:    "None",
		Description:  "I was pushed and insulted repeatedly near the lockers.",
	}
}

func jpeg(name string) *Attachment {
	return &Attachment{Filename: name, Content: bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'})}
}

// submit creates a complaint and returns its ID.
func (f *fixture) submit(t *testing.T, code string) string {
	t.Helper()
	in := validInput()
	in.Passcode = code
	c, err := f.submission.Submit(context.Background(), in, nil)
	require.NoError(t, err)
	return c.ComplaintID
}
