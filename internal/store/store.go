// Package store persists complaints, staff profiles and their audit trail.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// ListQuery narrows a complaint listing. Zero values mean "any".
type ListQuery struct {
	Status   models.ComplaintStatus
	Category string
	Severity string
	Search   string
	Limit    int
	Offset   int
}

// Mutation is one staff change to a complaint, applied atomically.
type Mutation struct {
	// ExpectedVersion, when set, rejects the write if the stored version differs.
	ExpectedVersion *int

	Status *models.ComplaintStatus
	// AssignedTo set to "" clears the assignment.
	AssignedTo   *string
	PublicUpdate *models.PublicUpdate
	Note         *models.InternalNote

	// Prepare runs against the current record before anything is written.
	// Returning an error aborts the mutation; a non-nil audit entry is
	// stored with it.
	Prepare func(current *models.Complaint) (*models.AuditLog, error)
}

type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint, audit *models.AuditLog) error
	// GetComplaint reads a record without any viewer filter. It backs the
	// public tracking gate only.
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	FindVisible(ctx context.Context, vis policy.Visibility, id string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, vis policy.Visibility, q ListQuery) ([]models.Complaint, int64, error)
	Mutate(ctx context.Context, vis policy.Visibility, id string, m Mutation) (*models.Complaint, error)
	ListInternalNotes(ctx context.Context, id string) ([]models.InternalNote, error)
	AppendAudit(ctx context.Context, entry *models.AuditLog) error
	ListAudit(ctx context.Context, id string) ([]models.AuditLog, error)
}

type StaffStore interface {
	CreateStaff(ctx context.Context, u *models.StaffUser) error
	GetStaff(ctx context.Context, uid string) (*models.StaffUser, error)
	GetStaffByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	ListStaff(ctx context.Context) ([]models.StaffUser, error)

	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

type LogStore interface {
	WriteSystemLogs(ctx context.Context, entries []models.SystemLog) error
	PruneSystemLogs(ctx context.Context, before time.Time) (int64, error)
}

type Store interface {
	ComplaintStore
	StaffStore
	LogStore
	Ping(ctx context.Context) error
	Close() error
}

func applyMutation(c *models.Complaint, m Mutation, now time.Time) {
	if m.Status != nil {
		c.Status = *m.Status
	}
	if m.AssignedTo != nil {
		if *m.AssignedTo == "" {
			c.AssignedTo = nil
		} else {
			uid := *m.AssignedTo
			c.AssignedTo = &uid
		}
	}
	c.Version++
	c.UpdatedAt = now
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
