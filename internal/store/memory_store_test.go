package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

func seed(t *testing.T, s *MemoryStore, id string, assignedTo string) {
	t.Helper()
	c := &models.Complaint{
		ComplaintID:  id,
		Category:     models.CategoryBullying,
		Severity:     models.SeverityLow,
		Description:  "a description long enough to pass",
		Location:     "Gym",
		IncidentDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if assignedTo != "" {
		c.AssignedTo = &assignedTo
	}
	require.NoError(t, s.CreateComplaint(context.Background(), c, nil))
}

func TestMemoryStore_CreateRejectsDuplicate(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, "CMP-AAAA2222", "")

	err := s.CreateComplaint(context.Background(), &models.Complaint{ComplaintID: "CMP-AAAA2222"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.GetComplaint(context.Background(), "CMP-AAAA2222")
	require.NoError(t, err)
	assert.Equal(t, "Gym", got.Location, "the original record must not be overwritten")
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestMemoryStore_VisibilityFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, "CMP-AAAA2222", "at-1")
	seed(t, s, "CMP-BBBB3333", "at-2")
	seed(t, s, "CMP-CCCC4444", "")

	mine := policy.Visibility{AssignedTo: "at-1"}
	list, total, err := s.ListComplaints(ctx, mine, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "CMP-AAAA2222", list[0].ComplaintID)

	_, err = s.FindVisible(ctx, mine, "CMP-BBBB3333")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Mutate(ctx, mine, "CMP-CCCC4444", Mutation{})
	assert.ErrorIs(t, err, ErrNotFound)

	all, total, err := s.ListComplaints(ctx, policy.Visibility{All: true}, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	none, _, err := s.ListComplaints(ctx, policy.Visibility{}, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_MutateVersioning(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, "CMP-AAAA2222", "")
	all := policy.Visibility{All: true}

	status := models.StatusViewed
	v1 := 1
	updated, err := s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{Status: &status, ExpectedVersion: &v1})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, models.StatusViewed, updated.Status)

	_, err = s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{Status: &status, ExpectedVersion: &v1})
	assert.ErrorIs(t, err, ErrVersionConflict)

	// No expected version means last write wins.
	_, err = s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{Status: &status})
	assert.NoError(t, err)
}

func TestMemoryStore_PrepareAbortsAndAudits(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, "CMP-AAAA2222", "")
	all := policy.Visibility{All: true}
	boom := errors.New("boom")

	status := models.StatusResolved
	_, err := s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{
		Status:  &status,
		Prepare: func(*models.Complaint) (*models.AuditLog, error) { return nil, boom },
	})
	assert.ErrorIs(t, err, boom)
	got, _ := s.GetComplaint(ctx, "CMP-AAAA2222")
	assert.Equal(t, models.StatusSubmitted, got.Status)

	_, err = s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{
		Status: &status,
		Prepare: func(c *models.Complaint) (*models.AuditLog, error) {
			return models.NewAuditLog(c.ComplaintID, models.AuditStatusChanged, "admin-1", string(c.Status)+" -> Resolved"), nil
		},
	})
	require.NoError(t, err)
	entries, err := s.ListAudit(ctx, "CMP-AAAA2222")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Submitted -> Resolved", entries[0].Details)
}

func TestMemoryStore_PublicUpdatesAppendOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, "CMP-AAAA2222", "")
	all := policy.Visibility{All: true}

	for _, msg := range []string{"one", "two", "three"} {
		_, err := s.Mutate(ctx, all, "CMP-AAAA2222", Mutation{PublicUpdate: &models.PublicUpdate{Message: msg, Date: time.Now()}})
		require.NoError(t, err)
	}
	got, err := s.GetComplaint(ctx, "CMP-AAAA2222")
	require.NoError(t, err)
	require.Len(t, got.PublicUpdates, 3)
	assert.Equal(t, "one", got.PublicUpdates[0].Message)
	assert.Equal(t, "three", got.PublicUpdates[2].Message)

	// Mutating the returned copy must not reach the stored record.
	got.PublicUpdates[0].Message = "tampered"
	again, _ := s.GetComplaint(ctx, "CMP-AAAA2222")
	assert.Equal(t, "one", again.PublicUpdates[0].Message)
}

func TestMemoryStore_ListQuery(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	all := policy.Visibility{All: true}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, cat := range []string{models.CategoryBullying, models.OtherCategory("Hazing"), models.CategoryHarassment} {
		s.Clock = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		require.NoError(t, s.CreateComplaint(ctx, &models.Complaint{
			ComplaintID: []string{"CMP-AAAA2222", "CMP-BBBB3333", "CMP-CCCC4444"}[i],
			Category:    cat,
			Severity:    models.SeverityLow,
			Location:    []string{"Gym", "Library", "Cafeteria"}[i],
		}, nil))
	}

	others, _, err := s.ListComplaints(ctx, all, ListQuery{Category: models.CategoryOther})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "Other: Hazing", others[0].Category)

	found, _, err := s.ListComplaints(ctx, all, ListQuery{Search: "libr"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	page, total, err := s.ListComplaints(ctx, all, ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "CMP-CCCC4444", page[0].ComplaintID, "newest first")
}

func TestMemoryStore_PruneSystemLogs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.WriteSystemLogs(ctx, []models.SystemLog{
		{Timestamp: now.Add(-48 * time.Hour), Message: "old"},
		{Timestamp: now, Message: "new"},
	}))

	pruned, err := s.PruneSystemLogs(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
	require.Len(t, s.SystemLogs(), 1)
	assert.Equal(t, "new", s.SystemLogs()[0].Message)
}

func TestMemoryStore_SearchIsLiteral(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, "CMP-AAAA2222", "")
	c := &models.Complaint{
		ComplaintID: "CMP-BBBB3333",
		Category:    models.CategoryBullying,
		Severity:    models.SeverityLow,
		Description: "Flyers promised 50% off tutoring in room 4_B",
		Location:    "Hallway",
	}
	require.NoError(t, s.CreateComplaint(context.Background(), c, nil))

	all := policy.Visibility{All: true}
	for term, want := range map[string]int64{"50%": 1, "4_b": 1, "%": 1, "_": 1, "gym": 1, "x%y": 0} {
		_, total, err := s.ListComplaints(context.Background(), all, ListQuery{Search: term})
		require.NoError(t, err)
		assert.Equal(t, want, total, term)
	}
}
