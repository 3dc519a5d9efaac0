package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
)

func TestPermissive_AllowsAnyKnownStatus(t *testing.T) {
	m := New(Permissive)
	assert.NoError(t, m.Check(models.StatusSubmitted, models.StatusResolved))
	assert.NoError(t, m.Check(models.StatusResolved, models.StatusSubmitted))
	assert.ErrorIs(t, m.Check(models.StatusSubmitted, "Closed"), ErrUnknownStatus)
}

func TestNew_DefaultsToPermissive(t *testing.T) {
	assert.Equal(t, Permissive, New("").Mode())
	assert.Equal(t, Permissive, New("bogus").Mode())
	assert.Equal(t, Strict, New(Strict).Mode())
}

func TestStrict(t *testing.T) {
	m := New(Strict)

	cases := []struct {
		from, to models.ComplaintStatus
		ok       bool
	}{
		{models.StatusSubmitted, models.StatusViewed, true},
		{models.StatusSubmitted, models.StatusResolved, false},
		{models.StatusViewed, models.StatusInvestigation, true},
		{models.StatusUnderReview, models.StatusResolved, true},
		{models.StatusInvestigation, models.StatusWorking, true},
		{models.StatusResolved, models.StatusWorking, false},
		{models.StatusDismissed, models.StatusSubmitted, false},
		{models.StatusWorking, models.StatusWorking, true},
	}
	for _, tc := range cases {
		err := m.Check(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestNext(t *testing.T) {
	assert.Len(t, New(Permissive).Next(models.StatusSubmitted), len(models.Statuses)-1)
	assert.Empty(t, New(Strict).Next(models.StatusResolved))
	assert.Contains(t, New(Strict).Next(models.StatusSubmitted), models.StatusViewed)
}
