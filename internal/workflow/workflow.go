// Package workflow validates complaint status changes.
package workflow

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
)

type Mode string

const (
	// Permissive lets staff set any status at any time.
	Permissive Mode = "permissive"
	// Strict enforces the lifecycle transition table.
	Strict Mode = "strict"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var transitions = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.StatusSubmitted:     {models.StatusViewed, models.StatusUnderReview, models.StatusDismissed},
	models.StatusViewed:        {models.StatusUnderReview, models.StatusWorking, models.StatusInvestigation, models.StatusDismissed},
	models.StatusUnderReview:   {models.StatusWorking, models.StatusInvestigation, models.StatusResolved, models.StatusDismissed},
	models.StatusWorking:       {models.StatusInvestigation, models.StatusResolved, models.StatusDismissed},
	models.StatusInvestigation: {models.StatusWorking, models.StatusResolved, models.StatusDismissed},
	models.StatusResolved:      {},
	models.StatusDismissed:     {},
}

type Machine struct {
	mode Mode
}

// New returns a Machine for mode. Anything other than Strict is permissive.
func New(mode Mode) *Machine {
	if mode != Strict {
		mode = Permissive
	}
	return &Machine{mode: mode}
}

func (m *Machine) Mode() Mode {
	return m.mode
}

// Check validates moving a complaint from one status to another.
func (m *Machine) Check(from, to models.ComplaintStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if m.mode == Permissive || from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, from, to)
}

// Next lists the statuses reachable from from under the current mode.
func (m *Machine) Next(from models.ComplaintStatus) []models.ComplaintStatus {
	if m.mode == Permissive {
		out := make([]models.ComplaintStatus, 0, len(models.Statuses))
		for _, s := range models.Statuses {
			if s != from {
				out = append(out, s)
			}
		}
		return out
	}
	return append([]models.ComplaintStatus(nil), transitions[from]...)
}
