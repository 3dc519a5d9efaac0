// Package realtime fans complaint change notifications out to live
// dashboards and tracking pages.
package realtime

import (
	"context"
	"time"
)

const (
	KindCreated      = "created"
	KindStatus       = "status"
	KindAssignment   = "assignment"
	KindPublicUpdate = "public_update"
	KindNote         = "note"
)

// Event announces that a complaint changed. It carries no record data;
// subscribers re-read through their own access checks.
type Event struct {
	ComplaintID string    `json:"complaint_id"`
	Kind        string    `json:"kind"`
	At          time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

const subscriberBuffer = 32
