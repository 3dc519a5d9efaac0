package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
)

// publish announces a change. Delivery is best effort: the record is already
// committed and live views re-read it on their next event.
func publish(ctx context.Context, bus realtime.Bus, complaintID, kind string) {
	if bus == nil {
		return
	}
	ev := realtime.Event{ComplaintID: complaintID, Kind: kind, At: time.Now().UTC()}
	if err := bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("realtime publish failed", "complaint_id", complaintID, "kind", kind, "error", err)
	}
}
