package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AuditSubmitted       = "complaint_submitted"
	AuditStatusChanged   = "status_changed"
	AuditAssigned        = "assigned"
	AuditUnassigned      = "unassigned"
	AuditPublicUpdate    = "public_update_added"
	AuditInternalNote    = "internal_note_added"
	AuditExported        = "complaints_exported"
	AnonymousPerformedBy = "complainant"
)

// AuditLog is an append-only trace of one state-changing action.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ComplaintID string         `gorm:"size:16;index" json:"complaint_id"`
	Action      string         `gorm:"size:64;not null;index" json:"action"`
	PerformedBy string         `gorm:"size:36;not null" json:"performed_by"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	Details     string         `gorm:"type:text" json:"details,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
}

func NewAuditLog(complaintID, action, performedBy, details string) *AuditLog {
	return &AuditLog{
		ID:          uuid.New(),
		ComplaintID: complaintID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
		Details:     details,
	}
}
