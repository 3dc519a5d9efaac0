package dto

import "time"

// SubmitResponse is returned to the complainant after a successful submission.
type SubmitResponse struct {
	ComplaintID       string    `json:"complaint_id"`
	PasscodeProtected bool      `json:"passcode_protected"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

type TrackRequest struct {
	ComplaintID string `json:"complaint_id"`
	Passcode    string `json:"passcode"`
}

// TrackingView is the complainant-facing projection of a complaint. It never
// carries internal notes, the passcode hash, the assignee, or storage paths.
type TrackingView struct {
	ComplaintID   string             `json:"complaint_id"`
	Category      string             `json:"category"`
	Severity      string             `json:"severity"`
	Status        string             `json:"status"`
	Description   string             `json:"description"`
	IncidentDate  time.Time          `json:"incident_date"`
	HasAttachment bool               `json:"has_attachment"`
	AttachmentURL string             `json:"attachment_url,omitempty"`
	PublicUpdates []PublicUpdateView `json:"public_updates"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type PublicUpdateView struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

type StatusRequest struct {
	Status          string `json:"status"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

type AssignRequest struct {
	AssignedTo      string `json:"assigned_to"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

type PublicUpdateRequest struct {
	Message         string `json:"message"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

type NoteRequest struct {
	Note string `json:"note"`
}
