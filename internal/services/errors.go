package services

import (
	"errors"
)

var (
	// ErrAccessDenied is the only failure the public tracking gate reports.
	ErrAccessDenied = errors.New("complaint not found or access denied")

	ErrComplaintNotFound  = errors.New("complaint not found")
	ErrForbidden          = errors.New("action not permitted for your role")
	ErrVersionConflict    = errors.New("complaint was modified by someone else, reload and retry")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrInvalidAssignee    = errors.New("assignee must be an existing action taker")
	ErrNoAttachment       = errors.New("complaint has no attachment")
	ErrUploadFailed       = errors.New("evidence upload failed")
	ErrDuplicateComplaint = errors.New("complaint id collision")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
)

// ValidationError is a correctable problem with complainant or staff input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
