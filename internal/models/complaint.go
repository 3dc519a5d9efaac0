package models

import (
	"sort"
	"strings"
	"time"
)

type ComplaintStatus string

const (
	StatusSubmitted     ComplaintStatus = "Submitted"
	StatusViewed        ComplaintStatus = "Viewed"
	StatusUnderReview   ComplaintStatus = "Under Review"
	StatusWorking       ComplaintStatus = "Working"
	StatusInvestigation ComplaintStatus = "Investigation"
	StatusResolved      ComplaintStatus = "Resolved"
	StatusDismissed     ComplaintStatus = "Dismissed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ComplaintStatus{
	StatusSubmitted,
	StatusViewed,
	StatusUnderReview,
	StatusWorking,
	StatusInvestigation,
	StatusResolved,
	StatusDismissed,
}

func (s ComplaintStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s ComplaintStatus) Terminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

const (
	CategoryBullying           = "Bullying"
	CategoryHarassment         = "Harassment"
	CategoryDiscrimination     = "Discrimination"
	CategoryAcademicDishonesty = "Academic Dishonesty"
	CategorySubstanceAbuse     = "Substance Abuse"
	CategoryOther              = "Other"
)

var Categories = []string{
	CategoryBullying,
	CategoryHarassment,
	CategoryDiscrimination,
	CategoryAcademicDishonesty,
	CategorySubstanceAbuse,
	CategoryOther,
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// OtherCategory formats the free-text detail given with the "Other" category.
func OtherCategory(detail string) string {
	return CategoryOther + ": " + strings.TrimSpace(detail)
}

const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

var Severities = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func ValidSeverity(severity string) bool {
	for _, s := range Severities {
		if s == severity {
			return true
		}
	}
	return false
}

// Column widths of the bounded free-text fields, in characters.
const (
	MaxCategoryLength = 120
	MaxLocationLength = 255
)

// Complaint is one submitted incident report keyed by its tracking ID.
// Staff-only notes live in InternalNote and are never loaded with it.
type Complaint struct {
	ComplaintID   string          `gorm:"primaryKey;size:16" json:"complaint_id"`
	PasscodeHash  *string         `gorm:"size:64" json:"-"`
	Category      string          `gorm:"size:120;not null;index" json:"category"`
	Severity      string          `gorm:"size:20;not null;index" json:"severity"`
	Status        ComplaintStatus `gorm:"size:20;not null;default:'Submitted';index" json:"status"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Location      string          `gorm:"size:255;not null" json:"location"`
	Perpetrator   string          `gorm:"type:text;not null" json:"perpetrator"`
	Witnesses     string          `gorm:"type:text;not null" json:"witnesses"`
	IncidentDate  time.Time       `gorm:"not null" json:"incident_date"`
	AssignedTo    *string         `gorm:"size:36;index" json:"assigned_to,omitempty"`
	AttachmentURL *string         `gorm:"size:1024" json:"attachment_url,omitempty"`
	StoragePath   *string         `gorm:"size:512" json:"storage_path,omitempty"`
	Version       int             `gorm:"not null;default:1" json:"version"`
	PublicUpdates []PublicUpdate  `gorm:"foreignKey:ComplaintID;references:ComplaintID" json:"public_updates"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c *Complaint) HasPasscode() bool {
	return c.PasscodeHash != nil && *c.PasscodeHash != ""
}

func (c *Complaint) IsAssignedTo(uid string) bool {
	return uid != "" && c.AssignedTo != nil && *c.AssignedTo == uid
}

// Timeline returns the public updates oldest first. Entries written in the
// same instant keep their append order.
func (c *Complaint) Timeline() []PublicUpdate {
	out := make([]PublicUpdate, len(c.PublicUpdates))
	copy(out, c.PublicUpdates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// PublicUpdate is a staff-authored message shown on the complainant timeline.
type PublicUpdate struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ComplaintID string    `gorm:"size:16;not null;index" json:"-"`
	AuthorID    string    `gorm:"size:36;not null" json:"-"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Message     string    `gorm:"type:text;not null" json:"message"`
}

// InternalNote is a staff-only annotation on a complaint.
type InternalNote struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID string    `gorm:"size:16;not null;index" json:"complaint_id"`
	AuthorID    string    `gorm:"size:36;not null" json:"author_id"`
	Note        string    `gorm:"type:text;not null" json:"note"`
	Date        time.Time `gorm:"not null" json:"date"`
}
