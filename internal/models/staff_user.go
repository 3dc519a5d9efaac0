package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleActionTaker Role = "action_taker"
	RoleCommittee   Role = "committee"
	RoleDeveloper   Role = "developer"
)

var Roles = []Role{RoleAdmin, RoleActionTaker, RoleCommittee, RoleDeveloper}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// StaffUser is a staff profile. Profiles are provisioned out-of-band and are
// read-only to the case workflow.
type StaffUser struct {
	UID          string    `gorm:"primaryKey;size:36" json:"uid"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Role         Role      `gorm:"size:20;not null;index" json:"role"`
	Department   string    `gorm:"size:255" json:"department"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

// BeforeCreate assigns a UID when the caller did not.
func (u *StaffUser) BeforeCreate(tx *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	return nil
}
