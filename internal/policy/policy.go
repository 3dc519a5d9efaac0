// Package policy is the single authorization point for staff actions.
package policy

import "github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"

type Action string

const (
	ActionRead         Action = "read"
	ActionAssign       Action = "assign"
	ActionMutateStatus Action = "mutate_status"
	ActionExport       Action = "export"
	ActionAppendUpdate Action = "append_update"
	ActionAddNote      Action = "add_note"
	ActionReadAudit    Action = "read_audit"
	ActionListStaff    Action = "list_staff"
)

// Viewer is the authenticated staff member making a request.
type Viewer struct {
	UID  string
	Role models.Role
}

// grants lists what each role may do on complaints it can see.
var grants = map[models.Role]map[Action]bool{
	models.RoleAdmin:     allActions(),
	models.RoleDeveloper: allActions(),
	models.RoleCommittee: allActions(),
	models.RoleActionTaker: {
		ActionRead:         true,
		ActionMutateStatus: true,
		ActionAppendUpdate: true,
		ActionAddNote:      true,
	},
}

func allActions() map[Action]bool {
	return map[Action]bool{
		ActionRead:         true,
		ActionAssign:       true,
		ActionMutateStatus: true,
		ActionExport:       true,
		ActionAppendUpdate: true,
		ActionAddNote:      true,
		ActionReadAudit:    true,
		ActionListStaff:    true,
	}
}

// Can reports whether v may perform action on c. A nil complaint asks about
// the action in general (collection reads, export, roster).
func Can(v Viewer, action Action, c *models.Complaint) bool {
	if v.UID == "" || !grants[v.Role][action] {
		return false
	}
	if c == nil {
		return true
	}
	return VisibilityFor(v).Allows(c)
}

// Visibility is the record filter applied by the store for a viewer.
type Visibility struct {
	All        bool
	AssignedTo string
}

// VisibilityFor returns the data-access filter for v. Action takers only see
// complaints assigned to them; an unknown role sees nothing.
func VisibilityFor(v Viewer) Visibility {
	switch v.Role {
	case models.RoleAdmin, models.RoleDeveloper, models.RoleCommittee:
		return Visibility{All: true}
	case models.RoleActionTaker:
		return Visibility{AssignedTo: v.UID}
	default:
		return Visibility{}
	}
}

// Allows is the in-memory form of the visibility filter.
func (vis Visibility) Allows(c *models.Complaint) bool {
	if vis.All {
		return true
	}
	return c.IsAssignedTo(vis.AssignedTo)
}

// Empty reports whether the filter matches nothing.
func (vis Visibility) Empty() bool {
	return !vis.All && vis.AssignedTo == ""
}
