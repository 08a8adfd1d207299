package callout

import "strings"

// Role is the caller's application role, issued by the external auth service
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

// ParseRole normalises a role string; unknown values parse as RoleEmployee
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSupervisor:
		return RoleSupervisor
	default:
		return RoleEmployee
	}
}

// CanManageSchedule reports whether the role may run callouts
func (r Role) CanManageSchedule() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// Actor identifies who is performing an operation and in which organisation
type Actor struct {
	UserID string
	OrgID  string
	Role   Role
}

func (a Actor) authorize() error {
	if a.UserID == "" || a.OrgID == "" || !a.Role.CanManageSchedule() {
		return forbidden()
	}
	return nil
}
