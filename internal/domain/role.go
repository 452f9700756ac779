package domain

import "fmt"

// Role is a member's permission level inside a workspace
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// roleRank orders roles by privilege, highest first
var roleRank = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleViewer: 1,
}

// AllRoles lists roles from most to least privileged
var AllRoles = []Role{RoleOwner, RoleAdmin, RoleEditor, RoleViewer}

// IsValid reports whether r belongs to the closed role set
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the privilege rank of r, 0 for unknown roles
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r is at least as privileged as min
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && r.Rank() >= min.Rank()
}

// ParseRole validates a raw role string
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", NewValidationError(fmt.Sprintf("invalid role %q: must be one of owner, admin, editor, viewer", s))
	}
	return r, nil
}

// RolesAtLeast returns every role whose privilege is >= min
func RolesAtLeast(min Role) []Role {
	roles := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if r.AtLeast(min) {
			roles = append(roles, r)
		}
	}
	return roles
}

// HasRole reports whether r is contained in set
func HasRole(set []Role, r Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
