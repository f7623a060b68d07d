// Package authorization resolves a caller's role within an organization
// and exposes capability predicates over a closed role set. Every mutating
// entry point re-checks here server-side; client gating is UX only.
package authorization

import (
	"errors"
	"strings"
)

// Role is the closed set of organization roles. Adding a role means
// revisiting every switch below; there is no default-allow path.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

var ErrUnknownRole = errors.New("unknown_role")

// ParseRole maps a stored role string onto the closed enum.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	case RoleViewer:
		return RoleViewer, nil
	default:
		return "", ErrUnknownRole
	}
}

// CanManageMembers reports whether the role may invite, remove or change
// members.
func (r Role) CanManageMembers() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleMember, RoleViewer:
		return false
	default:
		return false
	}
}

// CanEditData reports whether the role may create or modify business data.
func (r Role) CanEditData() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	case RoleViewer:
		return false
	default:
		return false
	}
}

// CanDeleteData reports whether the role may delete business data.
func (r Role) CanDeleteData() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleMember, RoleViewer:
		return false
	default:
		return false
	}
}

// CanManageBilling reports whether the role may change plans or start
// checkouts. Membership status is checked separately by the gate.
func (r Role) CanManageBilling() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleMember, RoleViewer:
		return false
	default:
		return false
	}
}
