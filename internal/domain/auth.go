package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of principal roles carried in credentials.
type Role string

const (
	RoleDonor      Role = "DONOR"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Roles lists every known role.
var Roles = []Role{RoleDonor, RoleManager, RoleAdmin, RoleSuperAdmin}

// ParseRole accepts a role tag case-insensitively and rejects unknown values.
func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r belongs to an admin-side account.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin || r == RoleSuperAdmin
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
	return []byte(r), nil
}

// UnmarshalText rejects unknown roles so they never reach handlers.
func (r *Role) UnmarshalText(text []byte) error {
	if !Role(text).Valid() {
		return fmt.Errorf("unknown role %q", string(text))
	}
	*r = Role(text)
	return nil
}
