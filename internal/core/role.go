package core

import (
	"fmt"
	"strings"
)

// Role is a closed set. The zero value is not a role and is granted nothing.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleUser
	RoleReadonly
)

var (
	// ManageRoles may administer accounts, categories and users.
	ManageRoles = []Role{RoleAdmin}
	// WriteRoles may record transactions and budgets.
	WriteRoles = []Role{RoleAdmin, RoleUser}
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	case "readonly":
		return RoleReadonly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	case RoleReadonly:
		return "readonly"
	}
	return "unknown"
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleReadonly:
		return true
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// SeesWholeOrganization reports whether the role reads every transaction of
// its organisation rather than only its own.
func (r Role) SeesWholeOrganization() bool {
	switch r {
	case RoleAdmin, RoleReadonly:
		return true
	case RoleUser:
		return false
	}
	return false
}

// RequireRole fails with ErrPermissionDenied unless the actor holds one of allowed.
func RequireRole(a Actor, allowed ...Role) error {
	if !a.Role.Valid() {
		return ErrPermissionDenied
	}
	for _, r := range allowed {
		if a.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s", ErrPermissionDenied, a.Role)
}
