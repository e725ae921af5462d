package identity

import (
	"fmt"
	"time"
)

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleMember    Role = "member"
	RoleValidator Role = "validator"
	RoleAdmin     Role = "admin"
)

// ParseRole rejects unknown role strings at the boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMember, RoleValidator, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// User represents a registered account. ResetToken and ResetExpiration are
// either both nil or both set; at most one reset is outstanding at a time.
type User struct {
	ID              int64
	UserCode        string
	Email           string
	Name            string
	PasswordHash    string
	Role            Role
	Active          bool
	ResetToken      *string
	ResetExpiration *time.Time
	CreatedAt       time.Time
}
