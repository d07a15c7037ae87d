package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStandard:
		return true
	default:
		return false
	}
}

// ParseRole converts raw input into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// User is a local account. Subject is the stable external identifier assigned by the
// identity provider (or an administrator-chosen username) and never changes once stored.
type User struct {
	ID           string
	Subject      string
	Email        string
	FirstName    string
	LastName     string
	Role         Role
	Active       bool
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}
