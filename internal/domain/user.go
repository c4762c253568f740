// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// Role is resolved once per request from the verified identity and
// carried through authorization checks. The zero value is RoleStudent.
type Role int

const (
	RoleStudent Role = iota
	RoleInstructor
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleInstructor:
		return "instructor"
	case RoleAdmin:
		return "admin"
	default:
		return "student"
	}
}

// ParseRole maps an external role claim onto the closed enum.
// Unknown values fall back to student, the least privileged role.
func ParseRole(s string) Role {
	switch s {
	case "instructor":
		return RoleInstructor
	case "admin":
		return RoleAdmin
	default:
		return RoleStudent
	}
}

type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"-"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, displayName string, role Role) (*User, error) {
	if len(displayName) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &User{ID: id, DisplayName: displayName, Role: role}, nil
}
