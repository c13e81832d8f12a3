package model

import (
	"errors"
	"strings"
)

// Role is the canonical authorization tag for a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHOD     Role = "hod"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ErrUnknownRole is returned when a wire value maps to no canonical role.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole translates an external wire value into a canonical Role.
// Legacy clients and older database rows use "faculty" for the teacher
// role; it is normalized here so the rest of the app never sees it.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, nil
	case "hod":
		return RoleHOD, nil
	case "teacher", "faculty":
		return RoleTeacher, nil
	case "student":
		return RoleStudent, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHOD, RoleTeacher, RoleStudent:
		return true
	}
	return false
}
