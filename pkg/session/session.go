// Package session holds the client-side record of the authenticated
// actor: token pair, canonical role and display profile, persisted
// across restarts through a pluggable Storage backend.
package session

import "strings"

// Role is the canonical authorization tag carried by a session.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHOD     Role = "hod"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// NormalizeRole translates a wire value into a canonical Role. Older
// backends emit "faculty" for the teacher role. Returns "" for values
// that map to no canonical role.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin
	case "hod":
		return RoleHOD
	case "teacher", "faculty":
		return RoleTeacher
	case "student":
		return RoleStudent
	default:
		return ""
	}
}

// Profile is the display subset of the authenticated user.
type Profile struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Department      string `json:"department,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Session is a snapshot of the current authentication state. A session
// is either fully authenticated (token and role both set) or fully
// anonymous — never in between.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         Role
	Profile      *Profile
}

// Authenticated reports whether the session carries a usable identity.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.Role != ""
}
