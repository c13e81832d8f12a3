package model

import "time"

// AuthEventType classifies entries in the auth audit trail.
type AuthEventType string

const (
	AuthEventLoginSuccess   AuthEventType = "LOGIN_SUCCESS"
	AuthEventLoginFailed    AuthEventType = "LOGIN_FAILED"
	AuthEventOTPSent        AuthEventType = "OTP_SENT"
	AuthEventOTPVerified    AuthEventType = "OTP_VERIFIED"
	AuthEventOTPRejected    AuthEventType = "OTP_REJECTED"
	AuthEventPasswordReset  AuthEventType = "PASSWORD_RESET"
	AuthEventLogout         AuthEventType = "LOGOUT"
	AuthEventSessionRevoked AuthEventType = "SESSION_REVOKED"
)

// AuthEvent is one row of the auth audit trail. UserID is nil for
// failed logins against unknown usernames.
type AuthEvent struct {
	ID        int64         `json:"id"`
	UserID    *int          `json:"user_id,omitempty"`
	Username  string        `json:"username"`
	Event     AuthEventType `json:"event"`
	ClientIP  string        `json:"client_ip"`
	CreatedAt time.Time     `json:"created_at"`
}
