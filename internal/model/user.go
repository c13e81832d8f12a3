package model

import "time"

// User represents any account in the college system: admin, HOD,
// teacher or student. All roles share one table and one login flow.
type User struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	Department      string    `json:"department,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Profile is the display subset of a user returned on login and
// /check-auth. Dashboards consume it read-only.
type Profile struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Department      string `json:"department,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Profile projects the user onto its display subset.
func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Department:      u.Department,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// LoginRequest is the payload for primary-credential authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

// VerifyOTPRequest is the payload for the OTP second factor.
type VerifyOTPRequest struct {
	UserID int    `json:"user_id" binding:"required"`
	OTP    string `json:"otp" binding:"required,len=6,numeric"`
}

// ResendOTPRequest asks for a fresh OTP. Kind selects the namespace:
// the pending login second factor (default) or the password-reset code.
type ResendOTPRequest struct {
	UserID int    `json:"user_id" binding:"required"`
	Kind   string `json:"kind" binding:"omitempty,oneof=login reset"`
}

// ForgotPasswordRequest starts the password-reset sub-flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ResetPasswordRequest completes the password-reset sub-flow.
type ResetPasswordRequest struct {
	UserID          int    `json:"user_id" binding:"required"`
	OTP             string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// LogoutRequest revokes the caller's refresh session.
type LogoutRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// CreateUserRequest is the payload for creating an account (admin only).
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=64"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department" binding:"omitempty,max=100"`
	Password   string `json:"password" binding:"required,min=8,max=128"`
}
