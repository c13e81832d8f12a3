// Package loginflow drives the multi-step login sequence: primary
// credentials, the OTP second factor and the password-reset sub-flow.
// On success it hands the resulting identity to the session store.
package loginflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campushq/campusgate/pkg/session"
)

// State identifies the current step of the flow.
type State string

const (
	StateCredentials    State = "credentials"
	StateOtpPending     State = "otp_pending"
	StateAuthenticated  State = "authenticated"
	StateForgotPassword State = "forgot_password"
	StateResetPending   State = "reset_pending"
)

// DefaultResendCooldown matches the backend's resend throttle.
const DefaultResendCooldown = 60 * time.Second

// Local validation and sequencing errors. These never involve the
// network; the flow state is unchanged when they are returned.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrMissingEmail       = errors.New("email is required")
	ErrInvalidOTPFormat   = errors.New("otp must be exactly 6 digits")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidState       = errors.New("action not available in the current step")
	ErrInFlight           = errors.New("a request is already in flight")
	ErrResendCooldown     = errors.New("resend is still cooling down")
)

// LoginResult is what the authentication collaborator returns for a
// successful login or OTP verification.
type LoginResult struct {
	// OTPRequired is set when the backend answered "OTP sent" instead
	// of tokens. UserID identifies the pending login for verify/resend.
	OTPRequired bool
	UserID      string

	AccessToken  string
	RefreshToken string
	Role         session.Role
	Profile      session.Profile
	Message      string
}

// OTPPurpose selects which pending code a resend re-issues. Login codes
// and password-reset codes live in separate namespaces on the backend.
type OTPPurpose string

const (
	OTPPurposeLogin OTPPurpose = "login"
	OTPPurposeReset OTPPurpose = "reset"
)

// AuthClient is the external authentication collaborator. All methods
// block for the duration of the network round-trip.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	VerifyOTP(ctx context.Context, userID, otp string) (*LoginResult, error)
	ResendOTP(ctx context.Context, userID string, purpose OTPPurpose) error
	ForgotPassword(ctx context.Context, email string) (userID string, err error)
	ResetPassword(ctx context.Context, userID, otp, newPassword, confirmPassword string) error
}

// Flow is the login state machine. One Flow instance serves one login
// surface; it permits a single in-flight request at a time and discards
// responses that complete after the flow has moved on.
type Flow struct {
	mu     sync.Mutex
	client AuthClient
	store  *session.Store

	state  State
	userID string

	busy  bool
	epoch uint64 // bumped on every applied transition; stale responses are dropped

	now           func() time.Time
	cooldown      time.Duration
	cooldownUntil time.Time
}

// Option customizes a Flow.
type Option func(*Flow)

// WithClock injects a time source. Tests use this to step through the
// resend cooldown without sleeping.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithResendCooldown overrides the client-side resend cooldown.
func WithResendCooldown(d time.Duration) Option {
	return func(f *Flow) { f.cooldown = d }
}

// New creates a Flow in the Credentials state.
func New(client AuthClient, store *session.Store, opts ...Option) *Flow {
	f := &Flow{
		client:   client,
		store:    store,
		state:    StateCredentials,
		now:      time.Now,
		cooldown: DefaultResendCooldown,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// PendingUserID returns the identity of the pending login, or "" when
// no second factor or reset is pending.
func (f *Flow) PendingUserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

// begin marks a request in flight. It returns the epoch the response
// must match to be applied.
func (f *Flow) begin(from ...State) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.busy {
		return 0, ErrInFlight
	}
	if len(from) > 0 {
		ok := false
		for _, s := range from {
			if f.state == s {
				ok = true
				break
			}
		}
		if !ok {
			return 0, ErrInvalidState
		}
	}
	f.busy = true
	return f.epoch, nil
}

// finish applies a transition if the flow has not moved on since begin.
// apply runs under the lock. Returns false for stale responses.
func (f *Flow) finish(epoch uint64, apply func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.busy = false
	if f.epoch != epoch {
		return false // flow was reset while the request was in flight
	}
	if apply != nil {
		apply()
		f.epoch++
	}
	return true
}

// SubmitCredentials drives Credentials → OtpPending (second factor
// required) or Credentials → Authenticated (direct login). Local
// validation fails closed without a network call.
func (f *Flow) SubmitCredentials(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	epoch, err := f.begin(StateCredentials)
	if err != nil {
		return err
	}

	result, err := f.client.Login(ctx, username, password)
	if err != nil {
		f.finish(epoch, nil)
		return err
	}

	if result.OTPRequired {
		f.finish(epoch, func() {
			f.state = StateOtpPending
			f.userID = result.UserID
			// The backend armed its cooldown when it sent the code.
			f.cooldownUntil = f.now().Add(f.cooldown)
		})
		return nil
	}

	return f.establish(epoch, result)
}

// SubmitOTP drives OtpPending → Authenticated. A rejected code keeps
// the pending login intact so the user may retry or resend.
func (f *Flow) SubmitOTP(ctx context.Context, otp string) error {
	if !validOTP(otp) {
		return ErrInvalidOTPFormat
	}

	epoch, err := f.begin(StateOtpPending)
	if err != nil {
		return err
	}

	f.mu.Lock()
	userID := f.userID
	f.mu.Unlock()

	result, err := f.client.VerifyOTP(ctx, userID, otp)
	if err != nil {
		f.finish(epoch, nil)
		return err
	}

	return f.establish(epoch, result)
}

// establish writes the session and completes the flow. The session is
// established at most once per pending login: a stale response after
// the flow moved on is discarded.
func (f *Flow) establish(epoch uint64, result *LoginResult) error {
	var err error
	f.finish(epoch, func() {
		err = f.store.Establish(result.AccessToken, result.RefreshToken, result.Role, result.Profile)
		if err != nil {
			return
		}
		f.state = StateAuthenticated
		f.userID = ""
	})
	return err
}

// ResendOTP re-requests the pending code: the login second factor in
// OtpPending, the reset code in ResetPending. The client-side cooldown
// rejects the attempt without a network call; the backend remains the
// authority on actual resend limits.
func (f *Flow) ResendOTP(ctx context.Context) error {
	f.mu.Lock()
	var purpose OTPPurpose
	switch f.state {
	case StateOtpPending:
		purpose = OTPPurposeLogin
	case StateResetPending:
		purpose = OTPPurposeReset
	default:
		f.mu.Unlock()
		return ErrInvalidState
	}
	if f.now().Before(f.cooldownUntil) {
		f.mu.Unlock()
		return ErrResendCooldown
	}
	f.mu.Unlock()

	epoch, err := f.begin(StateOtpPending, StateResetPending)
	if err != nil {
		return err
	}

	f.mu.Lock()
	userID := f.userID
	f.mu.Unlock()

	if err := f.client.ResendOTP(ctx, userID, purpose); err != nil {
		f.finish(epoch, nil)
		return err
	}

	f.finish(epoch, func() {
		f.cooldownUntil = f.now().Add(f.cooldown)
	})
	return nil
}

// ResendAvailableIn returns how long until resend is permitted again.
// Zero means resend is available now. Drives the visible countdown.
func (f *Flow) ResendAvailableIn() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	remaining := f.cooldownUntil.Sub(f.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BeginPasswordReset drives Credentials → ForgotPassword.
func (f *Flow) BeginPasswordReset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCredentials {
		return ErrInvalidState
	}
	f.state = StateForgotPassword
	f.epoch++
	return nil
}

// SubmitForgotPassword drives ForgotPassword → ResetPending.
func (f *Flow) SubmitForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingEmail
	}

	epoch, err := f.begin(StateForgotPassword)
	if err != nil {
		return err
	}

	userID, err := f.client.ForgotPassword(ctx, email)
	if err != nil {
		f.finish(epoch, nil)
		return err
	}

	f.finish(epoch, func() {
		f.state = StateResetPending
		f.userID = userID
		f.cooldownUntil = f.now().Add(f.cooldown)
	})
	return nil
}

// SubmitPasswordReset drives ResetPending → Credentials. No session is
// established — the user logs in again with the new password.
func (f *Flow) SubmitPasswordReset(ctx context.Context, otp, newPassword, confirmPassword string) error {
	if !validOTP(otp) {
		return ErrInvalidOTPFormat
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	epoch, err := f.begin(StateResetPending)
	if err != nil {
		return err
	}

	f.mu.Lock()
	userID := f.userID
	f.mu.Unlock()

	if err := f.client.ResetPassword(ctx, userID, otp, newPassword, confirmPassword); err != nil {
		f.finish(epoch, nil)
		return err
	}

	f.finish(epoch, func() {
		f.state = StateCredentials
		f.userID = ""
	})
	return nil
}

// BackToLogin discards any pending login and returns to Credentials.
// Always available. A response arriving for a request that was in
// flight when this ran is discarded.
func (f *Flow) BackToLogin() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = StateCredentials
	f.userID = ""
	f.cooldownUntil = time.Time{}
	f.epoch++
}

func validOTP(otp string) bool {
	if len(otp) != 6 {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
