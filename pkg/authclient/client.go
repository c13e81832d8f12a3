// Package authclient talks to the authentication backend over HTTP and
// implements the collaborator interface the login flow drives. It also
// carries the authenticated calls (check-auth, logout) that manage an
// established session.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campushq/campusgate/pkg/loginflow"
	"github.com/campushq/campusgate/pkg/session"
)

const defaultTimeout = 30 * time.Second

// APIError carries the backend's machine-readable error code and its
// human-readable message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ErrSessionExpired is returned when an authenticated call comes back
// 401. The client has already cleared the local session by then.
var ErrSessionExpired = &APIError{
	StatusCode: http.StatusUnauthorized,
	Code:       "SESSION_INVALIDATED",
	Message:    "session is no longer valid",
}

// Client is an HTTP client for the authentication backend.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the backend at baseURL. The store is cleared
// whenever the backend rejects the session.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the backend's flat response body. Only the fields a given
// call produces are populated.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	UserID  json.Number `json:"user_id"`

	Access  string           `json:"access"`
	Refresh string           `json:"refresh"`
	Role    string           `json:"role"`
	Profile *session.Profile `json:"profile"`
}

// Login implements loginflow.AuthClient.
func (c *Client) Login(ctx context.Context, username, password string) (*loginflow.LoginResult, error) {
	env, err := c.post(ctx, "/api/v1/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}
	return c.loginResult(env)
}

// VerifyOTP implements loginflow.AuthClient.
func (c *Client) VerifyOTP(ctx context.Context, userID, otp string) (*loginflow.LoginResult, error) {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	env, err := c.post(ctx, "/api/v1/auth/verify-otp", map[string]any{
		"user_id": id,
		"otp":     otp,
	}, "")
	if err != nil {
		return nil, err
	}
	return c.loginResult(env)
}

// ResendOTP implements loginflow.AuthClient.
func (c *Client) ResendOTP(ctx context.Context, userID string, purpose loginflow.OTPPurpose) error {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	_, err = c.post(ctx, "/api/v1/auth/resend-otp", map[string]any{
		"user_id": id,
		"kind":    string(purpose),
	}, "")
	return err
}

// ForgotPassword implements loginflow.AuthClient.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, err := c.post(ctx, "/api/v1/auth/forgot-password", map[string]any{
		"email": email,
	}, "")
	if err != nil {
		return "", err
	}
	return env.UserID.String(), nil
}

// ResetPassword implements loginflow.AuthClient.
func (c *Client) ResetPassword(ctx context.Context, userID, otp, newPassword, confirmPassword string) error {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	_, err = c.post(ctx, "/api/v1/auth/reset-password", map[string]any{
		"user_id":          id,
		"otp":              otp,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}, "")
	return err
}

// CheckAuth re-validates the persisted session against the backend and
// refreshes the stored role + profile. A 401 clears the local session
// and returns ErrSessionExpired.
func (c *Client) CheckAuth(ctx context.Context) (session.Session, error) {
	current := c.store.Current()
	if !current.Authenticated() {
		return session.Session{}, ErrSessionExpired
	}

	env, err := c.get(ctx, "/api/v1/auth/check-auth", current.AccessToken)
	if err != nil {
		if isUnauthorized(err) {
			c.store.Clear()
			return session.Session{}, ErrSessionExpired
		}
		return session.Session{}, err
	}

	role := session.NormalizeRole(env.Role)
	if role == "" || env.Profile == nil {
		c.store.Clear()
		return session.Session{}, ErrSessionExpired
	}

	if err := c.store.Establish(current.AccessToken, current.RefreshToken, role, *env.Profile); err != nil {
		return session.Session{}, err
	}
	return c.store.Current(), nil
}

// Logout revokes the session on the backend and clears it locally. The
// local session is cleared even when the backend call fails, so a dead
// backend cannot trap a user in a logged-in state.
func (c *Client) Logout(ctx context.Context) error {
	current := c.store.Current()
	c.store.Clear()

	if current.RefreshToken == "" {
		return nil
	}
	_, err := c.post(ctx, "/api/v1/auth/logout", map[string]any{
		"refresh": current.RefreshToken,
	}, current.AccessToken)
	if isUnauthorized(err) {
		return nil // already revoked server-side
	}
	return err
}

func (c *Client) loginResult(env *envelope) (*loginflow.LoginResult, error) {
	if env.Access == "" {
		// "OTP sent" answer: no tokens, a pending user id instead.
		return &loginflow.LoginResult{
			OTPRequired: true,
			UserID:      env.UserID.String(),
			Message:     env.Message,
		}, nil
	}

	role := session.NormalizeRole(env.Role)
	if role == "" {
		return nil, fmt.Errorf("backend returned unknown role %q", env.Role)
	}
	result := &loginflow.LoginResult{
		AccessToken:  env.Access,
		RefreshToken: env.Refresh,
		Role:         role,
		Message:      env.Message,
	}
	if env.Profile != nil {
		result.Profile = *env.Profile
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any, token string) (*envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token)
}

func (c *Client) get(ctx context.Context, path, token string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (*envelope, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
		}
	}
	return &env, nil
}

func isUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}
