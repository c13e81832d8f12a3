package handler

import (
	"errors"
	"net/http"
	"slices"

	"github.com/campushq/campusgate/internal/middleware"
	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/response"
	"github.com/campushq/campusgate/internal/service"
	"github.com/campushq/campusgate/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles the authentication wire protocol consumed by the
// dashboard clients: login, OTP verification/resend, password reset,
// session check and logout.
type AuthHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	otpService   *service.OTPService
	auditService *service.AuditService
	otpRoles     []string
}

// NewAuthHandler creates a new AuthHandler. otpRoles lists the roles
// that must complete the OTP second factor.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	otpService *service.OTPService,
	auditService *service.AuditService,
	otpRoles []string,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		otpService:   otpService,
		auditService: auditService,
		otpRoles:     otpRoles,
	}
}

func (h *AuthHandler) requiresOTP(role model.Role) bool {
	return slices.Contains(h.otpRoles, string(role))
}

// tokenPayload builds the flat success body carrying tokens + identity.
func tokenPayload(access, refresh string, user *model.User) gin.H {
	return gin.H{
		"access":  access,
		"refresh": refresh,
		"role":    user.Role,
		"profile": user.Profile(),
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates username + password. Roles in the OTP set get a code mailed
// and must call verify-otp; other roles receive tokens directly.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByUsername(ctx, req.Username)
	if err != nil {
		h.auditService.Record(ctx, nil, req.Username, model.AuthEventLoginFailed, c.ClientIP())
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventLoginFailed, c.ClientIP())
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if h.requiresOTP(user.Role) {
		if err := h.otpService.Issue(ctx, service.OTPLogin, user); err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		// Arm the resend cooldown so an immediate resend is rejected.
		_ = h.otpService.StartCooldown(ctx, user.ID)

		h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPSent, c.ClientIP())
		response.SuccessWithMessage(c, http.StatusOK, "OTP sent", gin.H{
			"user_id": user.ID,
		})
		return
	}

	access, refresh, err := h.authService.GenerateTokenPair(ctx, user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventLoginSuccess, c.ClientIP())
	response.Success(c, http.StatusOK, tokenPayload(access, refresh, user))
}

// VerifyOTP godoc
// POST /api/v1/auth/verify-otp
// Exchanges a pending login's OTP code for a token pair.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, req.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidOTP)
		return
	}

	if err := h.otpService.Verify(ctx, service.OTPLogin, user.ID, req.OTP); err != nil {
		h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPRejected, c.ClientIP())
		if errors.Is(err, service.ErrOTPExpired) {
			response.Fail(c, http.StatusUnauthorized, response.ErrOTPExpired)
			return
		}
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidOTP)
		return
	}

	access, refresh, err := h.authService.GenerateTokenPair(ctx, user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPVerified, c.ClientIP())
	response.Success(c, http.StatusOK, tokenPayload(access, refresh, user))
}

// ResendOTP godoc
// POST /api/v1/auth/resend-otp
// Issues a fresh OTP in the requested namespace (login by default,
// reset for the password-reset sub-flow), subject to the server-side
// cooldown. Both namespaces share one cooldown per user.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req model.ResendOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, req.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.otpService.StartCooldown(ctx, user.ID); err != nil {
		if errors.Is(err, service.ErrResendThrottle) {
			response.Fail(c, http.StatusTooManyRequests, response.ErrResendCooldown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	kind := service.OTPLogin
	if req.Kind == "reset" {
		kind = service.OTPReset
	}
	if err := h.otpService.Issue(ctx, kind, user); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPSent, c.ClientIP())
	response.SuccessWithMessage(c, http.StatusOK, "OTP sent", gin.H{})
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
// Starts the password-reset sub-flow by mailing a reset OTP.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByEmail(ctx, req.Email)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.otpService.Issue(ctx, service.OTPReset, user); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	// Arm the resend cooldown so an immediate resend is rejected.
	_ = h.otpService.StartCooldown(ctx, user.ID)

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPSent, c.ClientIP())
	response.SuccessWithMessage(c, http.StatusOK, "OTP sent", gin.H{
		"user_id": user.ID,
	})
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password
// Completes the reset sub-flow. No session is established — the user
// must log in again with the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, req.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.otpService.Verify(ctx, service.OTPReset, user.ID, req.OTP); err != nil {
		h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventOTPRejected, c.ClientIP())
		if errors.Is(err, service.ErrOTPExpired) {
			response.Fail(c, http.StatusUnauthorized, response.ErrOTPExpired)
			return
		}
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidOTP)
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.userService.UpdatePassword(ctx, user.ID, hash); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// A password change invalidates any live session for the account.
	if err := h.authService.RevokeUserSession(ctx, user.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventPasswordReset, c.ClientIP())
	response.SuccessWithMessage(c, http.StatusOK, "Password reset successful", gin.H{})
}

// CheckAuth godoc
// GET /api/v1/auth/check-auth
// Returns the caller's role and profile; dashboards call this on load
// to re-validate a persisted session.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"role":    user.Role,
		"profile": user.Profile(),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the presented refresh token's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req model.LogoutRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	claims, err := h.authService.RevokeRefreshToken(ctx, req.Refresh)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	h.auditService.Record(ctx, &claims.UserID, "", model.AuthEventLogout, c.ClientIP())
	response.Success(c, http.StatusOK, gin.H{})
}
