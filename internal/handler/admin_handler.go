package handler

import (
	"net/http"
	"strconv"

	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/response"
	"github.com/campushq/campusgate/internal/service"
	"github.com/campushq/campusgate/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes account management and the auth audit trail.
type AdminHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	auditService *service.AuditService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	authService *service.AuthService,
	userService *service.UserService,
	auditService *service.AuditService,
) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		userService:  userService,
		auditService: auditService,
	}
}

func paginationParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}
	return page, perPage
}

func totalPages(total, perPage int) int {
	return (total + perPage - 1) / perPage
}

// ListUsers godoc
// GET /api/v1/admin/users?page=&per_page=&role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, perPage := paginationParams(c)

	var roleFilter *model.Role
	if raw := c.Query("role"); raw != "" {
		role, err := model.ParseRole(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		roleFilter = &role
	}

	users, total, err := h.userService.ListPaginated(c.Request.Context(), roleFilter, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total_items": total,
			"total_pages": totalPages(total, perPage),
		},
	})
}

// CreateUser godoc
// POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"role": "must be one of admin, hod, teacher, student"})
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Role:         role,
		Department:   req.Department,
		PasswordHash: hash,
	}
	if err := h.userService.Create(c.Request.Context(), user); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// RevokeSession godoc
// POST /api/v1/admin/users/:id/revoke-session
// Force-logs-out the target user: the refresh session is removed and a
// revocation event is pushed to any connected dashboard.
func (h *AdminHandler) RevokeSession(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.authService.RevokeUserSession(ctx, user.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(ctx, &user.ID, user.Username, model.AuthEventSessionRevoked, c.ClientIP())
	response.Success(c, http.StatusOK, gin.H{})
}

// ListAuthEvents godoc
// GET /api/v1/admin/auth-events?page=&per_page=&user_id=
func (h *AdminHandler) ListAuthEvents(c *gin.Context) {
	page, perPage := paginationParams(c)

	var userFilter *int
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		userFilter = &id
	}

	events, total, err := h.auditService.ListPaginated(c.Request.Context(), userFilter, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"events": events,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total_items": total,
			"total_pages": totalPages(total, perPage),
		},
	})
}
