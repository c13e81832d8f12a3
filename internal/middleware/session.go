package middleware

import (
	"net/http"

	"github.com/campushq/campusgate/internal/response"
	"github.com/campushq/campusgate/internal/service"
	"github.com/gin-gonic/gin"
)

// CheckActiveSession rejects access tokens whose refresh session has
// been revoked (logout or admin force-logout). Without this an access
// token would keep working until its own expiry.
func CheckActiveSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.UserID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
