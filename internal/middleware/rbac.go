package middleware

import (
	"net/http"

	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireRole checks that the access JWT carries one of the permitted
// roles. An authenticated user with the wrong role gets 403, not 401 —
// clients redirect those to the home route rather than the login page.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrRoleDenied)
	}
}
