package router

import (
	"net/http"
	"time"

	"github.com/campushq/campusgate/internal/config"
	"github.com/campushq/campusgate/internal/handler"
	"github.com/campushq/campusgate/internal/middleware"
	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/response"
	"github.com/campushq/campusgate/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	Admin *handler.AdminHandler
	WS    *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes it.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/verify-otp", handlers.Auth.VerifyOTP)
		auth.POST("/resend-otp", handlers.Auth.ResendOTP)
		auth.POST("/forgot-password", handlers.Auth.ForgotPassword)
		auth.POST("/reset-password", handlers.Auth.ResetPassword)
		auth.POST("/logout", handlers.Auth.Logout)

		// Authenticated session check
		auth.GET("/check-auth",
			middleware.RequireAuth(authService),
			middleware.CheckActiveSession(authService),
			handlers.Auth.CheckAuth,
		)
	}

	// ─── 2. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/session/watch", handlers.WS.SessionWatch)
	}

	// ─── 3. Admin Group (JWT + Role Guard) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAuth(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		adminAPI.GET("/users",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Admin.ListUsers,
		)
		adminAPI.POST("/users",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Admin.CreateUser,
		)
		adminAPI.POST("/users/:id/revoke-session",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Admin.RevokeSession,
		)
		adminAPI.GET("/auth-events",
			middleware.RequireRole(model.RoleAdmin, model.RoleHOD),
			handlers.Admin.ListAuthEvents,
		)
	}

	return router
}
