// Package routeguard decides whether a session may enter a route and
// where to send it otherwise. The decision is pure; a Gin adapter is
// provided for server-rendered surfaces.
package routeguard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campusgate/pkg/session"
)

// Rules maps a route to the roles allowed to enter it. A route with an
// empty (or nil) role list is public, and so is a route absent from the
// map: no registered restriction means no restriction.
type Rules map[string][]session.Role

// Config describes a guard.
type Config struct {
	Rules Rules

	// LoginRoute receives unauthenticated sessions. Defaults to "/login".
	LoginRoute string

	// FallbackRoute receives authenticated sessions whose role is not
	// allowed on the requested route. Defaults to "/".
	FallbackRoute string
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string // set only when Allowed is false
}

// Guard evaluates route access against a fixed rule set.
type Guard struct {
	rules    Rules
	login    string
	fallback string
}

// New creates a Guard from cfg, applying defaults for empty routes.
func New(cfg Config) *Guard {
	g := &Guard{
		rules:    cfg.Rules,
		login:    cfg.LoginRoute,
		fallback: cfg.FallbackRoute,
	}
	if g.login == "" {
		g.login = "/login"
	}
	if g.fallback == "" {
		g.fallback = "/"
	}
	return g
}

// Authorize decides whether sess may enter route. On restricted routes
// unauthenticated sessions are sent to the login route before any role
// check, so a missing token never reaches the fallback redirect.
func (g *Guard) Authorize(route string, sess session.Session) Decision {
	allowed := g.rules[route]
	if len(allowed) == 0 {
		return Decision{Allowed: true}
	}

	if !sess.Authenticated() {
		return Decision{RedirectTo: g.login}
	}

	for _, role := range allowed {
		if sess.Role == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{RedirectTo: g.fallback}
}

// Middleware adapts the guard to Gin. The provider yields the session
// for the current request; denied requests are redirected and aborted.
func (g *Guard) Middleware(provider func(c *gin.Context) session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Authorize(c.FullPath(), provider(c))
		if !decision.Allowed {
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}
