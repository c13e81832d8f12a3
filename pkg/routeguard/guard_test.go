package routeguard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campusgate/pkg/session"
)

func testGuard() *Guard {
	return New(Config{
		Rules: Rules{
			"/login":          nil,
			"/about":          {},
			"/dashboard":      {session.RoleAdmin, session.RoleHOD, session.RoleTeacher, session.RoleStudent},
			"/admin/users":    {session.RoleAdmin},
			"/reports":        {session.RoleAdmin, session.RoleHOD},
			"/grades/entry":   {session.RoleTeacher},
			"/my/attendance":  {session.RoleStudent},
		},
		LoginRoute:    "/login",
		FallbackRoute: "/dashboard",
	})
}

func authedAs(role session.Role) session.Session {
	return session.Session{AccessToken: "acc", Role: role}
}

func TestAuthorize(t *testing.T) {
	guard := testGuard()

	cases := []struct {
		name     string
		route    string
		sess     session.Session
		allowed  bool
		redirect string
	}{
		{"public route anonymous", "/login", session.Session{}, true, ""},
		{"public route authenticated", "/about", authedAs(session.RoleStudent), true, ""},
		{"protected route anonymous", "/dashboard", session.Session{}, false, "/login"},
		{"allowed role", "/admin/users", authedAs(session.RoleAdmin), true, ""},
		{"denied role", "/admin/users", authedAs(session.RoleStudent), false, "/dashboard"},
		{"multi-role allowed", "/reports", authedAs(session.RoleHOD), true, ""},
		{"multi-role denied", "/reports", authedAs(session.RoleTeacher), false, "/dashboard"},
		{"unregistered route anonymous", "/landing", session.Session{}, true, ""},
		{"unregistered route authenticated", "/landing", authedAs(session.RoleStudent), true, ""},
		{"token without role", "/dashboard", session.Session{AccessToken: "acc"}, false, "/login"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := guard.Authorize(tc.route, tc.sess)
			if decision.Allowed != tc.allowed {
				t.Fatalf("allowed = %v, want %v", decision.Allowed, tc.allowed)
			}
			if decision.RedirectTo != tc.redirect {
				t.Fatalf("redirect = %q, want %q", decision.RedirectTo, tc.redirect)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	guard := New(Config{Rules: Rules{"/secret": {session.RoleAdmin}}})

	if d := guard.Authorize("/secret", session.Session{}); d.RedirectTo != "/login" {
		t.Fatalf("expected default login route, got %q", d.RedirectTo)
	}
	if d := guard.Authorize("/secret", authedAs(session.RoleStudent)); d.RedirectTo != "/" {
		t.Fatalf("expected default fallback route, got %q", d.RedirectTo)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	guard := testGuard()
	provider := func(sess session.Session) func(c *gin.Context) session.Session {
		return func(c *gin.Context) session.Session { return sess }
	}

	newRouter := func(sess session.Session) *gin.Engine {
		r := gin.New()
		r.Use(guard.Middleware(provider(sess)))
		r.GET("/admin/users", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("allowed request passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		newRouter(authedAs(session.RoleAdmin)).ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("anonymous request redirected to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		newRouter(session.Session{}).ServeHTTP(w, req)
		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Fatalf("expected /login, got %q", loc)
		}
	})

	t.Run("wrong role redirected to fallback", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		newRouter(authedAs(session.RoleStudent)).ServeHTTP(w, req)
		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/dashboard" {
			t.Fatalf("expected /dashboard, got %q", loc)
		}
	})
}
