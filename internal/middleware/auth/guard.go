package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/session"
)

const (
	LoginPath  = "/login"
	LogoutPath = "/logout"
	HomePath   = "/"

	msgLoginRequired = "Por favor inicia sesión para acceder a esta página."
	msgForbidden     = "No tienes permisos para acceder a esta página."
)

type Guard struct {
	Auth   *service.AuthService
	Secure bool
}

// Load attaches the session behind the cookie, if any, to the request
// context. A stale cookie is cleared; the request continues anonymously.
// Logout always proceeds, even when the session store is unavailable.
func (g *Guard) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(session.CookieName)
		if err != nil || ck.Value == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		sess, err := g.Auth.Resolve(ctx, ck.Value)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				logging.FromContext(ctx).Info("session_dropped", "reason", err.Error())
				c.SetCookie(session.DeleteCookie(g.Secure))
				return next(c)
			}
			if c.Request().URL.Path == LogoutPath {
				logging.FromContext(ctx).Warn("session_resolve_error", "path", LogoutPath, "error", err)
				return next(c)
			}
			logging.FromContext(ctx).Error("session_resolve_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}

		l := logging.FromContext(ctx).With("user_id", sess.UserID, "role", sess.Role)
		ctx = session.IntoContext(logging.IntoContext(ctx, l), sess)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireSession redirects anonymous requests to the login page.
func (g *Guard) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := service.RequireSession(c.Request().Context()); err != nil {
			notice.Add(c, notice.Warning, msgLoginRequired)
			return c.Redirect(http.StatusSeeOther, LoginPath)
		}
		return next(c)
	}
}

// RequireRole must run after RequireSession. Role mismatch sends the user home.
func (g *Guard) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			sess, err := service.RequireSession(ctx)
			if err != nil {
				notice.Add(c, notice.Warning, msgLoginRequired)
				return c.Redirect(http.StatusSeeOther, LoginPath)
			}
			if err := service.RequireRole(sess, role); err != nil {
				logging.FromContext(ctx).Warn("access_denied", "status", 303, "reason", "role mismatch", "required", role)
				notice.Add(c, notice.Danger, msgForbidden)
				return c.Redirect(http.StatusSeeOther, HomePath)
			}
			return next(c)
		}
	}
}

func (g *Guard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.RequireRole(models.RoleAdmin)(next)
}
