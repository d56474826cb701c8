package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/metrics"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/session"
)

type AuthHandler struct {
	Auth   *service.AuthService
	Secure bool
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	if _, ok := session.FromContext(c.Request().Context()); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return page(c, http.StatusOK, "login.html", View{Title: "Iniciar sesión", Form: LoginForm{}})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var form LoginForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return err
	}
	if errs != nil {
		metrics.ObserveLogin("invalid")
		l.Warn("login_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "login.html", View{Title: "Iniciar sesión", Form: LoginForm{Email: form.Email}, Errors: errs})
	}

	res, err := h.Auth.Authenticate(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.ObserveLogin("failure")
			notice.Add(c, notice.Danger, "Correo o contraseña incorrectos.")
			return page(c, http.StatusUnauthorized, "login.html", View{Title: "Iniciar sesión", Form: LoginForm{Email: form.Email}})
		}
		metrics.ObserveLogin("error")
		l.Error("login_error", "status", 500, "error", err)
		return err
	}

	metrics.ObserveLogin("success")
	c.SetCookie(session.CreateCookie(res.Token, res.ExpiresAt, h.Secure))
	return redirectWith(c, notice.Success, "Bienvenido, "+res.Session.Name+".", "/")
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if ck, err := c.Cookie(session.CookieName); err == nil {
		if err := h.Auth.LogOut(ctx, ck.Value); err != nil {
			// the cookie is cleared regardless; the row expires on its own
			l.Error("logout_error", "error", err)
		}
	}
	c.SetCookie(session.DeleteCookie(h.Secure))
	l.Info("logout_successful")
	return redirectWith(c, notice.Info, "Sesión cerrada.", "/login")
}
