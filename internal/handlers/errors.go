package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
)

// ErrorHandler renders errors as the HTML error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Error interno del servidor."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if code < http.StatusInternalServerError {
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if rerr := page(c, code, "error.html", View{Title: "Error", Data: ErrorPage{Code: code, Message: msg}}); rerr != nil {
		logging.FromContext(c.Request().Context()).Error("error_page_render_failed", "error", rerr)
		_ = c.String(code, msg)
	}
}

// redirectWith queues a notice and sends the browser to target.
func redirectWith(c echo.Context, level, msg, target string) error {
	notice.Add(c, level, msg)
	return c.Redirect(http.StatusSeeOther, target)
}

// formFailure maps a service error onto the re-rendered form or a redirect.
// Unknown errors are logged and bubble up as 500.
func formFailure(c echo.Context, l *slog.Logger, event string, err error, tmpl, back string, v View) error {
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}

	var ie *service.InputError
	switch {
	case errors.As(err, &ie):
		v.Errors[ie.Field] = capitalize(ie.Message) + "."
	case errors.Is(err, service.ErrDuplicateName):
		v.Errors["name"] = "Ya existe un registro con ese nombre."
	case errors.Is(err, service.ErrDuplicateEmail):
		v.Errors["email"] = "Ya existe un registro con ese correo."
	case errors.Is(err, service.ErrInvalidInput):
		notice.Add(c, notice.Danger, "Datos inválidos.")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 303, "reason", "not found", "error", err)
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", back)
	case errors.Is(err, service.ErrNoCustomers):
		l.Warn(event, "status", 303, "reason", "no customers")
		return redirectWith(c, notice.Warning, msgNoCustomers, "/clientes")
	default:
		l.Error(event, "status", 500, "error", err)
		return err
	}

	l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "invalid form", "error", err)
	return page(c, http.StatusUnprocessableEntity, tmpl, v)
}

// deleteFailure handles errors from delete actions, which always redirect.
func deleteFailure(c echo.Context, l *slog.Logger, event string, err error, back string) error {
	var ie *service.InputError
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 303, "reason", "not found", "error", err)
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", back)
	case errors.Is(err, service.ErrInUse):
		l.Warn(event, "status", 303, "reason", "in use", "error", err)
		return redirectWith(c, notice.Warning, "No se puede eliminar: el registro está en uso.", back)
	case errors.As(err, &ie):
		l.Warn(event, "status", 303, "reason", ie.Message)
		return redirectWith(c, notice.Warning, capitalize(ie.Message)+".", back)
	}
	l.Error(event, "status", 500, "error", err)
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

const msgNoCustomers = "Debe agregar al menos un cliente antes de crear una orden."
