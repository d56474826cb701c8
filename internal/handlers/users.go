package handlers

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

const usersPath = "/usuarios"

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p, meta := listPage(c)
	total, items, err := h.Users.List(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Error("user_list_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "users.html", View{Title: "Usuarios", Data: items, Page: meta(total)})
}

func (h *UserHandler) New(c echo.Context) error {
	return page(c, http.StatusOK, "user_form.html", View{
		Title:  "Nuevo usuario",
		Action: usersPath + "/nuevo",
		Form:   UserForm{Role: models.RoleEmployee},
	})
}

func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_create")
	v := View{Title: "Nuevo usuario", Action: usersPath + "/nuevo"}

	var form UserForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("user_create_error", "status", 400, "error", err)
		return err
	}
	if form.Password == "" {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["password"] = fieldMessages["required"]
	}
	in := form.input()
	form.Password, v.Form = "", form
	if len(errs) > 0 {
		v.Errors = errs
		l.Warn("user_create_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "user_form.html", v)
	}

	user, err := h.Users.Create(ctx, in)
	if err != nil {
		return formFailure(c, l, "user_create_error", err, "user_form.html", usersPath, v)
	}
	l.Info("user_created", "new_user_id", user.ID, "new_user_role", user.Role)
	return redirectWith(c, notice.Success, "Usuario agregado con éxito", usersPath)
}

func (h *UserHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado.")
	}
	user, err := h.Users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado.")
		}
		logging.FromContext(ctx).Error("user_edit_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "user_form.html", View{
		Title:  "Editar usuario",
		Action: usersPath + "/editar/" + c.Param("id"),
		Mode:   "edit",
		Form:   UserForm{Name: user.Name, Email: user.Email, Role: user.Role},
	})
}

// Update keeps the current password when the field is left empty.
func (h *UserHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", usersPath)
	}
	v := View{Title: "Editar usuario", Action: usersPath + "/editar/" + c.Param("id"), Mode: "edit"}

	var form UserForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("user_update_error", "status", 400, "error", err)
		return err
	}
	in := form.input()
	form.Password, v.Form = "", form
	if errs != nil {
		v.Errors = errs
		l.Warn("user_update_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "user_form.html", v)
	}

	if _, err := h.Users.Update(ctx, id, in); err != nil {
		return formFailure(c, l, "user_update_error", err, "user_form.html", usersPath, v)
	}
	l.Info("user_updated", "target_user_id", id)
	return redirectWith(c, notice.Success, "Usuario actualizado con éxito", usersPath)
}

func (h *UserHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_delete")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", usersPath)
	}
	sess, _ := session.FromContext(ctx)
	var actor uint
	if sess != nil {
		actor = sess.UserID
	}
	if err := h.Users.Delete(ctx, actor, id); err != nil {
		return deleteFailure(c, l, "user_delete_error", err, usersPath)
	}
	l.Info("user_deleted", "target_user_id", id)
	return redirectWith(c, notice.Danger, "Usuario eliminado con éxito.", usersPath)
}
