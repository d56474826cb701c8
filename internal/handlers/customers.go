package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
)

const customersPath = "/clientes"

type CustomerHandler struct {
	Customers *service.CustomerService
}

func (h *CustomerHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p, meta := listPage(c)
	total, items, err := h.Customers.List(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Error("customer_list_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "customers.html", View{Title: "Clientes", Data: items, Page: meta(total)})
}

func (h *CustomerHandler) New(c echo.Context) error {
	return page(c, http.StatusOK, "customer_form.html", View{Title: "Nuevo cliente", Action: customersPath + "/nuevo", Form: CustomerForm{}})
}

func (h *CustomerHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer_create")
	v := View{Title: "Nuevo cliente", Action: customersPath + "/nuevo"}

	var form CustomerForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("customer_create_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("customer_create_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "customer_form.html", v)
	}

	cust, err := h.Customers.Create(ctx, form.input())
	if err != nil {
		return formFailure(c, l, "customer_create_error", err, "customer_form.html", customersPath, v)
	}
	l.Info("customer_created", "customer_id", cust.ID)
	return redirectWith(c, notice.Success, "Cliente agregado con éxito", customersPath)
}

func (h *CustomerHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Cliente no encontrado.")
	}
	cust, err := h.Customers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Cliente no encontrado.")
		}
		logging.FromContext(ctx).Error("customer_edit_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "customer_form.html", View{
		Title:  "Editar cliente",
		Action: customersPath + "/editar/" + c.Param("id"),
		Mode:   "edit",
		Form:   CustomerForm{Name: cust.Name, Email: cust.Email, Phone: cust.Phone, Address: cust.Address},
	})
}

func (h *CustomerHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer_update")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", customersPath)
	}
	v := View{Title: "Editar cliente", Action: customersPath + "/editar/" + c.Param("id"), Mode: "edit"}

	var form CustomerForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("customer_update_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("customer_update_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "customer_form.html", v)
	}

	if _, err := h.Customers.Update(ctx, id, form.input()); err != nil {
		return formFailure(c, l, "customer_update_error", err, "customer_form.html", customersPath, v)
	}
	l.Info("customer_updated", "customer_id", id)
	return redirectWith(c, notice.Success, "Cliente actualizado con éxito", customersPath)
}

func (h *CustomerHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer_delete")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", customersPath)
	}
	if err := h.Customers.Delete(ctx, id); err != nil {
		return deleteFailure(c, l, "customer_delete_error", err, customersPath)
	}
	l.Info("customer_deleted", "customer_id", id)
	return redirectWith(c, notice.Danger, "Cliente eliminado con éxito.", customersPath)
}
