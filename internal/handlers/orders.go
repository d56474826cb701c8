package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

const ordersPath = "/ordenes"

type OrderHandler struct {
	Orders    *service.OrderService
	Customers *service.CustomerService
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p, meta := listPage(c)
	total, items, err := h.Orders.List(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Error("order_list_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "orders.html", View{Title: "Órdenes", Data: items, Page: meta(total)})
}

// New refuses to show the form until at least one customer exists.
func (h *OrderHandler) New(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_new")
	if err := h.Orders.EnsureCustomers(ctx); err != nil {
		if errors.Is(err, service.ErrNoCustomers) {
			l.Warn("order_new_error", "status", 303, "reason", "no customers")
			return redirectWith(c, notice.Warning, msgNoCustomers, customersPath)
		}
		l.Error("order_new_error", "status", 500, "error", err)
		return err
	}
	return h.form(c, http.StatusOK, View{Title: "Nueva orden", Action: ordersPath + "/nuevo", Form: OrderForm{}})
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_create")
	v := View{Title: "Nueva orden", Action: ordersPath + "/nuevo"}

	var form OrderForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("order_create_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		if err := h.Orders.EnsureCustomers(ctx); err != nil {
			return formFailure(c, l, "order_create_error", err, "order_form.html", ordersPath, v)
		}
		v.Errors = errs
		l.Warn("order_create_error", "status", 422, "reason", "invalid form")
		return h.form(c, http.StatusUnprocessableEntity, v)
	}

	order, err := h.Orders.Create(ctx, form.input())
	if err != nil {
		return h.failure(c, l, "order_create_error", err, v)
	}
	l.Info("order_created", "order_id", order.ID, "customer_id", order.CustomerID)
	return redirectWith(c, notice.Success, "Orden creada con éxito.", ordersPath)
}

func (h *OrderHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Orden no encontrada.")
	}
	order, err := h.Orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Orden no encontrada.")
		}
		logging.FromContext(ctx).Error("order_edit_error", "status", 500, "error", err)
		return err
	}
	return h.form(c, http.StatusOK, View{
		Title:  "Editar orden",
		Action: ordersPath + "/editar/" + c.Param("id"),
		Mode:   "edit",
		Form: OrderForm{
			CustomerID: strconv.FormatUint(uint64(order.CustomerID), 10),
			Date:       order.Date,
		},
	})
}

func (h *OrderHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_update")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", ordersPath)
	}
	v := View{Title: "Editar orden", Action: ordersPath + "/editar/" + c.Param("id"), Mode: "edit"}

	var form OrderForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("order_update_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("order_update_error", "status", 422, "reason", "invalid form")
		return h.form(c, http.StatusUnprocessableEntity, v)
	}

	if _, err := h.Orders.Update(ctx, id, form.input()); err != nil {
		return h.failure(c, l, "order_update_error", err, v)
	}
	l.Info("order_updated", "order_id", id)
	return redirectWith(c, notice.Success, "Orden actualizada con éxito.", ordersPath)
}

func (h *OrderHandler) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_status")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", ordersPath)
	}

	var form StatusForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("order_status_error", "status", 400, "error", err)
		return err
	}
	if errs != nil {
		l.Warn("order_status_error", "status", 303, "reason", "invalid status", "value", form.Status)
		return redirectWith(c, notice.Warning, "Estado inválido.", ordersPath)
	}

	order, err := h.Orders.SetStatus(ctx, id, form.Status)
	if err != nil {
		return deleteFailure(c, l, "order_status_error", err, ordersPath)
	}
	l.Info("order_status_changed", "order_id", id, "order_status", order.Status)
	return redirectWith(c, notice.Success, "Estado de la orden actualizado.", ordersPath)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_delete")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", ordersPath)
	}
	if err := h.Orders.Delete(ctx, id); err != nil {
		return deleteFailure(c, l, "order_delete_error", err, ordersPath)
	}
	l.Info("order_deleted", "order_id", id)
	return redirectWith(c, notice.Danger, "Orden eliminada con éxito.", ordersPath)
}

// form renders the order form with the customer choices.
func (h *OrderHandler) form(c echo.Context, code int, v View) error {
	_, custs, err := h.Customers.List(c.Request().Context(), transport.Page{})
	if err != nil {
		return err
	}
	v.Data = custs
	return page(c, code, "order_form.html", v)
}

func (h *OrderHandler) failure(c echo.Context, l *slog.Logger, event string, err error, v View) error {
	if errors.Is(err, service.ErrNoCustomers) || errors.Is(err, service.ErrNotFound) {
		return formFailure(c, l, event, err, "order_form.html", ordersPath, v)
	}
	_, custs, lerr := h.Customers.List(c.Request().Context(), transport.Page{})
	if lerr != nil {
		return lerr
	}
	v.Data = custs
	return formFailure(c, l, event, err, "order_form.html", ordersPath, v)
}
