package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

const productsPath = "/productos"

type ProductHandler struct {
	Catalog *service.CatalogService
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p, meta := listPage(c)
	total, items, err := h.Catalog.ListProducts(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Error("product_list_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "products.html", View{Title: "Productos", Data: items, Page: meta(total)})
}

// Search filters by a case-insensitive substring of the name. An empty query lists everything.
func (h *ProductHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_search")

	q := c.QueryParam("q")
	items, err := h.Catalog.SearchProducts(ctx, q)
	if err != nil {
		l.Error("product_search_error", "status", 500, "error", err)
		return err
	}
	l.Debug("product_search", "q", q, "hits", len(items))
	return page(c, http.StatusOK, "products.html", View{Title: "Productos", Data: items, Query: q})
}

func (h *ProductHandler) New(c echo.Context) error {
	return h.form(c, http.StatusOK, View{Title: "Nuevo producto", Action: productsPath + "/nuevo", Form: ProductForm{}})
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_create")
	v := View{Title: "Nuevo producto", Action: productsPath + "/nuevo"}

	var form ProductForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("product_create_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("product_create_error", "status", 422, "reason", "invalid form")
		return h.form(c, http.StatusUnprocessableEntity, v)
	}

	prod, err := h.Catalog.CreateProduct(ctx, form.input())
	if err != nil {
		return h.failure(c, l, "product_create_error", err, v)
	}
	l.Info("product_created", "product_id", prod.ID)
	return redirectWith(c, notice.Success, "Producto agregado correctamente.", productsPath)
}

func (h *ProductHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Producto no encontrado.")
	}
	prod, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Producto no encontrado.")
		}
		logging.FromContext(ctx).Error("product_edit_error", "status", 500, "error", err)
		return err
	}
	return h.form(c, http.StatusOK, View{
		Title:  "Editar producto",
		Action: productsPath + "/editar/" + c.Param("id"),
		Mode:   "edit",
		Form:   productForm(prod),
	})
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_update")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", productsPath)
	}
	v := View{Title: "Editar producto", Action: productsPath + "/editar/" + c.Param("id"), Mode: "edit"}

	var form ProductForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("product_update_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("product_update_error", "status", 422, "reason", "invalid form")
		return h.form(c, http.StatusUnprocessableEntity, v)
	}

	if _, err := h.Catalog.UpdateProduct(ctx, id, form.input()); err != nil {
		return h.failure(c, l, "product_update_error", err, v)
	}
	l.Info("product_updated", "product_id", id)
	return redirectWith(c, notice.Success, "Producto actualizado correctamente.", productsPath)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_delete")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", productsPath)
	}
	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		return deleteFailure(c, l, "product_delete_error", err, productsPath)
	}
	l.Info("product_deleted", "product_id", id)
	return redirectWith(c, notice.Danger, "Producto eliminado con éxito.", productsPath)
}

// form renders the product form with the category choices.
func (h *ProductHandler) form(c echo.Context, code int, v View) error {
	_, cats, err := h.Catalog.ListCategories(c.Request().Context(), transport.Page{})
	if err != nil {
		return err
	}
	v.Data = cats
	return page(c, code, "product_form.html", v)
}

func (h *ProductHandler) failure(c echo.Context, l *slog.Logger, event string, err error, v View) error {
	_, cats, lerr := h.Catalog.ListCategories(c.Request().Context(), transport.Page{})
	if lerr != nil {
		return lerr
	}
	v.Data = cats
	return formFailure(c, l, event, err, "product_form.html", productsPath, v)
}

func productForm(p *models.Product) ProductForm {
	f := ProductForm{
		Name:     p.Name,
		Quantity: strconv.Itoa(p.Quantity),
		Price:    strconv.FormatFloat(p.Price, 'f', 2, 64),
	}
	if p.CategoryID != nil {
		f.CategoryID = strconv.FormatUint(uint64(*p.CategoryID), 10)
	}
	return f
}
