package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
)

const categoriesPath = "/categorias"

type CategoryHandler struct {
	Catalog *service.CatalogService
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p, meta := listPage(c)
	total, cats, err := h.Catalog.ListCategories(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Error("category_list_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "categories.html", View{Title: "Categorías", Data: cats, Page: meta(total)})
}

func (h *CategoryHandler) New(c echo.Context) error {
	return page(c, http.StatusOK, "category_form.html", View{Title: "Nueva categoría", Action: categoriesPath + "/nuevo", Form: CategoryForm{}})
}

func (h *CategoryHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category_create")
	v := View{Title: "Nueva categoría", Action: categoriesPath + "/nuevo"}

	var form CategoryForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("category_create_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("category_create_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "category_form.html", v)
	}

	cat, err := h.Catalog.CreateCategory(ctx, form.input())
	if err != nil {
		return formFailure(c, l, "category_create_error", err, "category_form.html", categoriesPath, v)
	}
	l.Info("category_created", "category_id", cat.ID)
	return redirectWith(c, notice.Success, "Categoría creada con éxito", categoriesPath)
}

func (h *CategoryHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Categoría no encontrada.")
	}
	cat, err := h.Catalog.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Categoría no encontrada.")
		}
		logging.FromContext(ctx).Error("category_edit_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "category_form.html", View{
		Title:  "Editar categoría",
		Action: categoriesPath + "/editar/" + c.Param("id"),
		Mode:   "edit",
		Form:   categoryForm(cat),
	})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category_update")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", categoriesPath)
	}
	v := View{Title: "Editar categoría", Action: categoriesPath + "/editar/" + c.Param("id"), Mode: "edit"}

	var form CategoryForm
	errs, err := bindForm(c, &form)
	if err != nil {
		l.Warn("category_update_error", "status", 400, "error", err)
		return err
	}
	v.Form = form
	if errs != nil {
		v.Errors = errs
		l.Warn("category_update_error", "status", 422, "reason", "invalid form")
		return page(c, http.StatusUnprocessableEntity, "category_form.html", v)
	}

	if _, err := h.Catalog.UpdateCategory(ctx, id, form.input()); err != nil {
		return formFailure(c, l, "category_update_error", err, "category_form.html", categoriesPath, v)
	}
	l.Info("category_updated", "category_id", id)
	return redirectWith(c, notice.Success, "Categoría actualizada con éxito", categoriesPath)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category_delete")

	id, ok := parseID(c)
	if !ok {
		return redirectWith(c, notice.Warning, "El registro solicitado no existe.", categoriesPath)
	}
	if err := h.Catalog.DeleteCategory(ctx, id); err != nil {
		return deleteFailure(c, l, "category_delete_error", err, categoriesPath)
	}
	l.Info("category_deleted", "category_id", id)
	return redirectWith(c, notice.Danger, "Categoría eliminada con éxito.", categoriesPath)
}

func categoryForm(cat *models.Category) CategoryForm {
	return CategoryForm{Name: cat.Name, Description: cat.Description}
}
